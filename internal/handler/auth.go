package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sitecraft/sitecraft-identity/internal/crypto"
	"github.com/sitecraft/sitecraft-identity/internal/middleware"
	"github.com/sitecraft/sitecraft-identity/internal/model"
)

// AuthService is the account surface the auth handler needs.
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest, client model.ClientInfo) (model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest, client model.ClientInfo) (model.AuthResponse, error)
	WhoAmI(ctx context.Context, token string, claims *crypto.Claims) (model.ProfileResponse, error)
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandlePost handles POST /api/v1/auth, dispatching on the body's action.
func (h *AuthHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	var env actionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		writeBodyError(w, err)
		return
	}

	switch env.Action {
	case "register":
		var req model.RegisterRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeBodyError(w, err)
			return
		}
		resp, err := h.service.Register(r.Context(), req, clientInfo(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)

	case "login":
		var req model.LoginRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeBodyError(w, err)
			return
		}
		resp, err := h.service.Login(r.Context(), req, clientInfo(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)

	default:
		writeJSON(w, http.StatusBadRequest, errorResponse("unknown action"))
	}
}

// HandleMe handles GET /api/v1/auth requests. It must run behind
// middleware.TokenAuth.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("authorization required"))
		return
	}
	token, _ := middleware.TokenFromContext(r.Context())

	resp, err := h.service.WhoAmI(r.Context(), token, claims)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
