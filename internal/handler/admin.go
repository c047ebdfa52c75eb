package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sitecraft/sitecraft-identity/internal/middleware"
	"github.com/sitecraft/sitecraft-identity/internal/model"
)

// AdminService is the administrator surface the admin handler needs.
type AdminService interface {
	AwardEnergy(ctx context.Context, adminID int64, req model.GiveEnergyRequest, ip string) (model.GiveEnergyResponse, error)
	BanUser(ctx context.Context, adminID int64, req model.BanUserRequest, ip string) (model.BanUserResponse, error)
	ListUsers(ctx context.Context) (model.UsersResponse, error)
	Stats(ctx context.Context) (model.Stats, error)
	ListLogs(ctx context.Context, f model.LogFilter) (model.LogsResponse, error)
	ListTransactions(ctx context.Context, f model.LogFilter) (model.TransactionsResponse, error)
}

// AdminHandler handles HTTP requests on the admin surface. Every route must
// run behind middleware.AdminOnly.
type AdminHandler struct {
	service AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// HandleQuery handles GET /api/v1/admin?action=... requests.
func (h *AdminHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		resp any
		err  error
	)
	switch q.Get("action") {
	case "users":
		resp, err = h.service.ListUsers(r.Context())
	case "stats":
		resp, err = h.service.Stats(r.Context())
	case "logs", "transactions":
		f, ferr := model.ParseLogFilter(q.Get("user_id"), q.Get("limit"))
		if ferr != nil {
			writeServiceError(w, r, ferr)
			return
		}
		if q.Get("action") == "logs" {
			resp, err = h.service.ListLogs(r.Context(), f)
		} else {
			resp, err = h.service.ListTransactions(r.Context(), f)
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse("unknown action"))
		return
	}

	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCommand handles POST /api/v1/admin requests, dispatching on the
// body's action.
func (h *AdminHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("authorization required"))
		return
	}

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
	case "give_energy":
		var req model.GiveEnergyRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeBodyError(w, err)
			return
		}
		resp, err := h.service.AwardEnergy(r.Context(), adminID, req, clientIP(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)

	case "ban_user":
		var req model.BanUserRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeBodyError(w, err)
			return
		}
		resp, err := h.service.BanUser(r.Context(), adminID, req, clientIP(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)

	default:
		writeJSON(w, http.StatusBadRequest, errorResponse("unknown action"))
	}
}
