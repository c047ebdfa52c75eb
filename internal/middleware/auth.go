package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sitecraft/sitecraft-identity/internal/crypto"
	"github.com/sitecraft/sitecraft-identity/internal/service"
)

// TokenHeader carries the bearer token on authenticated requests.
const TokenHeader = "X-Auth-Token"

type contextKey string

const (
	claimsKey  contextKey = "claims"
	tokenKey   contextKey = "token"
	adminIDKey contextKey = "adminID"
)

// Authenticator resolves a token to its claims.
type Authenticator interface {
	Authenticate(token string) (*crypto.Claims, error)
}

// AdminAuthorizer resolves a token to the id of a current administrator.
type AdminAuthorizer interface {
	AuthorizeAdmin(ctx context.Context, token string) (int64, error)
}

// TokenAuth returns middleware that requires a valid token in the
// X-Auth-Token header.
func TokenAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)

			claims, err := auth.Authenticate(token)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly returns middleware that requires the token holder to be an
// administrator at the time of the request.
func AdminOnly(auth AdminAuthorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			adminID, err := auth.AuthorizeAdmin(r.Context(), r.Header.Get(TokenHeader))
			if err != nil {
				writeAuthError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts the verified token claims from the request context.
func ClaimsFromContext(ctx context.Context) (*crypto.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*crypto.Claims)
	return claims, ok
}

// TokenFromContext extracts the raw verified token from the request context.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}

// AdminIDFromContext extracts the authorized administrator's user ID.
func AdminIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(adminIDKey).(int64)
	return id, ok
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMissingToken), errors.Is(err, service.ErrInvalidToken):
		writeJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, err.Error())
	default:
		slog.Error("authorization check failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
