package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sitecraft/sitecraft-identity/internal/metrics"
	"github.com/sitecraft/sitecraft-identity/internal/middleware"
)

// Gate is the token check used by the protected routes.
type Gate interface {
	middleware.Authenticator
	middleware.AdminAuthorizer
}

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Auth           *AuthHandler
	Admin          *AdminHandler
	Gate           Gate
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth", cfg.Auth.HandlePost)
		r.With(middleware.TokenAuth(cfg.Gate)).Get("/auth", cfg.Auth.HandleMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminOnly(cfg.Gate))
			r.Get("/admin", cfg.Admin.HandleQuery)
			r.Post("/admin", cfg.Admin.HandleCommand)
		})
	})

	return r
}
