package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sitecraft/sitecraft-identity/internal/config"
	"github.com/sitecraft/sitecraft-identity/internal/crypto"
	"github.com/sitecraft/sitecraft-identity/internal/handler"
	"github.com/sitecraft/sitecraft-identity/internal/metrics"
	"github.com/sitecraft/sitecraft-identity/internal/repository"
	"github.com/sitecraft/sitecraft-identity/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func setupLogger(cfg config.Config) {
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(ctx, cfg.DatabaseDSN, cfg.DBTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	tokens, err := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	store := repository.NewStore(db)

	bootCtx, cancel := context.WithTimeout(ctx, 2*cfg.DBTimeout)
	created, err := service.NewBootstrapper(store.Users, cfg.Admin).EnsureAdminExists(bootCtx)
	cancel()
	if err != nil {
		return err
	}
	slog.Info("admin bootstrap complete", "created", created)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "sitecraft"),
	)
	m := metrics.New(registry)

	gate := service.NewGate(tokens, store.Users)
	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(service.NewAuthService(store, tokens, m)),
		Admin:          handler.NewAdminHandler(service.NewAdminService(store, m)),
		Gate:           gate,
		Metrics:        m,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
