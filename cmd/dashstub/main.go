package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/johnwards/dashgate/internal/api"
	"github.com/johnwards/dashgate/internal/api/admin"
	"github.com/johnwards/dashgate/internal/api/analytics"
	"github.com/johnwards/dashgate/internal/api/approvals"
	"github.com/johnwards/dashgate/internal/api/dashboard"
	"github.com/johnwards/dashgate/internal/api/integrations"
	"github.com/johnwards/dashgate/internal/api/transfer"
	"github.com/johnwards/dashgate/internal/config"
	"github.com/johnwards/dashgate/internal/database"
	"github.com/johnwards/dashgate/internal/seed"
	"github.com/johnwards/dashgate/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	db, err := database.Open(cfg.StubDB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if err := seed.Seed(ctx, db); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	s := store.New(db)

	r := chi.NewRouter()

	// Dashboard API routes
	r.Route("/api/v1", func(v1 chi.Router) {
		admin.RegisterHealth(v1)
		dashboard.RegisterRoutes(v1, s)
		analytics.RegisterRoutes(v1, s)
		integrations.RegisterRoutes(v1, s)
		approvals.RegisterRoutes(v1, s)
		transfer.RegisterRoutes(v1, s)
	})

	// Admin API
	admin.RegisterRoutes(r, s.DB)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.NotFound(w, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed",
			fmt.Sprintf("%s not allowed on %s", r.Method, r.URL.Path))
	})

	handler := api.Chain(r,
		api.Recovery(),
		api.RequestIDs(),
		api.Tenant("/api/", admin.HealthPath),
		api.JSONContentType(),
		api.Logging(),
	)

	srv := &http.Server{
		Addr:              cfg.StubAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("shutting down server")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting dashstub server", "addr", cfg.StubAddr, "db", cfg.StubDB)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}
