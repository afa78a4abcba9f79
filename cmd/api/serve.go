package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/tripdesk/backend/api"
	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/blob"
	"github.com/tripdesk/backend/internal/catalog"
	"github.com/tripdesk/backend/internal/config"
	"github.com/tripdesk/backend/internal/handler"
	"github.com/tripdesk/backend/internal/metrics"
	"github.com/tripdesk/backend/internal/middleware"
	"github.com/tripdesk/backend/internal/realtime"
	"github.com/tripdesk/backend/internal/repo"
	"github.com/tripdesk/backend/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish on SIGTERM.
const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, newLogger(cfg.LogLevel))
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the ping does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("database connection established")

	// --- Static configuration and file storage ----------------------------
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}
	store, err := blob.NewStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	// --- Realtime ---------------------------------------------------------
	var broker realtime.Broker
	if cfg.NATSURL != "" {
		nb, err := realtime.DialNATS(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		broker = nb
		slog.Info("realtime broker: nats", "url", cfg.NATSURL)
	} else {
		broker = realtime.NewMemory()
		slog.Info("realtime broker: in-process")
	}

	// --- Services ---------------------------------------------------------
	m := metrics.New()
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	trips := repo.NewTripRepo(pool)
	users := repo.NewUserRepo(pool)
	profiles := repo.NewProfileRepo(pool)

	notifications := service.NewNotificationService(repo.NewNotificationRepo(pool), broker).WithRecorder(m)
	tripSvc := service.NewTripService(trips, profiles, cat, notifications, cfg.Location).WithRecorder(m)
	srv := handler.NewServer(handler.Services{
		Trips:         tripSvc,
		Timeline:      service.NewTimelineService(tripSvc),
		Notifications: notifications,
		Profiles:      service.NewProfileService(users, profiles, notifications),
		Auth:          service.NewAuthService(users, profiles, issuer),
		Contact:       service.NewContactService(repo.NewContactRepo(pool), profiles, notifications),
		Export:        service.NewExportService(trips, profiles),
		Uploads:       store,
		Catalog:       cat,
	})

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout does not apply to the notification stream, which clears
	// its own deadline.
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, logger, srv, issuer, m, store),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		_ = broker.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Closing the broker first ends open notification streams so Shutdown
	// does not wait on them.
	if err := broker.Close(); err != nil {
		slog.Warn("close broker", "error", err)
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newRouter builds the full middleware chain around the API routes.
// Middleware is applied in order: RequestID, RealIP, SlogLogger, Recoverer,
// CORS, MaxBodySize.
func newRouter(cfg config.Config, logger *slog.Logger, srv *handler.Server, v auth.Verifier, m *metrics.Metrics, store *blob.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	r.Handle("/metrics", m.Handler())
	r.Handle("/files/*", store.Handler())

	srv.Routes(r, v)
	return r
}
