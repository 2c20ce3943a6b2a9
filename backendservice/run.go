// Package backendservice boots the stanza backend HTTP service.
package backendservice

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanza-hq/stanza-backend/internal/api"
	"github.com/stanza-hq/stanza-backend/internal/auth"
	"github.com/stanza-hq/stanza-backend/internal/config"
	"github.com/stanza-hq/stanza-backend/internal/entity"
	"github.com/stanza-hq/stanza-backend/internal/health"
	"github.com/stanza-hq/stanza-backend/internal/model"
	"github.com/stanza-hq/stanza-backend/internal/platform/logger"
	"github.com/stanza-hq/stanza-backend/internal/resource"
	"github.com/stanza-hq/stanza-backend/internal/store"
)

// Run starts the backend HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("stanza-backend")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Backend service starting")

	ctx, stop := newServerContext()
	defer stop()

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Database unavailable")
		return err
	}
	defer func() { _ = db.Close() }()

	reg := entity.NewRegistry()
	if err := resource.RegisterTypes(reg); err != nil {
		log.Error().Err(err).Msg("Entity registration failed")
		return err
	}

	// sqlite targets bootstrap their own schema; postgres schemas are
	// managed externally
	if cfg.DBDriver == "sqlite" {
		if err := db.CreateTables(ctx, reg); err != nil {
			log.Error().Err(err).Msg("Schema bootstrap failed")
			return err
		}
	}

	dbChecker := startHealthChecker(ctx, cfg, log, db)

	router, err := buildRouter(db, reg, cfg, log, dbChecker.IsHealthy)
	if err != nil {
		log.Error().Err(err).Msg("Router construction failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

func openDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store.DB, error) {
	var (
		sqlDB   *sql.DB
		dialect store.Dialect
		err     error
	)
	switch cfg.DBDriver {
	case "postgres":
		sqlDB, err = store.OpenPostgres(cfg.PostgresDSN)
		dialect = store.Postgres
	case "sqlite":
		sqlDB, err = store.OpenSQLite(cfg.SQLitePath)
		dialect = store.SQLite
	default:
		return nil, fmt.Errorf("unsupported DB driver: %s", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}
	return store.New(sqlDB, dialect, log), nil
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(db *store.DB, reg *entity.Registry, cfg *config.Config, log zerolog.Logger, healthy func() bool) (*mux.Router, error) {
	root := api.NewRouter(log)
	root.Use(auth.Middleware(cfg.AuthSecret, log))

	if err := mountResource[model.Company](root, db, reg, log); err != nil {
		return nil, err
	}
	if err := mountResource[model.Culture](root, db, reg, log); err != nil {
		return nil, err
	}
	if err := mountResource[model.Resource](root, db, reg, log); err != nil {
		return nil, err
	}
	if err := mountResource[model.User](root, db, reg, log); err != nil {
		return nil, err
	}
	if err := mountResource[model.ResourceCulture](root, db, reg, log); err != nil {
		return nil, err
	}

	healthHandler := api.NewHealthHandler(healthy)
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	return root, nil
}

func mountResource[T any](root *mux.Router, db *store.DB, reg *entity.Registry, log zerolog.Logger) error {
	svc, err := resource.NewService[T](db, reg, log)
	if err != nil {
		return err
	}
	api.Mount(root, svc, log)
	return nil
}

func startHealthChecker(ctx context.Context, cfg *config.Config, log zerolog.Logger, db *store.DB) *health.Checker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second
	checker := health.NewChecker("database", db.Ping, log, probeTimeout)
	go checker.Start(ctx, interval)
	return checker
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
