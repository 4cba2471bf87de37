// Package server provides the main server initialization and run logic.
package server

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

	"github.com/clubhouse-dev/clubhouse/internal/api"
	"github.com/clubhouse-dev/clubhouse/internal/api/handlers"
	"github.com/clubhouse-dev/clubhouse/internal/config"
	"github.com/clubhouse-dev/clubhouse/internal/db"
	"github.com/clubhouse-dev/clubhouse/internal/logger"
	"github.com/clubhouse-dev/clubhouse/internal/metrics"
	"github.com/clubhouse-dev/clubhouse/internal/notify"
	"github.com/clubhouse-dev/clubhouse/internal/rbac"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const metricsRefreshInterval = 30 * time.Second

// Config holds the server configuration options.
type Config struct {
	Port      int    // Port to run the server on (0 = use config default)
	RolesFile string // Seed file override (empty = use config)
	Version   string // Version string to report
}

// Run starts the server with the given configuration and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	// Set version in handlers
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	// Load configuration
	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override from CLI flags if provided
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}
	if cfg.RolesFile != "" {
		appCfg.Seed.RolesFile = cfg.RolesFile
	}

	// Initialize logger
	logger.Init(appCfg.Log.Format, appCfg.Log.Level)
	slog.Info("Starting Clubhouse server", "version", cfg.Version, "mode", appCfg.Server.Mode)

	// Propagate app log level to database if not explicitly set
	if appCfg.Database.LogLevel == "" {
		appCfg.Database.LogLevel = appCfg.Log.Level
	}

	database, err := db.New(appCfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Database initialized", "driver", appCfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")

	if err := seed(database, appCfg.Seed.RolesFile); err != nil {
		return err
	}

	// Create default admin user if configured
	if err := db.CreateDefaultAdmin(database); err != nil {
		return fmt.Errorf("failed to create default admin user: %w", err)
	}

	policy, err := rbac.InitEnforcer(database, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	notifier, err := createNotifier(appCfg.Notify)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}
	defer notifier.Close()
	slog.Info("Notifier initialized", "type", appCfg.Notify.Type)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	router := api.NewRouter(appCfg, api.Deps{
		DB:       database,
		Policy:   policy,
		Notifier: notifier,
		Metrics:  m,
	})

	addr := fmt.Sprintf(":%d", appCfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		m.RunRefresher(gctx, database, metricsRefreshInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("Server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Clubhouse exited")
	return nil
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg)
	}()

	// Wait for signal or error
	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig)
		cancel()
		// Wait for server to finish
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// seed applies the roles file, if one is configured, to an empty role table.
func seed(database *gorm.DB, rolesFile string) error {
	if rolesFile == "" {
		return nil
	}
	rf, err := db.LoadRolesFile(rolesFile)
	if err != nil {
		return fmt.Errorf("failed to load roles file: %w", err)
	}
	if err := db.SeedRoles(database, rf); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	return nil
}

// createNotifier creates a publisher based on configuration.
func createNotifier(cfg config.NotifyConfig) (notify.Publisher, error) {
	switch cfg.Type {
	case "memory":
		return notify.NewMemoryPublisher(100), nil
	case "valkey":
		if cfg.ValkeyAddr == "" {
			return nil, fmt.Errorf("valkey address is required when notify type is valkey")
		}
		return notify.NewValkeyPublisher(cfg.ValkeyAddr, cfg.Channel)
	default:
		return nil, fmt.Errorf("unsupported notify type: %s (supported: memory, valkey)", cfg.Type)
	}
}
