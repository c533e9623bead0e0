// server is the life manager HTTP API binary. It serves task
// recommendations from PostgreSQL or SQLite with an optional Redis cache.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OscarCarPu/life-manager/internal/api"
	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/di"
	"github.com/OscarCarPu/life-manager/internal/logging"
	"github.com/OscarCarPu/life-manager/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var (
		addr    = flag.String("addr", "", "HTTP listen address (defaults to LIFE_MANAGER_HOST:LIFE_MANAGER_PORT)")
		migrate = flag.Bool("migrate", false, "Apply the database schema before serving")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format, os.Stderr)
	logging.SetDefaultLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *addr, *migrate, logger); err != nil {
		cancel()
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, addr string, migrate bool, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	container, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	defer func() {
		if err := container.Shutdown(); err != nil {
			logger.Error("error during shutdown", "error", err.Error())
		}
	}()

	if migrate {
		if err := storage.Migrate(ctx, container.DB, cfg.Database.Driver); err != nil {
			return err
		}
		logger.Info("database schema applied", "driver", cfg.Database.Driver)
	}

	if container.Warmer != nil {
		if err := container.Warmer.Start(ctx); err != nil {
			return err
		}
	}

	if addr == "" {
		addr = cfg.Server.Addr()
	}
	httpServer := newHTTPServer(cfg, container, addr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("life manager listening", "addr", addr, "version", api.Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx) //nolint:contextcheck // Fresh context needed for shutdown when parent is cancelled
}

// newHTTPServer builds the API server around the container's services
func newHTTPServer(cfg *config.Config, container *di.Container, addr string) *http.Server {
	router := api.NewRouter(cfg, api.Dependencies{
		Recommendations: container.Service,
		Health:          container.HealthDependencies(),
		Logger:          container.Logger.WithComponent("http"),
	})

	return &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
