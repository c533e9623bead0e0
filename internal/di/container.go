// Package di provides dependency injection container for the application
package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OscarCarPu/life-manager/internal/api/handlers"
	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/logging"
	"github.com/OscarCarPu/life-manager/internal/scheduler"
	"github.com/OscarCarPu/life-manager/internal/storage"
	"github.com/OscarCarPu/life-manager/internal/tasks"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     logging.Logger
	DB         *sql.DB
	Repository *storage.SQLRepository
	Cache      *storage.RedisCache
	Engine     *tasks.Engine
	Service    *tasks.Service
	Warmer     *scheduler.Warmer
}

// NewContainer opens storage and builds the recommendation service
func NewContainer(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Initialize in dependency order
	if err := c.initializeStorage(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := c.initializeServices(); err != nil {
		_ = c.Shutdown()
		return nil, err
	}

	return c, nil
}

// NewContainerWithDB builds the container on an already opened database
func NewContainerWithDB(cfg *config.Config, db *sql.DB, logger logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	c := &Container{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Repository: storage.NewSQLRepository(db, cfg.Database.Driver),
	}
	if err := c.initializeServices(); err != nil {
		return nil, err
	}
	return c, nil
}

// initializeStorage sets up the database and optional cache
func (c *Container) initializeStorage(ctx context.Context) error {
	db, err := storage.Open(ctx, c.Config.Database, c.Logger.WithComponent("storage"))
	if err != nil {
		return err
	}
	c.DB = db
	c.Repository = storage.NewSQLRepository(db, c.Config.Database.Driver)

	if c.Config.Redis.Enabled {
		cache, err := storage.NewRedisCache(ctx, c.Config.Redis, c.Logger.WithComponent("cache"))
		if err != nil {
			// The service works without a cache
			c.Logger.Warn("recommendation cache disabled", "error", err.Error())
		} else {
			c.Cache = cache
		}
	}

	return nil
}

// initializeServices wires the engine, the service and the warmer
func (c *Container) initializeServices() error {
	recCfg := c.Config.Recommendation
	loc, err := recCfg.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", recCfg.Timezone, err)
	}

	c.Engine = tasks.NewEngine(recCfg.Weights, c.Logger)

	opts := []tasks.ServiceOption{tasks.WithLogger(c.Logger)}
	if c.Cache != nil {
		opts = append(opts, tasks.WithCache(c.Cache))
	}
	c.Service = tasks.NewService(c.Repository, c.Engine, tasks.ServiceConfig{
		DefaultLimit: recCfg.DefaultLimit,
		Location:     loc,
	}, opts...)

	if c.Config.Scheduler.Enabled {
		if c.Cache == nil {
			c.Logger.Warn("cache warmer enabled without a cache, skipping")
			return nil
		}
		warmer, err := scheduler.NewWarmer(c.Service, c.Config.Scheduler.Spec, loc, c.Logger)
		if err != nil {
			return err
		}
		c.Warmer = warmer
	}

	return nil
}

// HealthDependencies returns the checks exposed by the health endpoints
func (c *Container) HealthDependencies() []handlers.Dependency {
	deps := []handlers.Dependency{
		{Name: "database", Pinger: c.Repository, Critical: true},
	}
	if c.Cache != nil {
		deps = append(deps, handlers.Dependency{Name: "cache", Pinger: c.Cache})
	}
	return deps
}

// HealthCheck performs health checks on all services
func (c *Container) HealthCheck(ctx context.Context) error {
	if err := c.Repository.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if c.Cache != nil {
		if err := c.Cache.Ping(ctx); err != nil {
			return fmt.Errorf("cache health check failed: %w", err)
		}
	}
	return nil
}

// Shutdown gracefully shuts down all services
func (c *Container) Shutdown() error {
	if c.Warmer != nil {
		c.Warmer.Stop()
	}

	var errs []error
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
