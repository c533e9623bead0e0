// Package storage provides relational persistence for projects, tasks and
// plannings, plus the Redis-backed recommendation cache.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/logging"
	"github.com/OscarCarPu/life-manager/internal/retry"
)

// Open opens and pings the configured database, retrying the ping with
// exponential backoff.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	retryCfg := retry.ExponentialBackoff(cfg.ConnectRetries)
	retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("database not reachable, retrying",
			"driver", cfg.Driver,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err.Error())
	}

	result := retry.New(retryCfg).Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if result.Err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database after %d attempts: %w", result.Attempts, result.Err)
	}

	logger.Info("database connection established", "driver", cfg.Driver, "attempts", result.Attempts)
	return db, nil
}
