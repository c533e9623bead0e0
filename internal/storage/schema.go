package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/OscarCarPu/life-manager/internal/config"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS project (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(100) NOT NULL UNIQUE,
		description TEXT,
		state       VARCHAR(50) NOT NULL DEFAULT 'not_started',
		priority    INTEGER,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS task (
		id          BIGSERIAL PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		description TEXT,
		due_date    DATE,
		priority    INTEGER,
		state       VARCHAR(50) NOT NULL DEFAULT 'pending',
		project_id  BIGINT REFERENCES project(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS task_planning (
		id           BIGSERIAL PRIMARY KEY,
		task_id      BIGINT NOT NULL REFERENCES task(id) ON DELETE CASCADE,
		planned_date DATE NOT NULL,
		start_hour   TIME,
		end_hour     TIME,
		priority     INTEGER,
		done         BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_project_state ON project(state)`,
	`CREATE INDEX IF NOT EXISTS idx_task_project_state ON task(project_id, state)`,
	`CREATE INDEX IF NOT EXISTS idx_task_planning_task_date ON task_planning(task_id, planned_date)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS project (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		description TEXT,
		state       TEXT NOT NULL DEFAULT 'not_started',
		priority    INTEGER,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS task (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL,
		description TEXT,
		due_date    DATE,
		priority    INTEGER,
		state       TEXT NOT NULL DEFAULT 'pending',
		project_id  INTEGER REFERENCES project(id) ON DELETE CASCADE,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS task_planning (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id      INTEGER NOT NULL REFERENCES task(id) ON DELETE CASCADE,
		planned_date DATE NOT NULL,
		start_hour   TEXT,
		end_hour     TEXT,
		priority     INTEGER,
		done         BOOLEAN NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_project_state ON project(state)`,
	`CREATE INDEX IF NOT EXISTS idx_task_project_state ON task(project_id, state)`,
	`CREATE INDEX IF NOT EXISTS idx_task_planning_task_date ON task_planning(task_id, planned_date)`,
}

// Schema returns the DDL statements for a driver
func Schema(driver string) ([]string, error) {
	switch driver {
	case config.DriverPostgres:
		return postgresSchema, nil
	case config.DriverSQLite:
		return sqliteSchema, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// Migrate creates the tables the recommendation engine reads from. It is
// idempotent.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	statements, err := Schema(driver)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer func() {
		// Rollback after a successful commit is a no-op
		_ = tx.Rollback()
	}()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
