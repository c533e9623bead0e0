package main

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/logging"
)

func TestPrintSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSchema(&buf, config.DriverPostgres))

	out := buf.String()
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS project")
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS task_planning")
	assert.Contains(t, out, "BIGSERIAL")
	assert.True(t, strings.HasSuffix(out, ";\n\n"))

	assert.Error(t, printSchema(&buf, "oracle"))
}

func TestApply(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.Driver = config.DriverSQLite
	cfg.Path = filepath.Join(t.TempDir(), "life.db")
	cfg.ConnectRetries = 1

	probe, err := sql.Open(config.DriverSQLite, cfg.Path)
	require.NoError(t, err)
	if err := probe.Ping(); err != nil {
		_ = probe.Close()
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	_ = probe.Close()

	logger := logging.NewNoOpLogger()
	require.NoError(t, apply(context.Background(), cfg, logger))
	// Second run is a no-op
	require.NoError(t, apply(context.Background(), cfg, logger))

	db, err := sql.Open(config.DriverSQLite, cfg.Path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('project', 'task', 'task_planning')`).Scan(&count))
	assert.Equal(t, 3, count)
}
