package di

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/storage"
)

func sqliteConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = ":memory:"
	cfg.Database.ConnectRetries = 1
	cfg.Database.MaxOpenConns = 1
	return cfg
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open(config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Ping(); err != nil {
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	require.NoError(t, storage.Migrate(context.Background(), db, config.DriverSQLite))
	return db
}

func TestNewContainerWithDB(t *testing.T) {
	db := openSQLite(t)
	cfg := sqliteConfig()
	cfg.Recommendation.Timezone = "Europe/Madrid"
	cfg.Recommendation.DefaultLimit = 3

	c, err := NewContainerWithDB(cfg, db, nil)
	require.NoError(t, err)

	assert.NotNil(t, c.Service)
	assert.NotNil(t, c.Engine)
	assert.Nil(t, c.Cache)
	assert.Nil(t, c.Warmer)
	assert.Equal(t, 3, c.Service.Config().DefaultLimit)
	assert.Equal(t, "Europe/Madrid", c.Service.Config().Location.String())

	deps := c.HealthDependencies()
	require.Len(t, deps, 1)
	assert.Equal(t, "database", deps[0].Name)
	assert.True(t, deps[0].Critical)

	require.NoError(t, c.HealthCheck(context.Background()))

	recs, err := c.Service.Recommend(context.Background(), time.Now(), 0, false)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestNewContainerWithDB_WarmerNeedsCache(t *testing.T) {
	db := openSQLite(t)
	cfg := sqliteConfig()
	cfg.Scheduler.Enabled = true

	c, err := NewContainerWithDB(cfg, db, nil)
	require.NoError(t, err)
	assert.Nil(t, c.Warmer)
}

func TestNewContainer_OpensSQLite(t *testing.T) {
	openSQLite(t) // skips when the driver is unavailable

	c, err := NewContainer(context.Background(), sqliteConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, c.DB)
	require.NoError(t, c.Shutdown())
}

func TestNewContainer_RejectsUnknownDriver(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Database.Driver = "oracle"

	_, err := NewContainer(context.Background(), cfg, nil)
	assert.Error(t, err)
}
