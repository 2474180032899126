package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load("kitchen-service")
		require.NoError(t, err)

		assert.Equal(t, "kitchen-service", cfg.DB.DBName)
		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, 4, cfg.Inventory.ImportWorkers)
		assert.Equal(t, int64(10), cfg.Inventory.DefaultMinStockLevel)
		assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
		assert.False(t, cfg.Redis.Enabled())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_LOG_LEVEL", "silent")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("REDIS_CACHE_TTL", "30s")
		t.Setenv("IMPORT_WORKERS", "8")

		cfg, err := Load("kitchen-service")
		require.NoError(t, err)

		assert.Equal(t, "db.internal", cfg.DB.Host)
		assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
		assert.Equal(t, 8, cfg.Inventory.ImportWorkers)
	})

	t.Run("invalid numbers fall back", func(t *testing.T) {
		t.Setenv("IMPORT_WORKERS", "lots")
		t.Setenv("DB_CONN_MAX_LIFETIME", "forever")

		cfg, err := Load("kitchen-service")
		require.NoError(t, err)

		assert.Equal(t, 4, cfg.Inventory.ImportWorkers)
		assert.Equal(t, time.Hour, cfg.DB.ConnMaxLifetime)
	})

	t.Run("worker count clamps to one", func(t *testing.T) {
		t.Setenv("IMPORT_WORKERS", "0")

		cfg, err := Load("kitchen-service")
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Inventory.ImportWorkers)
	})

	t.Run("production requires a signing key", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")

		_, err := Load("kitchen-service")
		require.Error(t, err)

		t.Setenv("JWT_SIGNING_KEY", "a-real-key")
		cfg, err := Load("kitchen-service")
		require.NoError(t, err)
		assert.Equal(t, "a-real-key", cfg.JWT.SigningKey)
	})
}

func TestDBConfig_GetDSN(t *testing.T) {
	c := DBConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", c.GetDSN())
}
