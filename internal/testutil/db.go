// Package testutil provides a migrated in-memory database and fixtures for tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kitchen-service/internal/model"
	"kitchen-service/pkg/database"
)

// NewDB opens a migrated in-memory SQLite database. It uses a single
// connection, so concurrent transactions run one after another.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.MigrateModels(db, model.AllModels()...))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
