package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDB opens a migrated in-memory sqlite database that is closed with the test
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db), "Failed to run migrations on test database")

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SetupTestStore wraps SetupTestDB in a Store without a cache
func SetupTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(SetupTestDB(t), nil, zap.NewNop())
}
