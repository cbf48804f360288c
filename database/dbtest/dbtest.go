package dbtest

import (
	"testing"

	"github.com/lshigami/mocktest/config"
	"github.com/lshigami/mocktest/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New opens a migrated in-memory sqlite database that lives for the duration of t.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.Database{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
