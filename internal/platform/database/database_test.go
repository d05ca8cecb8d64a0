package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthhub/internal/model"
)

func TestNewSQLiteAndMigrate(t *testing.T) {
	db, err := New(context.Background(), "sqlite", "file::memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	// A second run finds every migration applied.
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&model.StorageEntry{}))
	assert.True(t, db.Migrator().HasTable(&model.Notification{}))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), "postgres", "")
	assert.Error(t, err)
}
