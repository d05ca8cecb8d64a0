package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthhub/internal/model"
	"healthhub/internal/platform/database"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func TestStorageRepositorySetGetDelete(t *testing.T) {
	repo := NewStorageRepository(createDB(t))
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, 1, KeyHealthSessionID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, 1, KeyHealthSessionID, "sess-1"))
	require.NoError(t, repo.Set(ctx, 1, KeyHealthSessionID, "sess-2"))
	require.NoError(t, repo.Set(ctx, 2, KeyHealthSessionID, "other"))

	value, ok, err := repo.Get(ctx, 1, KeyHealthSessionID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sess-2", value)

	require.NoError(t, repo.Delete(ctx, 1, KeyHealthSessionID, KeyProfileCache))
	require.NoError(t, repo.Delete(ctx, 1, KeyHealthSessionID))

	_, ok, err = repo.Get(ctx, 1, KeyHealthSessionID)
	require.NoError(t, err)
	assert.False(t, ok)

	value, ok, err = repo.Get(ctx, 2, KeyHealthSessionID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "other", value)
}

func TestNotificationRepositoryUnreadAndMarkRead(t *testing.T) {
	repo := NewNotificationRepository(createDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n1", UserID: 7, Level: model.NotificationError, Kind: model.KindNetwork, Message: "first", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n2", UserID: 7, Level: model.NotificationInfo, Kind: model.KindSession, Message: "second", CreatedAt: now.Add(time.Second)}))
	require.NoError(t, repo.Create(ctx, &model.Notification{ID: "n3", UserID: 8, Level: model.NotificationInfo, Kind: model.KindSession, Message: "other user", CreatedAt: now}))

	list, err := repo.ListUnread(ctx, 7, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Message)

	updated, err := repo.MarkRead(ctx, 7, "n1")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.MarkRead(ctx, 7, "n3")
	require.NoError(t, err)
	assert.False(t, updated)

	list, err = repo.ListUnread(ctx, 7, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n2", list[0].ID)
}
