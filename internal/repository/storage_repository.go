package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"healthhub/internal/model"
)

// Durable keys, one row per user and key.
const (
	KeyHealthSessionID       = "health_session_id"
	KeyProfileCache          = "profile_cache"
	KeyProfileCacheFetchedAt = "profile_cache_fetched_at"
	KeyProfileCompleted      = "profile_completed"
	KeyOnboardingDraft       = "onboarding_draft"
)

type StorageRepository struct {
	db *gorm.DB
}

func NewStorageRepository(db *gorm.DB) *StorageRepository {
	return &StorageRepository{db: db}
}

func (r *StorageRepository) Get(ctx context.Context, ownerID uint, key string) (string, bool, error) {
	var entry model.StorageEntry
	err := r.db.WithContext(ctx).Where("owner_id = ? AND `key` = ?", ownerID, key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get storage entry %s failed: %w", key, err)
	}
	return entry.Value, true, nil
}

func (r *StorageRepository) Set(ctx context.Context, ownerID uint, key, value string) error {
	entry := model.StorageEntry{
		OwnerID:   ownerID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("set storage entry %s failed: %w", key, err)
	}
	return nil
}

// Delete is idempotent: removing a missing key is not an error.
func (r *StorageRepository) Delete(ctx context.Context, ownerID uint, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Where("owner_id = ? AND `key` IN ?", ownerID, keys).Delete(&model.StorageEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete storage entries failed: %w", err)
	}
	return nil
}
