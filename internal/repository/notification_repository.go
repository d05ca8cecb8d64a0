package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"healthhub/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create ignores a notification whose id is already stored, so redelivered
// queue messages are harmless.
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(n).Error; err != nil {
		return fmt.Errorf("create notification failed: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListUnread(ctx context.Context, userID uint, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var list []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND `read` = ?", userID, false).
		Order("created_at ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications failed: %w", err)
	}
	return list, nil
}

// MarkRead reports whether a notification owned by userID was updated.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID uint, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark notification read failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
