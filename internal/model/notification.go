package model

import "time"

const (
	NotificationError = "error"
	NotificationInfo  = "info"
)

const (
	KindNetwork    = "network"
	KindSession    = "session"
	KindValidation = "validation"
	KindParse      = "parse"
	KindCommunity  = "community"
)

type Notification struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Level     string    `gorm:"size:16;not null" json:"level"`
	Kind      string    `gorm:"size:16;not null" json:"kind"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
