package model

import "time"

// StorageEntry is one durable key/value pair owned by a user. It stands in for
// the browser's local storage.
type StorageEntry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	OwnerID   uint      `gorm:"not null;uniqueIndex:idx_owner_key" json:"owner_id"`
	Key       string    `gorm:"size:64;not null;uniqueIndex:idx_owner_key" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
