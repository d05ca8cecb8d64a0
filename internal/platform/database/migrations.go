package database

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"healthhub/internal/model"
)

// Migrate brings the schema to the latest version. A clean database is
// initialized in one step instead of replaying every migration.
func Migrate(db *gorm.DB) error {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "0001_client_storage",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.StorageEntry{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&model.StorageEntry{})
			},
		},
		{
			ID: "0002_notifications",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.Notification{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&model.Notification{})
			},
		},
	})

	migrator.InitSchema(func(tx *gorm.DB) error {
		return tx.AutoMigrate(&model.StorageEntry{}, &model.Notification{})
	})
	return migrator.Migrate()
}
