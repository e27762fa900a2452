package db

import (
	"github.com/dmayman/shopify-notion-sync/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.SyncState{},
		&models.SyncedOrder{},
		&models.FailedOrder{},
	)
}
