package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncedOrder maps one Shopify order to the Notion pages created for it,
// parent page first. Re-syncing an order replaces the whole list.
type SyncedOrder struct {
	ID              uint           `gorm:"primaryKey"`
	OrderID         string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	NotionPageIDs   datatypes.JSON `gorm:"type:jsonb;not null"`
	SourceUpdatedAt *time.Time     `gorm:"type:timestamptz"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (SyncedOrder) TableName() string {
	return "synced_orders"
}
