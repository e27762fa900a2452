package models

import (
	"time"
)

// FailedOrder records the most recent failed processing attempt for an order.
// A successful re-sync deletes the row.
type FailedOrder struct {
	ID           uint      `gorm:"primaryKey"`
	OrderID      string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	ErrorMessage *string   `gorm:"type:text"`
	FailedAt     time.Time `gorm:"type:timestamptz;not null"`
	RetryCount   int       `gorm:"not null;default:1"`
}

func (FailedOrder) TableName() string {
	return "failed_orders"
}
