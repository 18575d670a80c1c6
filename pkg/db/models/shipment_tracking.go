package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShipmentTracking is the carrier record for an order, created on demand once
// every stage is complete.
type ShipmentTracking struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	TrackingNumber string    `gorm:"column:tracking_number;not null"`
	ShipDate       time.Time `gorm:"column:ship_date;not null"`
	IsComplete     bool      `gorm:"column:is_complete;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ShipmentTracking) TableName() string { return "shipment_tracking" }

func (s *ShipmentTracking) BeforeCreate(*gorm.DB) error {
	s.ID = ensureID(s.ID)
	return nil
}
