package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/pkg/enums"
)

// Order is the root TNA record for one style moving through production.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	StyleCode         string            `gorm:"column:style_code;not null;uniqueIndex:idx_orders_owner_style_cycle,priority:2"`
	ItemName          string            `gorm:"column:item_name;not null"`
	BuyerName         *string           `gorm:"column:buyer_name"`
	SampleSendingDate time.Time         `gorm:"column:sample_sending_date;not null"`
	OrderDate         time.Time         `gorm:"column:order_date;not null;uniqueIndex:idx_orders_owner_style_cycle,priority:3"`
	Status            enums.OrderStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedBy         uuid.UUID         `gorm:"column:created_by;type:uuid;not null;uniqueIndex:idx_orders_owner_style_cycle,priority:1"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusActive
	}
	return nil
}
