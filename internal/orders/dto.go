package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/internal/status"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
)

// CreateInput carries the fields required to open an order.
type CreateInput struct {
	OwnerID           uuid.UUID
	StyleCode         string
	ItemName          string
	BuyerName         *string
	SampleSendingDate time.Time
	OrderDate         time.Time
}

// Filter scopes listings and dashboards. Zero values disable a clause.
type Filter struct {
	OwnerID  *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Query    string
}

// OrderView is the API projection of an order.
type OrderView struct {
	ID                uuid.UUID         `json:"id"`
	StyleCode         string            `json:"style_code"`
	ItemName          string            `json:"item_name"`
	BuyerName         *string           `json:"buyer_name,omitempty"`
	SampleSendingDate time.Time         `json:"sample_sending_date"`
	OrderDate         time.Time         `json:"order_date"`
	Status            enums.OrderStatus `json:"status"`
	CreatedBy         uuid.UUID         `json:"created_by"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ShipmentView is the API projection of shipment tracking.
type ShipmentView struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
	ShipDate       time.Time `json:"ship_date"`
	IsComplete     bool      `json:"is_complete"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Detail bundles an order with its stages, shipment and derived badges.
type Detail struct {
	Order             OrderView         `json:"order"`
	Stages            []stages.View     `json:"stages"`
	Shipment          *ShipmentView     `json:"shipment"`
	LeadTime          status.Status     `json:"lead_time"`
	CanCreateShipment bool              `json:"can_create_shipment"`
	MissingStages     []enums.StageKind `json:"missing_stages,omitempty"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// NewOrderView projects a stored order.
func NewOrderView(order models.Order) OrderView {
	return OrderView{
		ID:                order.ID,
		StyleCode:         order.StyleCode,
		ItemName:          order.ItemName,
		BuyerName:         order.BuyerName,
		SampleSendingDate: order.SampleSendingDate,
		OrderDate:         order.OrderDate,
		Status:            order.Status,
		CreatedBy:         order.CreatedBy,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

// NewShipmentView projects shipment tracking; nil stays nil.
func NewShipmentView(shipment *models.ShipmentTracking) *ShipmentView {
	if shipment == nil {
		return nil
	}
	return &ShipmentView{
		ID:             shipment.ID,
		OrderID:        shipment.OrderID,
		TrackingNumber: shipment.TrackingNumber,
		ShipDate:       shipment.ShipDate,
		IsComplete:     shipment.IsComplete,
		UpdatedAt:      shipment.UpdatedAt,
	}
}
