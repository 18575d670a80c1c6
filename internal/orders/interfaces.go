package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	"github.com/angelmondragon/tna-backend/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateStages(ctx context.Context, orderID uuid.UUID, at time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter Filter, cursor *pagination.Cursor, pageSize int) ([]models.Order, *pagination.Cursor, error)
	ListInScope(ctx context.Context, filter Filter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StageReader loads the stage rows of one order.
type StageReader interface {
	FindForOrder(ctx context.Context, orderID uuid.UUID) (*stages.Set, error)
}

// ShipmentReader loads the shipment tracking of one order.
type ShipmentReader interface {
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.ShipmentTracking, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
