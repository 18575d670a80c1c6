package shipments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/pkg/db/models"
)

// Repository persists shipment tracking records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.ShipmentTracking, error)
	ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]models.ShipmentTracking, error)
	Create(ctx context.Context, shipment *models.ShipmentTracking) error
	Update(ctx context.Context, shipment *models.ShipmentTracking) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.ShipmentTracking, error) {
	var shipment models.ShipmentTracking
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]models.ShipmentTracking, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []models.ShipmentTracking
	if err := r.db.WithContext(ctx).Where("order_id IN ?", orderIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Create(ctx context.Context, shipment *models.ShipmentTracking) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *repository) Update(ctx context.Context, shipment *models.ShipmentTracking) error {
	return r.db.WithContext(ctx).
		Model(&models.ShipmentTracking{}).
		Where("id = ?", shipment.ID).
		Updates(map[string]any{
			"tracking_number": shipment.TrackingNumber,
			"ship_date":       shipment.ShipDate,
			"is_complete":     shipment.IsComplete,
			"updated_at":      shipment.UpdatedAt,
		}).Error
}
