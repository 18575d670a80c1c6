package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/pkg/dates"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	"github.com/angelmondragon/tna-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CreateStages inserts the three empty stage rows of a new order.
func (r *repository) CreateStages(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Create(&models.CadStage{OrderID: orderID, CreatedAt: at, UpdatedAt: at}).Error; err != nil {
		return err
	}
	if err := conn.Create(&models.FabricStage{OrderID: orderID, CreatedAt: at, UpdatedAt: at}).Error; err != nil {
		return err
	}
	return conn.Create(&models.SampleStage{OrderID: orderID, CreatedAt: at, UpdatedAt: at}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter Filter, cursor *pagination.Cursor, pageSize int) ([]models.Order, *pagination.Cursor, error) {
	query := applyFilter(r.db.WithContext(ctx).Model(&models.Order{}), filter)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.FetchSize(pageSize)).Find(&orders).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(orders, pageSize, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

func (r *repository) ListInScope(ctx context.Context, filter Filter) ([]models.Order, error) {
	var orders []models.Order
	err := applyFilter(r.db.WithContext(ctx).Model(&models.Order{}), filter).
		Order("order_date ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the order and its stage and shipment rows. Callers run it
// inside a transaction.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	conn := r.db.WithContext(ctx)
	children := []any{
		&models.CadStage{},
		&models.FabricStage{},
		&models.SampleStage{},
		&models.ShipmentTracking{},
	}
	for _, child := range children {
		if err := conn.Where("order_id = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}
	res := conn.Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func applyFilter(query *gorm.DB, filter Filter) *gorm.DB {
	if filter.OwnerID != nil {
		query = query.Where("created_by = ?", *filter.OwnerID)
	}
	if filter.DateFrom != nil {
		query = query.Where("order_date >= ?", dates.DayFloor(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("order_date < ?", dates.AddDays(dates.DayFloor(*filter.DateTo), 1))
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"(LOWER(style_code) LIKE ? OR LOWER(item_name) LIKE ? OR LOWER(COALESCE(buyer_name, '')) LIKE ?)",
			like, like, like,
		)
	}
	return query
}
