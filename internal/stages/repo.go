package stages

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/pkg/db/models"
)

type gormStore[T any] struct {
	db *gorm.DB
}

func newGormStore[T any](db *gorm.DB) *gormStore[T] {
	return &gormStore[T]{db: db}
}

func (s *gormStore[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var rec T
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *gormStore[T]) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*T, error) {
	var rec T
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *gormStore[T]) ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]T, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []T
	if err := s.db.WithContext(ctx).Where("order_id IN ?", orderIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save writes every column of an existing record keyed by its primary id.
// A row deleted since it was loaded is reported as not found, never recreated.
func (s *gormStore[T]) Save(ctx context.Context, record *T) error {
	res := s.db.WithContext(ctx).Model(record).Select("*").Omit("id", "created_at").Updates(record)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormStore[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Repository groups the per-kind stores.
type Repository struct {
	Cad    Store[models.CadStage]
	Fabric Store[models.FabricStage]
	Sample Store[models.SampleStage]
}

// NewRepository builds gorm-backed stores for every stage kind.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Cad:    newGormStore[models.CadStage](db),
		Fabric: newGormStore[models.FabricStage](db),
		Sample: newGormStore[models.SampleStage](db),
	}
}

// Set holds the three stage rows of one order.
type Set struct {
	Cad    *models.CadStage
	Fabric *models.FabricStage
	Sample *models.SampleStage
}

// Batch holds stage rows for many orders.
type Batch struct {
	Cads    []models.CadStage
	Fabrics []models.FabricStage
	Samples []models.SampleStage
}

// FindForOrder loads the stage rows of one order. A deleted stage is left nil.
func (r *Repository) FindForOrder(ctx context.Context, orderID uuid.UUID) (*Set, error) {
	cad, err := optional(r.Cad.FindByOrderID(ctx, orderID))
	if err != nil {
		return nil, err
	}
	fabric, err := optional(r.Fabric.FindByOrderID(ctx, orderID))
	if err != nil {
		return nil, err
	}
	sample, err := optional(r.Sample.FindByOrderID(ctx, orderID))
	if err != nil {
		return nil, err
	}
	return &Set{Cad: cad, Fabric: fabric, Sample: sample}, nil
}

func optional[T any](rec *T, err error) (*T, error) {
	if err == nil {
		return rec, nil
	}
	if isNotFound(err) {
		return nil, nil
	}
	return nil, err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
