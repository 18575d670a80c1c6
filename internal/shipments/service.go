package shipments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/pkg/clock"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderReader loads the root order.
type OrderReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// StageReader loads the stage rows of one order.
type StageReader interface {
	FindForOrder(ctx context.Context, orderID uuid.UUID) (*stages.Set, error)
}

// CacheInvalidator is told about every committed write that changes
// dashboard inputs.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service manages the per-order shipment tracking record.
type Service interface {
	CreateOrUpdate(ctx context.Context, input UpsertInput) (*models.ShipmentTracking, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.ShipmentTracking, error)
}

// UpsertInput carries a create-or-update request for one order.
type UpsertInput struct {
	OrderID        uuid.UUID
	TrackingNumber string
	ShipDate       time.Time
	IsComplete     bool
}

// ServiceParams bundles the shipment service dependencies.
type ServiceParams struct {
	Repo        Repository
	Orders      OrderReader
	Stages      StageReader
	Tx          txRunner
	Clock       clock.Clock
	Logger      *logger.Logger
	EnforceGate bool
	Invalidator CacheInvalidator
}

type service struct {
	repo        Repository
	orders      OrderReader
	stages      StageReader
	tx          txRunner
	clock       clock.Clock
	logg        *logger.Logger
	enforceGate bool
	invalidator CacheInvalidator
}

// NewService builds the shipment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("shipment repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.Stages == nil {
		return nil, fmt.Errorf("stage reader required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        params.Repo,
		orders:      params.Orders,
		stages:      params.Stages,
		tx:          params.Tx,
		clock:       clock.OrReal(params.Clock),
		logg:        params.Logger,
		enforceGate: params.EnforceGate,
		invalidator: params.Invalidator,
	}, nil
}

// CreateOrUpdate looks the record up by order id and updates it in place,
// inserting only when none exists.
func (s *service) CreateOrUpdate(ctx context.Context, input UpsertInput) (*models.ShipmentTracking, error) {
	trackingNumber := strings.TrimSpace(input.TrackingNumber)
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if trackingNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required").
			WithDetails(map[string]any{"field": "tracking_number"})
	}
	if input.ShipDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ship date is required").
			WithDetails(map[string]any{"field": "ship_date"})
	}

	if _, err := s.orders.FindByID(ctx, input.OrderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Store(err, "load order")
	}

	set, err := s.stages.FindForOrder(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Store(err, "load order stages")
	}
	if !CanCreateTracking(set.Cad, set.Fabric, set.Sample) {
		missing := MissingStages(set.Cad, set.Fabric, set.Sample)
		if s.enforceGate {
			return nil, pkgerrors.New(pkgerrors.CodeGateViolation, "all stages must be complete before shipment tracking").
				WithDetails(map[string]any{"missing_stages": missing})
		}
		gateCtx := s.logg.WithFields(ctx, map[string]any{"order_id": input.OrderID.String(), "missing_stages": missing})
		s.logg.Warn(gateCtx, "shipment tracking saved while gate is closed")
	}

	now := s.clock.Now().UTC()
	var (
		result  *models.ShipmentTracking
		created bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByOrderID(ctx, input.OrderID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record := &models.ShipmentTracking{
				OrderID:        input.OrderID,
				TrackingNumber: trackingNumber,
				ShipDate:       input.ShipDate.UTC(),
				IsComplete:     input.IsComplete,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := repo.Create(ctx, record); err != nil {
				return err
			}
			result, created = record, true
			return nil
		case err != nil:
			return err
		}

		existing.TrackingNumber = trackingNumber
		existing.ShipDate = input.ShipDate.UTC()
		existing.IsComplete = input.IsComplete
		existing.UpdatedAt = now
		if err := repo.Update(ctx, existing); err != nil {
			return err
		}
		result = existing
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Store(err, "save shipment tracking")
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	logCtx := s.logg.WithOrderID(ctx, input.OrderID.String())
	logCtx = s.logg.WithField(logCtx, "shipment_id", result.ID.String())
	if created {
		s.logg.Info(logCtx, "shipment tracking created")
	} else {
		s.logg.Info(logCtx, "shipment tracking updated")
	}
	return result, nil
}

// Get returns the order's shipment tracking record.
func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.ShipmentTracking, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	shipment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment tracking not found")
		}
		return nil, pkgerrors.Store(err, "load shipment tracking")
	}
	return shipment, nil
}
