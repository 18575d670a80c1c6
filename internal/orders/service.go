package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/internal/shipments"
	"github.com/angelmondragon/tna-backend/internal/status"
	"github.com/angelmondragon/tna-backend/pkg/clock"
	"github.com/angelmondragon/tna-backend/pkg/dates"
	"github.com/angelmondragon/tna-backend/pkg/db"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/pagination"
)

// Service defines order-level operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Detail, error)
	Detail(ctx context.Context, orderID uuid.UUID) (*Detail, error)
	List(ctx context.Context, filter Filter, params pagination.Params) (*OrderList, error)
	ListInScope(ctx context.Context, filter Filter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderView, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
}

// CacheInvalidator is told about every committed write that changes
// dashboard inputs.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo        Repository
	Stages      StageReader
	Shipments   ShipmentReader
	Tx          txRunner
	Clock       clock.Clock
	Logger      *logger.Logger
	Invalidator CacheInvalidator
}

type service struct {
	repo        Repository
	stages      StageReader
	shipments   ShipmentReader
	tx          txRunner
	clock       clock.Clock
	logg        *logger.Logger
	invalidator CacheInvalidator
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stages == nil {
		return nil, fmt.Errorf("stage reader required")
	}
	if params.Shipments == nil {
		return nil, fmt.Errorf("shipment reader required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        params.Repo,
		stages:      params.Stages,
		shipments:   params.Shipments,
		tx:          params.Tx,
		clock:       clock.OrReal(params.Clock),
		logg:        params.Logger,
		invalidator: params.Invalidator,
	}, nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

// Create opens an order and its three empty stages atomically.
func (s *service) Create(ctx context.Context, input CreateInput) (*Detail, error) {
	order, err := buildOrder(input)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		return repo.CreateStages(ctx, order.ID, now)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists for this style and order date").
				WithDetails(map[string]any{"style_code": order.StyleCode, "order_date": order.OrderDate})
		}
		return nil, pkgerrors.Store(err, "create order")
	}
	s.invalidate(ctx)

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	logCtx = s.logg.WithField(logCtx, "style_code", order.StyleCode)
	s.logg.Info(logCtx, "order created")

	return s.Detail(ctx, order.ID)
}

func buildOrder(input CreateInput) (*models.Order, error) {
	styleCode := strings.TrimSpace(input.StyleCode)
	itemName := strings.TrimSpace(input.ItemName)
	switch {
	case input.OwnerID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	case styleCode == "":
		return nil, invalidField("style_code", "style code is required")
	case itemName == "":
		return nil, invalidField("item_name", "item name is required")
	case input.OrderDate.IsZero():
		return nil, invalidField("order_date", "order date is required")
	case input.SampleSendingDate.IsZero():
		return nil, invalidField("sample_sending_date", "sample sending date is required")
	}

	var buyer *string
	if input.BuyerName != nil {
		if trimmed := strings.TrimSpace(*input.BuyerName); trimmed != "" {
			buyer = &trimmed
		}
	}
	return &models.Order{
		StyleCode:         styleCode,
		ItemName:          itemName,
		BuyerName:         buyer,
		SampleSendingDate: input.SampleSendingDate.UTC(),
		OrderDate:         dates.DayFloor(input.OrderDate),
		Status:            enums.OrderStatusActive,
		CreatedBy:         input.OwnerID,
	}, nil
}

func invalidField(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}

// Detail loads the order with its stages, shipment, derived statuses and the
// shipment gate outcome.
func (s *service) Detail(ctx context.Context, orderID uuid.UUID) (*Detail, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	set, err := s.stages.FindForOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Store(err, "load order stages")
	}
	shipment, err := s.shipments.FindByOrderID(ctx, orderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Store(err, "load shipment tracking")
		}
		shipment = nil
	}

	now := s.clock.Now()
	return &Detail{
		Order:             NewOrderView(*order),
		Stages:            set.Views(now),
		Shipment:          NewShipmentView(shipment),
		LeadTime:          status.LeadTime(*order, shipment, now),
		CanCreateShipment: shipments.CanCreateTracking(set.Cad, set.Fabric, set.Sample),
		MissingStages:     shipments.MissingStages(set.Cad, set.Fabric, set.Sample),
	}, nil
}

func (s *service) List(ctx context.Context, filter Filter, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]any{"field": "cursor"})
	}
	rows, next, err := s.repo.List(ctx, filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Store(err, "list orders")
	}
	list := &OrderList{Orders: make([]OrderView, 0, len(rows))}
	for _, row := range rows {
		list.Orders = append(list.Orders, NewOrderView(row))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

// ListInScope returns every order matching filter, unpaginated.
func (s *service) ListInScope(ctx context.Context, filter Filter) ([]models.Order, error) {
	rows, err := s.repo.ListInScope(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Store(err, "list orders in scope")
	}
	return rows, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderView, error) {
	if !next.IsValid() {
		return nil, invalidField("status", "invalid order status")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if err := s.repo.UpdateStatus(ctx, orderID, next, s.clock.Now().UTC()); err != nil {
		return nil, mapLoadErr(err, "update order status")
	}
	s.invalidate(ctx)
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithField(logCtx, "status", next)
	s.logg.Info(logCtx, "order status updated")

	view := NewOrderView(*order)
	return &view, nil
}

// Delete removes the order together with its stage and shipment rows.
func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, orderID)
	})
	if err != nil {
		return mapLoadErr(err, "delete order")
	}
	s.invalidate(ctx)
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order deleted")
	return nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadErr(err, "load order")
	}
	return order, nil
}

func mapLoadErr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Store(err, op)
}
