package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/pkg/clock"
	"github.com/angelmondragon/tna-backend/pkg/dates"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/redis"
)

const (
	departmentsCacheKind = "departments"
	summaryCacheKind     = "summary"
	generationCacheKind  = "generation"

	// batchSize keeps IN clauses under the sqlite bound-parameter limit.
	batchSize = 500
)

// OrderLister returns every order matching a dashboard filter.
type OrderLister interface {
	ListInScope(ctx context.Context, filter orders.Filter) ([]models.Order, error)
}

// ShipmentLister loads shipment rows for a set of orders.
type ShipmentLister interface {
	ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]models.ShipmentTracking, error)
}

// Dashboard bundles both aggregates for one scope.
type Dashboard struct {
	Departments []DepartmentProgress `json:"departments"`
	Summary     OrderSummary         `json:"summary"`
}

// Service serves dashboard aggregates.
type Service interface {
	DepartmentProgress(ctx context.Context, filter orders.Filter) ([]DepartmentProgress, error)
	OrderSummary(ctx context.Context, filter orders.Filter) (*OrderSummary, error)
	Compute(ctx context.Context, filter orders.Filter) (*Dashboard, error)
}

// ServiceParams bundles the progress service dependencies. Cache is optional.
type ServiceParams struct {
	Orders    OrderLister
	Stages    *stages.Repository
	Shipments ShipmentLister
	Cache     redis.Cache
	CacheTTL  time.Duration
	Clock     clock.Clock
	Logger    *logger.Logger
}

type service struct {
	orders    OrderLister
	stages    *stages.Repository
	shipments ShipmentLister
	cache     redis.Cache
	cacheTTL  time.Duration
	clock     clock.Clock
	logg      *logger.Logger
}

// NewService builds the dashboard progress service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order lister required")
	}
	if params.Stages == nil {
		return nil, fmt.Errorf("stage repository required")
	}
	if params.Shipments == nil {
		return nil, fmt.Errorf("shipment lister required")
	}
	return &service{
		orders:    params.Orders,
		stages:    params.Stages,
		shipments: params.Shipments,
		cache:     params.Cache,
		cacheTTL:  params.CacheTTL,
		clock:     clock.OrReal(params.Clock),
		logg:      params.Logger,
	}, nil
}

// snapshot is the in-memory view a fold runs over.
type snapshot struct {
	orders    []models.Order
	stages    stages.Batch
	shipments []models.ShipmentTracking
}

func (s *service) DepartmentProgress(ctx context.Context, filter orders.Filter) ([]DepartmentProgress, error) {
	key := s.cacheKey(ctx, departmentsCacheKind, filter)
	var cached []DepartmentProgress
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	snap, err := s.load(ctx, filter, true)
	if err != nil {
		return nil, err
	}
	out := AggregateDepartmentProgress(snap.orders, snap.stages.Cads, snap.stages.Fabrics, snap.stages.Samples, snap.shipments)
	s.writeCache(ctx, key, out)
	return out, nil
}

func (s *service) OrderSummary(ctx context.Context, filter orders.Filter) (*OrderSummary, error) {
	key := s.cacheKey(ctx, summaryCacheKind, filter)
	var cached OrderSummary
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	snap, err := s.load(ctx, filter, false)
	if err != nil {
		return nil, err
	}
	out := AggregateOrderSummary(snap.orders, snap.shipments, s.clock.Now())
	s.writeCache(ctx, key, out)
	return &out, nil
}

// Compute folds both aggregates from a single uncached load.
func (s *service) Compute(ctx context.Context, filter orders.Filter) (*Dashboard, error) {
	snap, err := s.load(ctx, filter, true)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Departments: AggregateDepartmentProgress(snap.orders, snap.stages.Cads, snap.stages.Fabrics, snap.stages.Samples, snap.shipments),
		Summary:     AggregateOrderSummary(snap.orders, snap.shipments, s.clock.Now()),
	}, nil
}

func (s *service) load(ctx context.Context, filter orders.Filter, withStages bool) (*snapshot, error) {
	rows, err := s.orders.ListInScope(ctx, filter)
	if err != nil {
		return nil, err
	}
	snap := &snapshot{orders: rows}
	if len(rows) == 0 {
		return snap, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, o := range rows {
		ids = append(ids, o.ID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.shipments, err = listChunked(gctx, ids, s.shipments.ListByOrderIDs)
		return wrapLoad(err, "load shipments")
	})
	if withStages {
		g.Go(func() (err error) {
			snap.stages.Cads, err = listChunked(gctx, ids, s.stages.Cad.ListByOrderIDs)
			return wrapLoad(err, "load cad stages")
		})
		g.Go(func() (err error) {
			snap.stages.Fabrics, err = listChunked(gctx, ids, s.stages.Fabric.ListByOrderIDs)
			return wrapLoad(err, "load fabric stages")
		})
		g.Go(func() (err error) {
			snap.stages.Samples, err = listChunked(gctx, ids, s.stages.Sample.ListByOrderIDs)
			return wrapLoad(err, "load sample stages")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func listChunked[T any](ctx context.Context, ids []uuid.UUID, fetch func(context.Context, []uuid.UUID) ([]T, error)) ([]T, error) {
	var out []T
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		rows, err := fetch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func wrapLoad(err error, op string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Store(err, op)
}

// cacheKey folds the cache generation and today's date into the key, so a
// write or the overdue rollover at midnight retires every cached aggregate.
// An empty key disables caching for the call.
func (s *service) cacheKey(ctx context.Context, kind string, filter orders.Filter) string {
	if s.cache == nil {
		return ""
	}
	generation, err := s.cache.Get(ctx, s.cache.DashboardKey(generationCacheKind))
	switch {
	case err == nil:
	case redis.IsNil(err):
		generation = "0"
	default:
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dashboard cache generation unavailable")
		return ""
	}
	owner := "all"
	if filter.OwnerID != nil {
		owner = filter.OwnerID.String()
	}
	today := s.clock.Now()
	return s.cache.DashboardKey(kind, "g"+generation, dayKey(&today), owner,
		dayKey(filter.DateFrom), dayKey(filter.DateTo), queryKey(filter.Query))
}

func dayKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return dates.DayFloor(*t).Format(dates.DateLayout)
}

func queryKey(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return "-"
	}
	return q
}

func (s *service) readCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil || key == "" {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "dashboard cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "dashboard cache entry unreadable")
		return false
	}
	return true
}

func (s *service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil || key == "" || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.logg.Error(ctx, "encode dashboard cache entry", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "dashboard cache write failed")
	}
}
