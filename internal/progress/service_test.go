package progress

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/internal/shipments"
	"github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/internal/testutil"
	"github.com/angelmondragon/tna-backend/pkg/clock"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/redis"
)

type engine struct {
	now       time.Time
	orders    orders.Service
	stages    stages.Service
	shipments shipments.Service
	progress  Service
}

func newEngine(t *testing.T, cache redis.Cache) *engine {
	t.Helper()
	client := testutil.NewSQLiteDB(t)
	conn := client.DB()
	e := &engine{}
	clk := clock.Func(func() time.Time { return e.now })
	invalidator := NewCacheInvalidator(cache, nil)

	stageRepo := stages.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	shipmentRepo := shipments.NewRepository(conn)

	var err error
	e.orders, err = orders.NewService(orders.ServiceParams{
		Repo:        orderRepo,
		Stages:      stageRepo,
		Shipments:   shipmentRepo,
		Tx:          client,
		Clock:       clk,
		Invalidator: invalidator,
	})
	require.NoError(t, err)
	e.stages, err = stages.NewService(stageRepo, stages.LifecycleParams{Clock: clk, Invalidator: invalidator})
	require.NoError(t, err)
	e.shipments, err = shipments.NewService(shipments.ServiceParams{
		Repo:        shipmentRepo,
		Orders:      orderRepo,
		Stages:      stageRepo,
		Tx:          client,
		Clock:       clk,
		EnforceGate: true,
		Invalidator: invalidator,
	})
	require.NoError(t, err)
	e.progress, err = NewService(ServiceParams{
		Orders:    e.orders,
		Stages:    stageRepo,
		Shipments: shipmentRepo,
		Cache:     cache,
		CacheTTL:  30 * time.Second,
		Clock:     clk,
	})
	require.NoError(t, err)
	return e
}

func (e *engine) at(t time.Time) *engine {
	e.now = t
	return e
}

func (e *engine) createOrder(t *testing.T, owner uuid.UUID, style string) *orders.Detail {
	t.Helper()
	e.at(day(2024, 1, 1))
	detail, err := e.orders.Create(context.Background(), orders.CreateInput{
		OwnerID:           owner,
		StyleCode:         style,
		ItemName:          "Crew neck tee",
		OrderDate:         day(2024, 1, 1),
		SampleSendingDate: day(2024, 1, 20),
	})
	require.NoError(t, err)
	return detail
}

func stageID(t *testing.T, detail *orders.Detail, kind enums.StageKind) uuid.UUID {
	t.Helper()
	for _, v := range detail.Stages {
		if v.Kind == kind {
			return v.ID
		}
	}
	t.Fatalf("stage %s missing", kind)
	return uuid.Nil
}

func stageView(t *testing.T, detail *orders.Detail, kind enums.StageKind) stages.View {
	t.Helper()
	for _, v := range detail.Stages {
		if v.Kind == kind {
			return v
		}
	}
	t.Fatalf("stage %s missing", kind)
	return stages.View{}
}

func TestLateCadWithoutFabricReceiptKeepsGateClosed(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)
	owner := uuid.New()
	detail := e.createOrder(t, owner, "ST-1")
	orderID := detail.Order.ID

	e.at(day(2024, 1, 5))
	cad, err := e.stages.Accept(ctx, enums.StageKindCAD, stageID(t, detail, enums.StageKindCAD), "Alice")
	require.NoError(t, err)
	require.NotNil(t, cad.PlannedCompleteDate)
	assert.True(t, day(2024, 1, 7).Equal(*cad.PlannedCompleteDate))

	fabric, err := e.stages.Accept(ctx, enums.StageKindFabric, stageID(t, detail, enums.StageKindFabric), "Bob")
	require.NoError(t, err)
	assert.True(t, day(2024, 1, 20).Equal(*fabric.PlannedCompleteDate))

	_, err = e.stages.Accept(ctx, enums.StageKindSample, stageID(t, detail, enums.StageKindSample), "Cara")
	require.NoError(t, err)

	e.at(day(2024, 1, 10))
	cad, err = e.stages.Finish(ctx, enums.StageKindCAD, cad.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, cad.Status)
	assert.Equal(t, enums.StatusKindCompletedVariance, cad.Status.Kind)
	assert.Equal(t, -3, cad.Status.Days)
	assert.Equal(t, "-3 days", cad.Status.Label)

	_, err = e.stages.Finish(ctx, enums.StageKindSample, stageID(t, detail, enums.StageKindSample), nil)
	require.NoError(t, err)

	detail, err = e.orders.Detail(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, detail.CanCreateShipment)
	assert.Equal(t, []enums.StageKind{enums.StageKindFabric}, detail.MissingStages)
	assert.Equal(t, enums.StageStateFinished, stageView(t, detail, enums.StageKindCAD).State)
	assert.Equal(t, enums.StageStateAccepted, stageView(t, detail, enums.StageKindFabric).State)

	_, err = e.shipments.CreateOrUpdate(ctx, shipments.UpsertInput{
		OrderID:        orderID,
		TrackingNumber: "1Z999",
		ShipDate:       day(2024, 1, 25),
		IsComplete:     true,
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeGateViolation))

	progress, err := e.progress.DepartmentProgress(ctx, orders.Filter{OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, []DepartmentProgress{
		{Department: enums.DepartmentMerchandising, Completed: 0, Total: 1, Percentage: 0},
		{Department: enums.DepartmentCAD, Completed: 1, Total: 1, Percentage: 100},
		{Department: enums.DepartmentFabric, Completed: 0, Total: 1, Percentage: 0},
		{Department: enums.DepartmentSample, Completed: 1, Total: 1, Percentage: 100},
	}, progress)
}

func TestShippedOrderCountsAsCompletedRegardlessOfSendingDate(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)
	owner := uuid.New()
	shipped := e.createOrder(t, owner, "ST-SHIP")
	e.createOrder(t, owner, "ST-LATE")

	e.at(day(2024, 1, 5))
	for _, kind := range enums.StageKinds() {
		_, err := e.stages.Accept(ctx, kind, stageID(t, shipped, kind), "Alice")
		require.NoError(t, err)
	}
	e.at(day(2024, 1, 12))
	for _, kind := range enums.StageKinds() {
		_, err := e.stages.Finish(ctx, kind, stageID(t, shipped, kind), nil)
		require.NoError(t, err)
	}
	_, err := e.stages.SetFabricReceived(ctx, stageID(t, shipped, enums.StageKindFabric), true)
	require.NoError(t, err)

	rec, err := e.shipments.CreateOrUpdate(ctx, shipments.UpsertInput{
		OrderID:        shipped.Order.ID,
		TrackingNumber: "1Z999",
		ShipDate:       day(2024, 1, 25),
		IsComplete:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "1Z999", rec.TrackingNumber)

	e.at(day(2024, 6, 1))
	summary, err := e.progress.OrderSummary(ctx, orders.Filter{OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, OrderSummary{Completed: 1, Overdue: 1, Total: 2}, *summary)

	dash, err := e.progress.Compute(ctx, orders.Filter{})
	require.NoError(t, err)
	assert.Equal(t, *summary, dash.Summary)
	for _, dept := range dash.Departments {
		assert.Equal(t, 1, dept.Completed, dept.Department)
		assert.Equal(t, 50, dept.Percentage, dept.Department)
	}
}

func TestProgressScopedByFilter(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)
	e.createOrder(t, uuid.New(), "ST-1")

	other := uuid.New()
	got, err := e.progress.DepartmentProgress(ctx, orders.Filter{OwnerID: &other})
	require.NoError(t, err)
	for _, dept := range got {
		assert.Zero(t, dept.Total)
		assert.Zero(t, dept.Percentage)
	}
}

type memoryCache struct {
	entries map[string]string
	getErr  error
	setErr  error
	sets    int
	incrs   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.entries[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	switch v := value.(type) {
	case []byte:
		c.entries[key] = string(v)
	case string:
		c.entries[key] = v
	}
	return nil
}

func (c *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	c.incrs++
	if c.setErr != nil {
		return 0, c.setErr
	}
	n, _ := strconv.ParseInt(c.entries[key], 10, 64)
	n++
	c.entries[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *memoryCache) DashboardKey(parts ...string) string {
	return "tna:dashboard:" + strings.Join(parts, ":")
}

func TestDashboardServedFromCache(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	e := newEngine(t, cache)
	owner := uuid.New()
	e.createOrder(t, owner, "ST-1")
	filter := orders.Filter{OwnerID: &owner, Query: " ST "}

	first, err := e.progress.OrderSummary(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total)
	require.Contains(t, cache.entries, "tna:dashboard:summary:g1:2024-01-01:"+owner.String()+":-:-:st")

	second, err := e.progress.OrderSummary(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Total)
	assert.Equal(t, 1, cache.sets, "unchanged data is served from the cache")
}

func TestDashboardWritesInvalidateCache(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	e := newEngine(t, cache)
	owner := uuid.New()
	detail := e.createOrder(t, owner, "ST-1")
	filter := orders.Filter{OwnerID: &owner}

	first, err := e.progress.OrderSummary(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, first.OnProcess)

	e.createOrder(t, owner, "ST-2")
	summary, err := e.progress.OrderSummary(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)

	depts, err := e.progress.DepartmentProgress(ctx, filter)
	require.NoError(t, err)
	require.Len(t, depts, 4)
	assert.Equal(t, enums.DepartmentCAD, depts[1].Department)
	assert.Zero(t, depts[1].Completed)

	_, err = e.stages.Accept(ctx, enums.StageKindCAD, stageID(t, detail, enums.StageKindCAD), "Dana")
	require.NoError(t, err)
	_, err = e.stages.Finish(ctx, enums.StageKindCAD, stageID(t, detail, enums.StageKindCAD), nil)
	require.NoError(t, err)
	depts, err = e.progress.DepartmentProgress(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, depts[1].Completed, "stage writes retire cached departments")

	before := cache.incrs
	_, err = e.orders.UpdateStatus(ctx, detail.Order.ID, enums.OrderStatusActive)
	require.NoError(t, err)
	assert.Equal(t, before+1, cache.incrs)
}

func TestDashboardCacheRollsOverAtMidnight(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	e := newEngine(t, cache)
	owner := uuid.New()
	e.createOrder(t, owner, "ST-1")
	filter := orders.Filter{OwnerID: &owner}

	e.at(time.Date(2024, 1, 20, 23, 59, 0, 0, time.UTC))
	late, err := e.progress.OrderSummary(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, late.OnProcess)
	assert.Zero(t, late.Overdue)

	e.at(time.Date(2024, 1, 21, 0, 1, 0, 0, time.UTC))
	next, err := e.progress.OrderSummary(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Overdue, "a new day recomputes overdue orders")
	assert.Zero(t, next.OnProcess)
	assert.Equal(t, 2, cache.sets)
}

func TestDashboardBypassesFailingCache(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	e := newEngine(t, cache)
	e.createOrder(t, uuid.New(), "ST-1")

	got, err := e.progress.DepartmentProgress(ctx, orders.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, 1, got[0].Total)
	assert.Zero(t, cache.sets, "a cache without a readable generation is bypassed")
	assert.Equal(t, 1, cache.incrs, "a failed invalidation does not fail the write")
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)

	_, err = NewService(ServiceParams{
		Orders:    stubLister{},
		Stages:    &stages.Repository{},
		Shipments: stubShipments{},
	})
	require.NoError(t, err)
}

type stubLister struct{}

func (stubLister) ListInScope(context.Context, orders.Filter) ([]models.Order, error) {
	return nil, nil
}

type stubShipments struct{}

func (stubShipments) ListByOrderIDs(context.Context, []uuid.UUID) ([]models.ShipmentTracking, error) {
	return nil, nil
}
