package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/internal/shipments"
	"github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/internal/testutil"
	"github.com/angelmondragon/tna-backend/pkg/clock"
	"github.com/angelmondragon/tna-backend/pkg/db"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/pagination"
)

type serviceFixture struct {
	client *db.Client
	repo   Repository
	svc    Service
	clock  *clock.Fixed
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	client := testutil.NewSQLiteDB(t)
	f := &serviceFixture{
		client: client,
		repo:   NewRepository(client.DB()),
		clock:  &clock.Fixed{T: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)},
	}
	svc, err := NewService(ServiceParams{
		Repo:      f.repo,
		Stages:    stages.NewRepository(client.DB()),
		Shipments: shipments.NewRepository(client.DB()),
		Tx:        client,
		Clock:     f.clock,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func validInput(owner uuid.UUID) CreateInput {
	buyer := "  ACME  "
	return CreateInput{
		OwnerID:           owner,
		StyleCode:         " ST-100 ",
		ItemName:          "Polo Shirt",
		BuyerName:         &buyer,
		OrderDate:         time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC),
		SampleSendingDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestCreateBuildsOrderWithEmptyStages(t *testing.T) {
	f := newServiceFixture(t)
	owner := uuid.New()

	detail, err := f.svc.Create(context.Background(), validInput(owner))
	require.NoError(t, err)

	assert.Equal(t, "ST-100", detail.Order.StyleCode)
	require.NotNil(t, detail.Order.BuyerName)
	assert.Equal(t, "ACME", *detail.Order.BuyerName)
	assert.Equal(t, enums.OrderStatusActive, detail.Order.Status)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(detail.Order.OrderDate))
	assert.Equal(t, owner, detail.Order.CreatedBy)

	require.Len(t, detail.Stages, 3)
	kinds := []enums.StageKind{}
	for _, stage := range detail.Stages {
		kinds = append(kinds, stage.Kind)
		assert.Equal(t, enums.StageStateUnassigned, stage.State)
		assert.Nil(t, stage.Status)
	}
	assert.Equal(t, enums.StageKinds(), kinds)

	assert.Nil(t, detail.Shipment)
	assert.False(t, detail.CanCreateShipment)
	assert.Len(t, detail.MissingStages, 3)
	assert.Equal(t, enums.StatusKindAhead, detail.LeadTime.Kind)
	assert.Equal(t, 15, detail.LeadTime.Days)
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	f := newServiceFixture(t)
	owner := uuid.New()

	_, err := f.svc.Create(context.Background(), validInput(owner))
	require.NoError(t, err)

	again := validInput(owner)
	again.OrderDate = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	_, err = f.svc.Create(context.Background(), again)
	requireCode(t, err, pkgerrors.CodeConflict)

	_, err = f.svc.Create(context.Background(), validInput(uuid.New()))
	require.NoError(t, err, "another owner may track the same style")

	var stageRows int64
	require.NoError(t, f.client.DB().Model(&models.CadStage{}).Count(&stageRows).Error)
	assert.Equal(t, int64(2), stageRows)
}

type failingStagesRepo struct {
	Repository
}

func (r failingStagesRepo) WithTx(tx *gorm.DB) Repository {
	return failingStagesRepo{Repository: r.Repository.WithTx(tx)}
}

func (failingStagesRepo) CreateStages(context.Context, uuid.UUID, time.Time) error {
	return errors.New("disk full")
}

func TestCreateIsAtomic(t *testing.T) {
	client := testutil.NewSQLiteDB(t)
	svc, err := NewService(ServiceParams{
		Repo:      failingStagesRepo{Repository: NewRepository(client.DB())},
		Stages:    stages.NewRepository(client.DB()),
		Shipments: shipments.NewRepository(client.DB()),
		Tx:        client,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validInput(uuid.New()))
	requireCode(t, err, pkgerrors.CodeStore)

	var orders int64
	require.NoError(t, client.DB().Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestCreateValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	cases := map[string]func(*CreateInput){
		"style code":   func(in *CreateInput) { in.StyleCode = " " },
		"item name":    func(in *CreateInput) { in.ItemName = "" },
		"order date":   func(in *CreateInput) { in.OrderDate = time.Time{} },
		"sending date": func(in *CreateInput) { in.SampleSendingDate = time.Time{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput(owner)
			mutate(&in)
			_, err := f.svc.Create(ctx, in)
			requireCode(t, err, pkgerrors.CodeValidation)
		})
	}

	_, err := f.svc.Create(ctx, validInput(uuid.Nil))
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestDetailReflectsShipmentAndGate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	conn := f.client.DB()

	detail, err := f.svc.Create(ctx, validInput(uuid.New()))
	require.NoError(t, err)
	orderID := detail.Order.ID

	done := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Model(&models.CadStage{}).Where("order_id = ?", orderID).
		Updates(map[string]any{"assignee": "A", "final_complete_date": done}).Error)
	require.NoError(t, conn.Model(&models.FabricStage{}).Where("order_id = ?", orderID).
		Updates(map[string]any{"assignee": "A", "actual_complete_date": done, "actual_receive_date": done}).Error)
	require.NoError(t, conn.Model(&models.SampleStage{}).Where("order_id = ?", orderID).
		Updates(map[string]any{"assignee": "A", "actual_sample_complete_date": done}).Error)
	require.NoError(t, conn.Create(&models.ShipmentTracking{
		OrderID:        orderID,
		TrackingNumber: "1Z999",
		ShipDate:       time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
		IsComplete:     true,
	}).Error)

	f.clock.T = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	detail, err = f.svc.Detail(ctx, orderID)
	require.NoError(t, err)

	assert.True(t, detail.CanCreateShipment)
	assert.Empty(t, detail.MissingStages)
	require.NotNil(t, detail.Shipment)
	assert.Equal(t, "1Z999", detail.Shipment.TrackingNumber)
	assert.Equal(t, enums.StatusKindOverdue, detail.LeadTime.Kind)
	assert.Equal(t, 5, detail.LeadTime.Days, "lead time is frozen at the ship date")
	for _, stage := range detail.Stages {
		assert.Equal(t, enums.StageStateFinished, stage.State)
	}

	_, err = f.svc.Detail(ctx, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestListReturnsCursor(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	for i := 0; i < 3; i++ {
		in := validInput(owner)
		in.OrderDate = in.OrderDate.AddDate(0, 0, i)
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}

	first, err := f.svc.List(ctx, Filter{OwnerID: &owner}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.List(ctx, Filter{OwnerID: &owner}, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, o := range append(first.Orders, second.Orders...) {
		seen[o.ID] = true
	}
	assert.Len(t, seen, 3)

	_, err = f.svc.List(ctx, Filter{}, pagination.Params{Cursor: "not-a-cursor"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateStatusAndDelete(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	detail, err := f.svc.Create(ctx, validInput(uuid.New()))
	require.NoError(t, err)

	view, err := f.svc.UpdateStatus(ctx, detail.Order.ID, enums.OrderStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInactive, view.Status)

	_, err = f.svc.UpdateStatus(ctx, detail.Order.ID, enums.OrderStatus("archived"))
	requireCode(t, err, pkgerrors.CodeValidation)
	_, err = f.svc.UpdateStatus(ctx, uuid.New(), enums.OrderStatusActive)
	requireCode(t, err, pkgerrors.CodeNotFound)

	require.NoError(t, f.svc.Delete(ctx, detail.Order.ID))
	_, err = f.svc.Detail(ctx, detail.Order.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
	requireCode(t, f.svc.Delete(ctx, detail.Order.ID), pkgerrors.CodeNotFound)

	var stageRows int64
	require.NoError(t, f.client.DB().Model(&models.SampleStage{}).Count(&stageRows).Error)
	assert.Zero(t, stageRows)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestDetailGateMatchesShipmentGate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	conn := f.client.DB()
	stageRepo := stages.NewRepository(conn)

	detail, err := f.svc.Create(ctx, validInput(uuid.New()))
	require.NoError(t, err)
	orderID := detail.Order.ID

	done := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Model(&models.CadStage{}).Where("order_id = ?", orderID).
		Updates(map[string]any{"assignee": "A", "final_complete_date": done}).Error)
	require.NoError(t, conn.Model(&models.FabricStage{}).Where("order_id = ?", orderID).
		Updates(map[string]any{"assignee": "A", "actual_complete_date": done}).Error)
	require.NoError(t, conn.Model(&models.SampleStage{}).Where("order_id = ?", orderID).
		Updates(map[string]any{"assignee": "A", "actual_sample_complete_date": done}).Error)

	// Fabric finished but never received keeps the gate closed.
	detail, err = f.svc.Detail(ctx, orderID)
	require.NoError(t, err)
	set, err := stageRepo.FindForOrder(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, shipments.CanCreateTracking(set.Cad, set.Fabric, set.Sample))
	assert.False(t, detail.CanCreateShipment)
	assert.Equal(t, []enums.StageKind{enums.StageKindFabric}, detail.MissingStages)

	require.NoError(t, conn.Model(&models.FabricStage{}).Where("order_id = ?", orderID).
		Update("actual_receive_date", done).Error)
	detail, err = f.svc.Detail(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, detail.CanCreateShipment)

	// A deleted stage row counts as incomplete.
	require.NoError(t, conn.Where("order_id = ?", orderID).Delete(&models.SampleStage{}).Error)
	detail, err = f.svc.Detail(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, detail.CanCreateShipment)
	assert.Equal(t, []enums.StageKind{enums.StageKindSample}, detail.MissingStages)
}
