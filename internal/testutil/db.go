// Package testutil provides sqlite-backed databases for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/pkg/config"
	"github.com/angelmondragon/tna-backend/pkg/db"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
)

// NewSQLiteDB opens an isolated in-memory database with every model migrated.
func NewSQLiteDB(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString()),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.Order{},
		&models.CadStage{},
		&models.FabricStage{},
		&models.SampleStage{},
		&models.ShipmentTracking{},
	))
	return client
}

// SeededOrder bundles an order with its three stage rows.
type SeededOrder struct {
	Order  models.Order
	Cad    models.CadStage
	Fabric models.FabricStage
	Sample models.SampleStage
}

// SeedOrder inserts an active order owned by owner plus empty stage rows.
func SeedOrder(t *testing.T, conn *gorm.DB, owner uuid.UUID, styleCode string, orderDate, sendingDate time.Time) SeededOrder {
	t.Helper()
	seeded := SeededOrder{
		Order: models.Order{
			StyleCode:         styleCode,
			ItemName:          "Item " + styleCode,
			SampleSendingDate: sendingDate,
			OrderDate:         orderDate,
			Status:            enums.OrderStatusActive,
			CreatedBy:         owner,
		},
	}
	require.NoError(t, conn.Create(&seeded.Order).Error)

	seeded.Cad = models.CadStage{OrderID: seeded.Order.ID}
	seeded.Fabric = models.FabricStage{OrderID: seeded.Order.ID}
	seeded.Sample = models.SampleStage{OrderID: seeded.Order.ID}
	require.NoError(t, conn.Create(&seeded.Cad).Error)
	require.NoError(t, conn.Create(&seeded.Fabric).Error)
	require.NoError(t, conn.Create(&seeded.Sample).Error)
	return seeded
}
