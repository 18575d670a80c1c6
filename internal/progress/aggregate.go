// Package progress folds per-order stage and shipment completion into the
// department and order-level numbers shown on dashboards.
package progress

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tna-backend/pkg/dates"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// DepartmentProgress is the completion tuple for one department.
type DepartmentProgress struct {
	Department enums.Department `json:"department"`
	Completed  int              `json:"completed"`
	Total      int              `json:"total"`
	Percentage int              `json:"percentage"`
}

// OrderSummary counts orders by shipment outcome.
type OrderSummary struct {
	OnProcess int `json:"on_process"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
	Total     int `json:"total"`
}

// AggregateDepartmentProgress returns one entry per department in display
// order. Only child rows belonging to the given orders are counted.
func AggregateDepartmentProgress(
	orders []models.Order,
	cads []models.CadStage,
	fabrics []models.FabricStage,
	samples []models.SampleStage,
	shipments []models.ShipmentTracking,
) []DepartmentProgress {
	inScope := make(map[uuid.UUID]struct{}, len(orders))
	for _, o := range orders {
		inScope[o.ID] = struct{}{}
	}

	done := map[enums.Department]map[uuid.UUID]struct{}{
		enums.DepartmentMerchandising: {},
		enums.DepartmentCAD:           {},
		enums.DepartmentFabric:        {},
		enums.DepartmentSample:        {},
	}
	mark := func(dept enums.Department, orderID uuid.UUID) {
		if _, ok := inScope[orderID]; ok {
			done[dept][orderID] = struct{}{}
		}
	}

	for _, s := range shipments {
		mark(enums.DepartmentMerchandising, s.OrderID)
	}
	for _, c := range cads {
		if c.FinalCompleteDate != nil {
			mark(enums.DepartmentCAD, c.OrderID)
		}
	}
	for _, f := range fabrics {
		if f.ActualReceiveDate != nil {
			mark(enums.DepartmentFabric, f.OrderID)
		}
	}
	for _, s := range samples {
		if s.ActualSampleCompleteDate != nil {
			mark(enums.DepartmentSample, s.OrderID)
		}
	}

	total := len(inScope)
	out := make([]DepartmentProgress, 0, len(done))
	for _, dept := range enums.Departments() {
		completed := len(done[dept])
		out = append(out, DepartmentProgress{
			Department: dept,
			Completed:  completed,
			Total:      total,
			Percentage: Percentage(completed, total),
		})
	}
	return out
}

// Percentage rounds completed/total*100 half away from zero. An empty scope
// is 0%.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(completed)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total))).
		Round(0)
	return int(pct.IntPart())
}

// AggregateOrderSummary classifies each order as completed when any of its
// shipments is complete, otherwise overdue once the sample sending day has
// passed, otherwise on process. Stage completion plays no part.
func AggregateOrderSummary(orders []models.Order, shipments []models.ShipmentTracking, today time.Time) OrderSummary {
	shipped := make(map[uuid.UUID]bool, len(shipments))
	for _, s := range shipments {
		if s.IsComplete {
			shipped[s.OrderID] = true
		}
	}

	summary := OrderSummary{Total: len(orders)}
	for _, o := range orders {
		switch {
		case shipped[o.ID]:
			summary.Completed++
		case dates.IsBeforeDay(o.SampleSendingDate, today):
			summary.Overdue++
		default:
			summary.OnProcess++
		}
	}
	return summary
}
