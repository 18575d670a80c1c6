// Package status turns planned/actual dates into the badges shown next to
// stages and orders.
package status

import (
	"fmt"
	"time"

	"github.com/angelmondragon/tna-backend/pkg/dates"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
)

// Status is a derived badge. Days is always non-negative for ahead/overdue;
// for completed_variance it is signed, positive meaning finished early.
type Status struct {
	Kind  enums.StatusKind `json:"kind"`
	Days  int              `json:"days"`
	Label string           `json:"label"`
}

// Derive classifies planned against actual (when finished) or reference.
func Derive(planned time.Time, actual *time.Time, reference time.Time) Status {
	if actual != nil {
		return newStatus(enums.StatusKindCompletedVariance, dates.DaysBetween(*actual, planned))
	}

	remaining := dates.DaysBetween(reference, planned)
	switch {
	case remaining > 0:
		return newStatus(enums.StatusKindAhead, remaining)
	case remaining == 0:
		return newStatus(enums.StatusKindDueToday, 0)
	default:
		return newStatus(enums.StatusKindOverdue, -remaining)
	}
}

// ForStage derives a stage badge against now. Stages without a planned
// completion (never accepted) have no badge.
func ForStage(schedule models.StageSchedule, completedAt *time.Time, now time.Time) *Status {
	if schedule.PlannedCompleteDate == nil {
		return nil
	}
	st := Derive(*schedule.PlannedCompleteDate, completedAt, now)
	return &st
}

// LeadTime measures the order's planned sample-sending date against the
// shipment date once tracking exists, otherwise against now. It never
// reports completed_variance.
func LeadTime(order models.Order, shipment *models.ShipmentTracking, now time.Time) Status {
	var shipDate *time.Time
	if shipment != nil {
		shipDate = &shipment.ShipDate
	}
	return Derive(order.SampleSendingDate, nil, dates.Reference(shipDate, now))
}

func newStatus(kind enums.StatusKind, days int) Status {
	return Status{Kind: kind, Days: days, Label: label(kind, days)}
}

func label(kind enums.StatusKind, days int) string {
	switch kind {
	case enums.StatusKindAhead:
		return fmt.Sprintf("%d days left", days)
	case enums.StatusKindDueToday:
		return "due today"
	case enums.StatusKindOverdue:
		return fmt.Sprintf("%d days overdue", days)
	default:
		// fmt renders the minus sign for late completions.
		return fmt.Sprintf("%d days", days)
	}
}
