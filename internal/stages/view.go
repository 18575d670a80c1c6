package stages

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tna-backend/internal/status"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
)

// View is the API projection of a stage record with its derived badge.
type View struct {
	ID                  uuid.UUID        `json:"id"`
	OrderID             uuid.UUID        `json:"order_id"`
	Kind                enums.StageKind  `json:"kind"`
	State               enums.StageState `json:"state"`
	Assignee            *string          `json:"assignee"`
	PlannedStartDate    *time.Time       `json:"planned_start_date"`
	PlannedCompleteDate *time.Time       `json:"planned_complete_date"`
	ActualCompleteDate  *time.Time       `json:"actual_complete_date"`
	ActualReceiveDate   *time.Time       `json:"actual_receive_date,omitempty"`
	Status              *status.Status   `json:"status"`
}

// ViewOf projects a stage record, deriving its badge against now.
func ViewOf[T any, P record[T]](kind enums.StageKind, rec P, now time.Time) *View {
	if rec == nil {
		return nil
	}
	id, orderID := rec.Identity()
	schedule := *rec.Schedule()
	completed := rec.CompletedAt()
	view := &View{
		ID:                  id,
		OrderID:             orderID,
		Kind:                kind,
		State:               schedule.State(completed),
		Assignee:            schedule.Assignee,
		PlannedStartDate:    schedule.PlannedStartDate,
		PlannedCompleteDate: schedule.PlannedCompleteDate,
		ActualCompleteDate:  completed,
		Status:              status.ForStage(schedule, completed, now),
	}
	if fabric, ok := any(rec).(*models.FabricStage); ok {
		view.ActualReceiveDate = fabric.ActualReceiveDate
	}
	return view
}

// Views projects every stage of an order in pipeline order, skipping deleted ones.
func (s *Set) Views(now time.Time) []View {
	if s == nil {
		return nil
	}
	out := make([]View, 0, 3)
	if v := ViewOf(enums.StageKindCAD, s.Cad, now); v != nil {
		out = append(out, *v)
	}
	if v := ViewOf(enums.StageKindFabric, s.Fabric, now); v != nil {
		out = append(out, *v)
	}
	if v := ViewOf(enums.StageKindSample, s.Sample, now); v != nil {
		out = append(out, *v)
	}
	return out
}
