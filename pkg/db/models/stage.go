package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tna-backend/pkg/enums"
)

// StageSchedule holds the columns every stage kind shares.
type StageSchedule struct {
	Assignee            *string    `gorm:"column:assignee"`
	PlannedStartDate    *time.Time `gorm:"column:planned_start_date"`
	PlannedCompleteDate *time.Time `gorm:"column:planned_complete_date"`
}

// CadStage tracks CAD design approval for an order.
type CadStage struct {
	ID                uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID     `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	StageSchedule     StageSchedule `gorm:"embedded"`
	FinalCompleteDate *time.Time    `gorm:"column:final_complete_date"`
	CreatedAt         time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// FabricStage tracks fabric booking. ActualReceiveDate is toggled on its own
// and does not follow the accept/finish lifecycle.
type FabricStage struct {
	ID                 uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID     `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	StageSchedule      StageSchedule `gorm:"embedded"`
	ActualCompleteDate *time.Time    `gorm:"column:actual_complete_date"`
	ActualReceiveDate  *time.Time    `gorm:"column:actual_receive_date"`
	CreatedAt          time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// SampleStage tracks sample development.
type SampleStage struct {
	ID                       uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	OrderID                  uuid.UUID     `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	StageSchedule            StageSchedule `gorm:"embedded"`
	ActualSampleCompleteDate *time.Time    `gorm:"column:actual_sample_complete_date"`
	CreatedAt                time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (CadStage) TableName() string    { return "cad_stages" }
func (FabricStage) TableName() string { return "fabric_stages" }
func (SampleStage) TableName() string { return "sample_stages" }

func (s *CadStage) BeforeCreate(*gorm.DB) error    { s.ID = ensureID(s.ID); return nil }
func (s *FabricStage) BeforeCreate(*gorm.DB) error { s.ID = ensureID(s.ID); return nil }
func (s *SampleStage) BeforeCreate(*gorm.DB) error { s.ID = ensureID(s.ID); return nil }

func (s *CadStage) Identity() (uuid.UUID, uuid.UUID)    { return s.ID, s.OrderID }
func (s *FabricStage) Identity() (uuid.UUID, uuid.UUID) { return s.ID, s.OrderID }
func (s *SampleStage) Identity() (uuid.UUID, uuid.UUID) { return s.ID, s.OrderID }

func (s *CadStage) Schedule() *StageSchedule    { return &s.StageSchedule }
func (s *FabricStage) Schedule() *StageSchedule { return &s.StageSchedule }
func (s *SampleStage) Schedule() *StageSchedule { return &s.StageSchedule }

// CompletedAt returns the kind-specific actual completion date.
func (s *CadStage) CompletedAt() *time.Time    { return s.FinalCompleteDate }
func (s *FabricStage) CompletedAt() *time.Time { return s.ActualCompleteDate }
func (s *SampleStage) CompletedAt() *time.Time { return s.ActualSampleCompleteDate }

func (s *CadStage) SetCompletedAt(t *time.Time)    { s.FinalCompleteDate = t }
func (s *FabricStage) SetCompletedAt(t *time.Time) { s.ActualCompleteDate = t }
func (s *SampleStage) SetCompletedAt(t *time.Time) { s.ActualSampleCompleteDate = t }

// State derives the lifecycle position from the stored columns.
func (s StageSchedule) State(completedAt *time.Time) enums.StageState {
	switch {
	case completedAt != nil:
		return enums.StageStateFinished
	case s.Assignee != nil:
		return enums.StageStateAccepted
	default:
		return enums.StageStateUnassigned
	}
}

func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
