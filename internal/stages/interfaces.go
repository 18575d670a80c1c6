package stages

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tna-backend/pkg/db/models"
)

// Store persists one stage kind. Missing rows surface as gorm.ErrRecordNotFound.
type Store[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*T, error)
	ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]T, error)
	Save(ctx context.Context, record *T) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// record is satisfied by pointers to the three stage models.
type record[T any] interface {
	*T
	Identity() (id uuid.UUID, orderID uuid.UUID)
	Schedule() *models.StageSchedule
	CompletedAt() *time.Time
	SetCompletedAt(*time.Time)
}

// CacheInvalidator is told about every committed write that changes
// dashboard inputs.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}
