package stages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tna-backend/pkg/clock"
	"github.com/angelmondragon/tna-backend/pkg/dates"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/metrics"
)

// Planned-completion offsets applied on Accept.
const (
	CadOffsetDays    = 2
	FabricOffsetDays = 15
	SampleOffsetDays = 2
)

const (
	transitionAccept = "accept"
	transitionFinish = "finish"
	transitionReopen = "reopen"
	transitionDelete = "delete"
)

// Lifecycle drives one stage kind through UNASSIGNED -> ACCEPTED -> FINISHED.
type Lifecycle[T any, P record[T]] struct {
	kind        enums.StageKind
	offsetDays  int
	store       Store[T]
	clock       clock.Clock
	metrics     *metrics.StageMetrics
	logg        *logger.Logger
	invalidator CacheInvalidator
}

// LifecycleParams carries the shared collaborators of every lifecycle.
type LifecycleParams struct {
	Clock       clock.Clock
	Metrics     *metrics.StageMetrics
	Logger      *logger.Logger
	Invalidator CacheInvalidator
}

// NewLifecycle binds a lifecycle to a store and a fixed accept offset.
func NewLifecycle[T any, P record[T]](kind enums.StageKind, offsetDays int, store Store[T], params LifecycleParams) (*Lifecycle[T, P], error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid stage kind %q", kind)
	}
	if store == nil {
		return nil, fmt.Errorf("%s stage store required", kind)
	}
	return &Lifecycle[T, P]{
		kind:        kind,
		offsetDays:  offsetDays,
		store:       store,
		clock:       clock.OrReal(params.Clock),
		metrics:     params.Metrics,
		logg:        params.Logger,
		invalidator: params.Invalidator,
	}, nil
}

// Kind reports the stage kind this lifecycle manages.
func (l *Lifecycle[T, P]) Kind() enums.StageKind {
	return l.kind
}

// Accept assigns the stage and re-baselines its planned dates from now.
// Finished stages are rejected untouched.
func (l *Lifecycle[T, P]) Accept(ctx context.Context, stageID uuid.UUID, assignee string) (*T, error) {
	name := strings.TrimSpace(assignee)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee is required").
			WithDetails(map[string]any{"field": "assignee"})
	}

	rec, err := l.load(ctx, stageID)
	if err != nil {
		return nil, err
	}
	p := P(rec)
	if completed := p.CompletedAt(); completed != nil {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyFinished, fmt.Sprintf("%s stage already finished", l.kind)).
			WithDetails(map[string]any{
				"stage_kind":   l.kind,
				"stage_id":     stageID,
				"completed_at": completed.UTC(),
			})
	}

	start := l.clock.Now().UTC()
	due := dates.AddDays(start, l.offsetDays)
	schedule := p.Schedule()
	schedule.Assignee = &name
	schedule.PlannedStartDate = &start
	schedule.PlannedCompleteDate = &due

	if err := l.save(ctx, rec, transitionAccept); err != nil {
		return nil, err
	}
	return rec, nil
}

// Finish stamps the actual completion date, defaulting to now. Calling it
// again overwrites the previous date.
func (l *Lifecycle[T, P]) Finish(ctx context.Context, stageID uuid.UUID, actual *time.Time) (*T, error) {
	rec, err := l.load(ctx, stageID)
	if err != nil {
		return nil, err
	}
	p := P(rec)
	if p.Schedule().Assignee == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s stage must be accepted before it can finish", l.kind)).
			WithDetails(map[string]any{"stage_kind": l.kind, "stage_id": stageID})
	}

	var completed time.Time
	if actual != nil {
		completed = actual.UTC()
	} else {
		completed = l.clock.Now().UTC()
	}
	p.SetCompletedAt(&completed)

	if err := l.save(ctx, rec, transitionFinish); err != nil {
		return nil, err
	}
	return rec, nil
}

// Reopen clears the completion date of a finished stage so it is ACCEPTED again.
func (l *Lifecycle[T, P]) Reopen(ctx context.Context, stageID uuid.UUID) (*T, error) {
	rec, err := l.load(ctx, stageID)
	if err != nil {
		return nil, err
	}
	p := P(rec)
	if p.CompletedAt() == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s stage is not finished", l.kind)).
			WithDetails(map[string]any{"stage_kind": l.kind, "stage_id": stageID})
	}
	p.SetCompletedAt(nil)

	if err := l.save(ctx, rec, transitionReopen); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the stage record regardless of its state.
func (l *Lifecycle[T, P]) Delete(ctx context.Context, stageID uuid.UUID) error {
	if err := l.store.Delete(ctx, stageID); err != nil {
		return l.mapStoreErr(err, stageID, "delete")
	}
	l.invalidate(ctx)
	l.metrics.IncTransition(l.kind.String(), transitionDelete)
	ctx = l.logg.WithStage(ctx, l.kind.String(), stageID.String())
	l.logg.Info(ctx, "stage deleted")
	return nil
}

// Get loads a stage record.
func (l *Lifecycle[T, P]) Get(ctx context.Context, stageID uuid.UUID) (*T, error) {
	return l.load(ctx, stageID)
}

func (l *Lifecycle[T, P]) load(ctx context.Context, stageID uuid.UUID) (*T, error) {
	if stageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stage id is required")
	}
	rec, err := l.store.FindByID(ctx, stageID)
	if err != nil {
		return nil, l.mapStoreErr(err, stageID, "load")
	}
	return rec, nil
}

func (l *Lifecycle[T, P]) save(ctx context.Context, rec *T, transition string) error {
	id, orderID := P(rec).Identity()
	if err := l.store.Save(ctx, rec); err != nil {
		return l.mapStoreErr(err, id, "save")
	}
	l.invalidate(ctx)
	l.metrics.IncTransition(l.kind.String(), transition)

	ctx = l.logg.WithStage(ctx, l.kind.String(), id.String())
	ctx = l.logg.WithOrderID(ctx, orderID.String())
	ctx = l.logg.WithField(ctx, "transition", transition)
	l.logg.Info(ctx, "stage transitioned")
	return nil
}

func (l *Lifecycle[T, P]) invalidate(ctx context.Context) {
	if l.invalidator != nil {
		l.invalidator.Invalidate(ctx)
	}
}

func (l *Lifecycle[T, P]) mapStoreErr(err error, stageID uuid.UUID, op string) error {
	if isNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s stage not found", l.kind)).
			WithDetails(map[string]any{"stage_kind": l.kind, "stage_id": stageID})
	}
	return pkgerrors.Store(err, fmt.Sprintf("%s %s stage", op, l.kind))
}
