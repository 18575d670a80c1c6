package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tna-backend/pkg/clock"
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/metrics"
)

// Service exposes stage transitions addressed by kind.
type Service interface {
	Accept(ctx context.Context, kind enums.StageKind, stageID uuid.UUID, assignee string) (*View, error)
	Finish(ctx context.Context, kind enums.StageKind, stageID uuid.UUID, actual *time.Time) (*View, error)
	Reopen(ctx context.Context, kind enums.StageKind, stageID uuid.UUID) (*View, error)
	Delete(ctx context.Context, kind enums.StageKind, stageID uuid.UUID) error
	SetFabricReceived(ctx context.Context, stageID uuid.UUID, received bool) (*View, error)
}

// controller is the kind-erased face of a Lifecycle.
type controller interface {
	accept(ctx context.Context, stageID uuid.UUID, assignee string) (*View, error)
	finish(ctx context.Context, stageID uuid.UUID, actual *time.Time) (*View, error)
	reopen(ctx context.Context, stageID uuid.UUID) (*View, error)
	remove(ctx context.Context, stageID uuid.UUID) error
}

type lifecycleController[T any, P record[T]] struct {
	lc *Lifecycle[T, P]
}

func (c lifecycleController[T, P]) view(rec *T, err error) (*View, error) {
	if err != nil {
		return nil, err
	}
	return ViewOf[T, P](c.lc.kind, P(rec), c.lc.clock.Now()), nil
}

func (c lifecycleController[T, P]) accept(ctx context.Context, stageID uuid.UUID, assignee string) (*View, error) {
	return c.view(c.lc.Accept(ctx, stageID, assignee))
}

func (c lifecycleController[T, P]) finish(ctx context.Context, stageID uuid.UUID, actual *time.Time) (*View, error) {
	return c.view(c.lc.Finish(ctx, stageID, actual))
}

func (c lifecycleController[T, P]) reopen(ctx context.Context, stageID uuid.UUID) (*View, error) {
	return c.view(c.lc.Reopen(ctx, stageID))
}

func (c lifecycleController[T, P]) remove(ctx context.Context, stageID uuid.UUID) error {
	return c.lc.Delete(ctx, stageID)
}

type service struct {
	controllers map[enums.StageKind]controller
	fabric      Store[models.FabricStage]
	clock       clock.Clock
	metrics     *metrics.StageMetrics
	logg        *logger.Logger
	invalidator CacheInvalidator
}

// NewService wires one lifecycle per stage kind over repo.
func NewService(repo *Repository, params LifecycleParams) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stage repository required")
	}
	cad, err := NewLifecycle[models.CadStage, *models.CadStage](enums.StageKindCAD, CadOffsetDays, repo.Cad, params)
	if err != nil {
		return nil, err
	}
	fabric, err := NewLifecycle[models.FabricStage, *models.FabricStage](enums.StageKindFabric, FabricOffsetDays, repo.Fabric, params)
	if err != nil {
		return nil, err
	}
	sample, err := NewLifecycle[models.SampleStage, *models.SampleStage](enums.StageKindSample, SampleOffsetDays, repo.Sample, params)
	if err != nil {
		return nil, err
	}
	return &service{
		controllers: map[enums.StageKind]controller{
			enums.StageKindCAD:    lifecycleController[models.CadStage, *models.CadStage]{lc: cad},
			enums.StageKindFabric: lifecycleController[models.FabricStage, *models.FabricStage]{lc: fabric},
			enums.StageKindSample: lifecycleController[models.SampleStage, *models.SampleStage]{lc: sample},
		},
		fabric:      repo.Fabric,
		clock:       clock.OrReal(params.Clock),
		metrics:     params.Metrics,
		logg:        params.Logger,
		invalidator: params.Invalidator,
	}, nil
}

func (s *service) controllerFor(kind enums.StageKind) (controller, error) {
	c, ok := s.controllers[kind]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stage kind").
			WithDetails(map[string]any{"kind": kind})
	}
	return c, nil
}

func (s *service) Accept(ctx context.Context, kind enums.StageKind, stageID uuid.UUID, assignee string) (*View, error) {
	c, err := s.controllerFor(kind)
	if err != nil {
		return nil, err
	}
	return c.accept(ctx, stageID, assignee)
}

func (s *service) Finish(ctx context.Context, kind enums.StageKind, stageID uuid.UUID, actual *time.Time) (*View, error) {
	c, err := s.controllerFor(kind)
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, stageID, actual)
}

func (s *service) Reopen(ctx context.Context, kind enums.StageKind, stageID uuid.UUID) (*View, error) {
	c, err := s.controllerFor(kind)
	if err != nil {
		return nil, err
	}
	return c.reopen(ctx, stageID)
}

func (s *service) Delete(ctx context.Context, kind enums.StageKind, stageID uuid.UUID) error {
	c, err := s.controllerFor(kind)
	if err != nil {
		return err
	}
	return c.remove(ctx, stageID)
}

// SetFabricReceived toggles the fabric receipt date independently of the
// accept/finish lifecycle. Marking an already received stage keeps the
// original timestamp.
func (s *service) SetFabricReceived(ctx context.Context, stageID uuid.UUID, received bool) (*View, error) {
	if stageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stage id is required")
	}
	rec, err := s.fabric.FindByID(ctx, stageID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fabric stage not found").
				WithDetails(map[string]any{"stage_kind": enums.StageKindFabric, "stage_id": stageID})
		}
		return nil, pkgerrors.Store(err, "load fabric stage")
	}

	now := s.clock.Now().UTC()
	transition := "unreceive"
	if received {
		transition = "receive"
		if rec.ActualReceiveDate == nil {
			rec.ActualReceiveDate = &now
		}
	} else {
		rec.ActualReceiveDate = nil
	}

	if err := s.fabric.Save(ctx, rec); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fabric stage not found").
				WithDetails(map[string]any{"stage_kind": enums.StageKindFabric, "stage_id": stageID})
		}
		return nil, pkgerrors.Store(err, "save fabric stage")
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	s.metrics.IncTransition(enums.StageKindFabric.String(), transition)

	ctx = s.logg.WithStage(ctx, enums.StageKindFabric.String(), rec.ID.String())
	ctx = s.logg.WithOrderID(ctx, rec.OrderID.String())
	ctx = s.logg.WithField(ctx, "transition", transition)
	s.logg.Info(ctx, "fabric receipt updated")

	return ViewOf(enums.StageKindFabric, rec, now), nil
}
