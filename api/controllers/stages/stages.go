package stages

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tna-backend/api/responses"
	"github.com/angelmondragon/tna-backend/api/validators"
	internalstages "github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/pkg/dates"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/logger"
)

type acceptRequest struct {
	Assignee string `json:"assignee" validate:"required,notblank,max=120"`
}

type finishRequest struct {
	ActualCompleteDate string `json:"actual_complete_date,omitempty"`
}

type receiveRequest struct {
	Received *bool `json:"received" validate:"required"`
}

// Accept assigns the stage and re-baselines its planned dates.
func Accept(svc internalstages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stage service unavailable"))
			return
		}
		kind, stageID, err := parseTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req acceptRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Accept(r.Context(), kind, stageID, req.Assignee)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Finish records the actual completion. The body is optional and defaults
// the completion to now.
func Finish(svc internalstages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stage service unavailable"))
			return
		}
		kind, stageID, err := parseTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req finishRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actual, err := dates.ParseOptional("actual_complete_date", req.ActualCompleteDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Finish(r.Context(), kind, stageID, actual)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Reopen clears the completion of a finished stage.
func Reopen(svc internalstages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stage service unavailable"))
			return
		}
		kind, stageID, err := parseTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Reopen(r.Context(), kind, stageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func Delete(svc internalstages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stage service unavailable"))
			return
		}
		kind, stageID, err := parseTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), kind, stageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// Receive toggles the fabric receipt date. Only fabric stages accept it.
func Receive(svc internalstages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stage service unavailable"))
			return
		}
		kind, stageID, err := parseTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if kind != enums.StageKindFabric {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "only fabric stages track receipt").
				WithDetails(map[string]any{"field": "kind"}))
			return
		}
		var req receiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.SetFabricReceived(r.Context(), stageID, *req.Received)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func parseTarget(r *http.Request) (enums.StageKind, uuid.UUID, error) {
	kind, err := enums.ParseStageKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stage kind").
			WithDetails(map[string]any{"field": "kind"})
	}
	stageID, err := validators.ParseUUIDParam(r, "stageId")
	if err != nil {
		return "", uuid.Nil, err
	}
	return kind, stageID, nil
}
