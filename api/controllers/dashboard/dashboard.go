package dashboard

import (
	"net/http"

	ordercontrollers "github.com/angelmondragon/tna-backend/api/controllers/orders"
	"github.com/angelmondragon/tna-backend/api/responses"
	"github.com/angelmondragon/tna-backend/internal/progress"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/logger"
)

// Departments returns completion per department for the filtered orders.
func Departments(svc progress.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "progress service unavailable"))
			return
		}
		filter, err := ordercontrollers.ParseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.DepartmentProgress(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// Summary returns the on-process / completed / overdue order counts.
func Summary(svc progress.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "progress service unavailable"))
			return
		}
		filter, err := ordercontrollers.ParseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.OrderSummary(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
