package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tna-backend/api/middleware"
	"github.com/angelmondragon/tna-backend/api/responses"
	"github.com/angelmondragon/tna-backend/api/validators"
	internalorders "github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/pkg/dates"
	"github.com/angelmondragon/tna-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/pagination"
)

const maxQueryLength = 100

type createOrderRequest struct {
	StyleCode         string  `json:"style_code" validate:"required,notblank,max=64"`
	ItemName          string  `json:"item_name" validate:"required,notblank,max=200"`
	BuyerName         *string `json:"buyer_name,omitempty" validate:"omitempty,max=200"`
	OrderDate         string  `json:"order_date" validate:"required"`
	SampleSendingDate string  `json:"sample_sending_date" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active cancelled inactive"`
}

// Create opens an order owned by the caller together with its empty stages.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderDate, err := dates.Parse("order_date", req.OrderDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sendingDate, err := dates.Parse("sample_sending_date", req.SampleSendingDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Create(r.Context(), internalorders.CreateInput{
			OwnerID:           userID,
			StyleCode:         req.StyleCode,
			ItemName:          req.ItemName,
			BuyerName:         req.BuyerName,
			OrderDate:         orderDate,
			SampleSendingDate: sendingDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// List returns a cursor page of orders matching the query filter.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		filter, err := ParseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns the order with stage badges, shipment and gate outcome.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Detail(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateStatus(r.Context(), orderID, enums.OrderStatus(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ParseFilter reads owner_id, from, to and q from the query string.
func ParseFilter(r *http.Request) (internalorders.Filter, error) {
	var filter internalorders.Filter
	owner, err := validators.ParseQueryUUID(r, "owner_id")
	if err != nil {
		return filter, err
	}
	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return filter, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return filter, err
	}
	if from != nil && to != nil && dates.IsBeforeDay(*to, *from) {
		return filter, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to").
			WithDetails(map[string]any{"field": "from"})
	}
	filter.OwnerID = owner
	filter.DateFrom = from
	filter.DateTo = to
	filter.Query = validators.ParseQuerySearch(r, "q", maxQueryLength)
	return filter, nil
}
