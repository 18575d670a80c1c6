package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tna-backend/api/responses"
	"github.com/angelmondragon/tna-backend/api/validators"
	internalorders "github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/internal/shipments"
	"github.com/angelmondragon/tna-backend/pkg/dates"
	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
	"github.com/angelmondragon/tna-backend/pkg/logger"
)

type upsertShipmentRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required,notblank,max=64"`
	ShipDate       string `json:"ship_date" validate:"required"`
	IsComplete     bool   `json:"is_complete"`
}

// GetShipment returns the order's shipment tracking record.
func GetShipment(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rec, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewShipmentView(rec))
	}
}

// PutShipment creates the tracking record or updates the existing one.
func PutShipment(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req upsertShipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipDate, err := dates.Parse("ship_date", req.ShipDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, err := svc.CreateOrUpdate(r.Context(), shipments.UpsertInput{
			OrderID:        orderID,
			TrackingNumber: strings.TrimSpace(req.TrackingNumber),
			ShipDate:       shipDate,
			IsComplete:     req.IsComplete,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewShipmentView(rec))
	}
}
