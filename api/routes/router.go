package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tna-backend/api/controllers"
	dashboardcontrollers "github.com/angelmondragon/tna-backend/api/controllers/dashboard"
	ordercontrollers "github.com/angelmondragon/tna-backend/api/controllers/orders"
	stagecontrollers "github.com/angelmondragon/tna-backend/api/controllers/stages"
	"github.com/angelmondragon/tna-backend/api/middleware"
	"github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/internal/progress"
	"github.com/angelmondragon/tna-backend/internal/shipments"
	"github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/pkg/config"
	"github.com/angelmondragon/tna-backend/pkg/logger"
)

// NewRouter wires health, metrics and the /api/v1 surface. cachePinger may be
// nil when redis is not configured.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	cachePinger controllers.Pinger,
	ordersSvc orders.Service,
	stagesSvc stages.Service,
	shipmentsSvc shipments.Service,
	progressSvc progress.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, cachePinger))
	})

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersSvc, logg))
			r.Get("/", ordercontrollers.List(ordersSvc, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(ordersSvc, logg))
				r.Patch("/status", ordercontrollers.UpdateStatus(ordersSvc, logg))
				r.Delete("/", ordercontrollers.Delete(ordersSvc, logg))
				r.Get("/shipment", ordercontrollers.GetShipment(shipmentsSvc, logg))
				r.Put("/shipment", ordercontrollers.PutShipment(shipmentsSvc, logg))
			})
		})

		r.Route("/stages/{kind}/{stageId}", func(r chi.Router) {
			r.Post("/accept", stagecontrollers.Accept(stagesSvc, logg))
			r.Post("/finish", stagecontrollers.Finish(stagesSvc, logg))
			r.Post("/reopen", stagecontrollers.Reopen(stagesSvc, logg))
			r.Post("/receive", stagecontrollers.Receive(stagesSvc, logg))
			r.Delete("/", stagecontrollers.Delete(stagesSvc, logg))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/departments", dashboardcontrollers.Departments(progressSvc, logg))
			r.Get("/summary", dashboardcontrollers.Summary(progressSvc, logg))
		})
	})

	return r
}
