package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kagisom/gatehouse/api/controllers"
	"github.com/kagisom/gatehouse/api/middleware"
	"github.com/kagisom/gatehouse/internal/authority"
	"github.com/kagisom/gatehouse/pkg/config"
	"github.com/kagisom/gatehouse/pkg/db"
	"github.com/kagisom/gatehouse/pkg/logger"
)

// NewRouter builds the central reconciliation service's handler.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	syncService authority.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	r.Post("/api/sync", controllers.Sync(syncService, logg))

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return r
}
