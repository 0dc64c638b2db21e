package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kagisom/gatehouse/api/controllers"
	"github.com/kagisom/gatehouse/api/middleware"
	"github.com/kagisom/gatehouse/internal/reconcile"
	"github.com/kagisom/gatehouse/internal/register"
	"github.com/kagisom/gatehouse/pkg/config"
	"github.com/kagisom/gatehouse/pkg/logger"
)

// NewAgentRouter builds the per-device agent's handler: the thin UI-facing
// surface over the local store plus the sync controls.
func NewAgentRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store register.Store,
	runner *reconcile.Runner,
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
	})

	r.Route("/api/visitors", func(r chi.Router) {
		r.Post("/", controllers.RegisterVisitor(store, logg))
		r.Get("/search", controllers.SearchVisitors(store, logg))
		r.Get("/{idNumber}", controllers.GetVisitor(store, logg))
		r.Get("/{idNumber}/visits", controllers.VisitorHistory(store, logg))
	})

	r.Route("/api/visits", func(r chi.Router) {
		r.Get("/", controllers.ListVisits(store, logg))
		r.Get("/{id}", controllers.GetVisit(store, logg))
		r.Patch("/{id}", controllers.UpdateVisit(store, logg))
		r.Put("/{id}/items", controllers.UpdateVisitItems(store, logg))
	})

	r.Route("/api/sync", func(r chi.Router) {
		r.Post("/run", controllers.RunSync(runner, logg))
		r.Get("/status", controllers.SyncStatus(runner))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return r
}
