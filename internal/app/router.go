package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicore-erp/clinicore/internal/inventory"
	"github.com/clinicore-erp/clinicore/internal/orders"
	"github.com/clinicore-erp/clinicore/internal/procurement"
	"github.com/clinicore-erp/clinicore/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	InventoryHandler   *inventory.Handler
	ProcurementHandler *procurement.Handler
	OrdersHandler      *orders.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/inventory", params.InventoryHandler.MountRoutes)
	r.Route("/procurement", params.ProcurementHandler.MountRoutes)
	r.Route("/orders", params.OrdersHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
