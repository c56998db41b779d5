package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockroom-app/stockroom/internal/audit"
	"github.com/stockroom-app/stockroom/internal/auth"
	"github.com/stockroom-app/stockroom/internal/catalog"
	"github.com/stockroom-app/stockroom/internal/ledger"
	"github.com/stockroom-app/stockroom/internal/observability"
	"github.com/stockroom-app/stockroom/internal/replenish"
	"github.com/stockroom-app/stockroom/internal/shared"
	"github.com/stockroom-app/stockroom/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	Profiles         ProfileLookup
	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	LedgerHandler    *ledger.Handler
	ReplenishHandler *replenish.Handler
	AuditHandler     *audit.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with stockroom defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Profiles:       params.Profiles,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.CatalogHandler != nil {
		r.Route("/items", params.CatalogHandler.MountRoutes)
	}
	if params.LedgerHandler != nil {
		r.Route("/movements", params.LedgerHandler.MountRoutes)
	}
	if params.ReplenishHandler != nil {
		r.Route("/low-stock", params.ReplenishHandler.MountLowStock)
		r.Route("/orders", params.ReplenishHandler.MountOrders)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
