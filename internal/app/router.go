package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-ledger/internal/ap"
	"github.com/meridian-erp/meridian-ledger/internal/ar"
	"github.com/meridian-erp/meridian-ledger/internal/costs"
	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/mappings"
	"github.com/meridian-erp/meridian-ledger/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Metrics         *observability.Metrics
	LedgerHandler   *ledger.Handler
	APHandler       *ap.Handler
	ARHandler       *ar.Handler
	CostsHandler    *costs.Handler
	MappingsHandler *mappings.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(params.Config, params.Logger))
		r.Use(TenantResolver(params.Config))

		if params.LedgerHandler != nil {
			r.Route("/ledger", params.LedgerHandler.MountRoutes)
		}
		if params.APHandler != nil {
			r.Route("/hooks/ap", params.APHandler.MountRoutes)
		}
		if params.ARHandler != nil {
			r.Route("/hooks/ar", params.ARHandler.MountRoutes)
		}
		if params.CostsHandler != nil {
			r.Route("/hooks/costs", params.CostsHandler.MountRoutes)
		}
		if params.MappingsHandler != nil {
			r.Route("/mappings", params.MappingsHandler.MountRoutes)
		}
	})

	return r
}
