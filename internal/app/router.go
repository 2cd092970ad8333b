package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paperdesk/backoffice/internal/ledger"
	"github.com/paperdesk/backoffice/internal/observability"
	"github.com/paperdesk/backoffice/internal/platform/httpx"
	"github.com/paperdesk/backoffice/internal/quotes"
	"github.com/paperdesk/backoffice/internal/supply"
	"github.com/paperdesk/backoffice/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Metrics       *observability.Metrics
	LedgerHandler *ledger.Handler
	QuotesHandler *quotes.Handler
	SupplyHandler *supply.Handler
	JobHandler    *jobs.Handler
	// Ready reports store reachability for /healthz; nil means always ready.
	Ready func(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
}

// NewRouter constructs the chi.Router with API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Ready != nil {
			if err := params.Ready(r.Context()); err != nil {
				params.Logger.Warn("health check failed", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountRoutes(r)
		}
		if params.QuotesHandler != nil {
			params.QuotesHandler.MountRoutes(r)
		}
		if params.SupplyHandler != nil {
			params.SupplyHandler.MountRoutes(r)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
