package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/wildgate/adapters/metrics"
	"github.com/artpar/wildgate/pkg/apierror"
)

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	// Metrics enables request metrics and, with MetricsPath, the scrape endpoint.
	Metrics     *metrics.Collector
	MetricsPath string
	// Gatherer backs the scrape endpoint. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	// Docs is mounted when non-nil.
	Docs *DocsHandler

	Version VersionResponse
}

// NewRouter creates the main HTTP router. API routes are resolved by api
// itself, so it receives every request no other route claims.
func NewRouter(api http.Handler, health *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	// Metrics middleware (if enabled)
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		if cfg.Gatherer != nil {
			r.Handle(cfg.MetricsPath, promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
		} else {
			r.Handle(cfg.MetricsPath, promhttp.Handler())
		}
	}

	r.Get("/version", Version(cfg.Version))

	if cfg.Docs != nil {
		cfg.Docs.Mount(r)
	}

	r.NotFound(api.ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apierror.Write(w, apierror.MethodNotAllowed(req.Method, nil))
	})

	return r
}
