package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"referearn/internal/platform/metrics"
	"referearn/internal/platform/middleware"
	"referearn/pkg/platform/middleware/metadata"
	"referearn/pkg/platform/middleware/requesttime"
)

// Registrar mounts a feature's routes on the root router.
type Registrar interface {
	Register(r chi.Router)
}

// Config holds what the root router needs besides the feature routes.
type Config struct {
	// FrontendURL is the single origin allowed by CORS.
	FrontendURL string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// NewRouter builds the root handler: the shared middleware chain, CORS,
// /metrics and every registrar's routes.
func NewRouter(cfg Config, routes ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Latency(cfg.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, reg := range routes {
		reg.Register(r)
	}

	return r
}
