package rest

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterConfig lists everything the HTTP surface serves.
type RouterConfig struct {
	Predictions    *PredictionHandler
	Health         *HealthHandler
	Metrics        http.Handler
	Logger         *slog.Logger
	RateLimit      int // requests per second per client
	AllowedOrigins []string
}

// NewRouter builds the routes and wraps them in the middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	cfg.Predictions.RegisterRoutes(mux)
	cfg.Health.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Applied in reverse order.
	var h http.Handler = mux
	h = LoggingMiddleware(cfg.Logger)(h)
	h = PerClientRateLimitMiddleware(NewPerClientRateLimiter(cfg.RateLimit))(h)
	h = CORSMiddleware(cfg.AllowedOrigins)(h)
	h = otelhttp.NewHandler(h, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return h
}
