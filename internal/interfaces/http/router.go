// Package http assembles the carverdict HTTP API: handlers, middleware chain
// and server lifecycle.
package http

import (
	"net/http"

	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/carverdict/internal/interfaces/http/handlers"
	"github.com/turtacn/carverdict/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure the route tree needs.
type RouterConfig struct {
	AssessmentHandler *handlers.AssessmentHandler
	HealthHandler     *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
	Logging          *middleware.LoggingConfig

	// RateLimiter is optional; nil disables per-client limiting.
	RateLimiter *middleware.ClientLimiter
	RateLimit   middleware.RateLimitConfig
}

// routes lists the paths that get their own metrics label.
var routes = []string{
	"/api/v1/assessments",
	"/api/v1/prices",
	"/api/v1/survival",
	"/api/v1/thresholds",
	"/healthz",
	"/readyz",
}

// NewRouter builds the route tree and wraps it in the global middleware
// chain: request ID, recovery, metrics, rate limiting, logging.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	mux := http.NewServeMux()

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(mux)
	}
	if cfg.AssessmentHandler != nil {
		cfg.AssessmentHandler.RegisterRoutes(mux)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, cfg.MetricsCollector.Handler())
	}

	logCfg := middleware.DefaultLoggingConfig()
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}

	var h http.Handler = mux
	h = middleware.RequestLogging(cfg.Logger, logCfg)(h)
	if cfg.RateLimiter != nil {
		h = middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit, cfg.Metrics)(h)
	}
	h = middleware.Metrics(cfg.Metrics, routes...)(h)
	h = middleware.Recovery(cfg.Logger, cfg.Metrics)(h)
	h = middleware.RequestID(h)
	return h
}
