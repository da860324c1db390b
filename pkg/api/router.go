// Package api assembles the daemon's HTTP surface: health and readiness
// probes, the completer registry listing, and the metrics endpoint. The
// completion protocol itself is served by the completers and is not part
// of this router.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/polydev/polyd/internal/logger"
	"github.com/polydev/polyd/internal/telemetry"
	"github.com/polydev/polyd/pkg/api/handlers"
	"github.com/polydev/polyd/pkg/completer"
	"github.com/polydev/polyd/pkg/metrics"
)

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	// Lifecycle reports serving state for the readiness probe. May be nil.
	Lifecycle handlers.StateReporter

	// Registry is the completer registry exposed at /completers.
	Registry *completer.Registry

	// Version is reported by /health and /version.
	Version string

	// Metrics records per-request metrics and, when enabled, provides the
	// /metrics endpoint. May be nil.
	Metrics metrics.ServerMetrics
}

// NewRouter creates the chi router with the full middleware stack and all
// routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(cfg.Lifecycle, cfg.Version)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})
	r.Get("/version", healthHandler.Version)

	if cfg.Registry != nil {
		completersHandler := handlers.NewCompletersHandler(cfg.Registry)
		r.Get("/completers", completersHandler.List)
	}

	if metricsHandler := metrics.Handler(); metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	// Root redirect to health for convenience.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// isHealthPath reports whether the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs requests through the internal logger and records
// request metrics when a recorder is attached.
//
// Healthcheck requests are logged at DEBUG to keep probe noise out of the
// logs.
func requestLogger(m metrics.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			ctx, span := telemetry.StartHTTPSpan(r.Context(), r.Method, r.URL.Path,
				telemetry.HTTPRequestID(requestID))
			defer span.End()

			// Wrap response writer to capture the status code.
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			span.SetAttributes(telemetry.HTTPStatus(ww.Status()))
			duration := time.Since(start)
			if m != nil {
				m.RecordRequest(r.Method, r.URL.Path, ww.Status(), duration)
			}

			logArgs := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", duration.String(),
			}
			if isHealthPath(r.URL.Path) {
				logger.Debug("request completed", logArgs...)
			} else {
				logger.Info("request completed", logArgs...)
			}
		})
	}
}
