package handlers

import (
	"net/http"
	"time"

	"github.com/polydev/polyd/pkg/server"
)

// StateReporter reports the server lifecycle state for readiness checks.
type StateReporter interface {
	State() server.State
}

// HealthHandler handles the unauthenticated health endpoints.
//
//   - Liveness: is the daemon process responsive?
//   - Readiness: is the lifecycle actually serving?
type HealthHandler struct {
	lifecycle StateReporter
	version   string
	startTime time.Time
}

// NewHealthHandler creates a health handler. The lifecycle may be nil, in
// which case readiness always reports unavailable.
func NewHealthHandler(lifecycle StateReporter, version string) *HealthHandler {
	return &HealthHandler{
		lifecycle: lifecycle,
		version:   version,
		startTime: time.Now(),
	}
}

// Liveness handles GET /health. It succeeds as long as the HTTP server is
// responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	writeJSON(w, http.StatusOK, okResponse(map[string]any{
		"service":    "polyd",
		"version":    h.version,
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready. It reports 200 only while the
// lifecycle is Running: before Start and during shutdown the daemon must
// not receive new traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.lifecycle == nil {
		writeJSON(w, http.StatusServiceUnavailable, unavailableResponse("lifecycle not initialized"))
		return
	}

	state := h.lifecycle.State()
	if state != server.StateRunning {
		writeJSON(w, http.StatusServiceUnavailable, unavailableResponse("server is "+state.String()))
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{
		"state": state.String(),
	}))
}

// Version handles GET /version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse(map[string]any{
		"version": h.version,
	}))
}
