// Package handlers implements the HTTP handlers behind the polyd API
// router.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/polydev/polyd/internal/logger"
)

// Response is the standard API response wrapper.
//
//   - Status indicates the overall result ("ok", "unavailable")
//   - Timestamp provides response time for debugging
//   - Data carries the payload (optional)
//   - Error carries error details when Status indicates failure (optional)
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func okResponse(data any) Response {
	return Response{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func unavailableResponse(errMsg string) Response {
	return Response{
		Status:    "unavailable",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("failed to encode response", "error", err)
	}
}
