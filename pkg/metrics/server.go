// Package metrics defines the observability interfaces for polyd and the
// process-wide Prometheus registry behind them.
//
// Interfaces are nil-safe by convention: when metrics are disabled the
// constructors return nil and callers pass nil through, which costs
// nothing at runtime.
package metrics

import "time"

// ServerMetrics provides observability for the HTTP server's connection
// channels and request handling.
//
// Pass nil to disable collection with zero overhead.
type ServerMetrics interface {
	// RecordChannelOpened increments the total opened channels counter.
	RecordChannelOpened()

	// RecordChannelClosed increments the total closed channels counter.
	RecordChannelClosed()

	// RecordChannelsForceClosed records channels force-closed during
	// shutdown.
	RecordChannelsForceClosed(n int)

	// SetOpenChannels updates the current open channel gauge.
	SetOpenChannels(n int)

	// RecordRequest records a completed HTTP request.
	RecordRequest(method, path string, status int, duration time.Duration)
}

// NewServerMetrics creates a Prometheus-backed ServerMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), so the
// result can be passed straight to the server with zero overhead.
func NewServerMetrics() ServerMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusServerMetrics()
}

// newPrometheusServerMetrics is implemented in pkg/metrics/prometheus.
// The indirection avoids an import cycle while keeping the API clean.
var newPrometheusServerMetrics func() ServerMetrics

// RegisterServerMetricsConstructor registers the Prometheus server metrics
// constructor. Called by pkg/metrics/prometheus during package init.
func RegisterServerMetricsConstructor(constructor func() ServerMetrics) {
	newPrometheusServerMetrics = constructor
}
