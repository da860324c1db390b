// Package prometheus provides the Prometheus implementations of the
// metrics interfaces. Importing it for side effects wires the
// constructors into pkg/metrics.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/polydev/polyd/pkg/metrics"
)

func init() {
	metrics.RegisterServerMetricsConstructor(newServerMetrics)
}

// serverMetrics is the Prometheus implementation of metrics.ServerMetrics.
type serverMetrics struct {
	channelsOpened      prometheus.Counter
	channelsClosed      prometheus.Counter
	channelsForceClosed prometheus.Counter
	openChannels        prometheus.Gauge
	requests            *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
}

func newServerMetrics() metrics.ServerMetrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}

	return &serverMetrics{
		channelsOpened: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "polyd_server_channels_opened_total",
			Help: "Total number of connection channels opened",
		}),
		channelsClosed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "polyd_server_channels_closed_total",
			Help: "Total number of connection channels closed",
		}),
		channelsForceClosed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "polyd_server_channels_force_closed_total",
			Help: "Total number of connection channels force-closed during shutdown",
		}),
		openChannels: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "polyd_server_open_channels",
			Help: "Current number of open connection channels",
		}),
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyd_server_requests_total",
				Help: "Total number of HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "polyd_server_request_duration_milliseconds",
				Help: "HTTP request duration in milliseconds",
				Buckets: []float64{
					0.5,  // fast health probes
					1,    // 1ms
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms
					100,  // 100ms
					500,  // 500ms
					1000, // 1s
					5000, // 5s - slow completion backends
				},
			},
			[]string{"method", "path"},
		),
	}
}

func (m *serverMetrics) RecordChannelOpened() {
	m.channelsOpened.Inc()
}

func (m *serverMetrics) RecordChannelClosed() {
	m.channelsClosed.Inc()
}

func (m *serverMetrics) RecordChannelsForceClosed(n int) {
	m.channelsForceClosed.Add(float64(n))
}

func (m *serverMetrics) SetOpenChannels(n int) {
	m.openChannels.Set(float64(n))
}

func (m *serverMetrics) RecordRequest(method, path string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).
		Observe(float64(duration.Microseconds()) / 1000.0)
}
