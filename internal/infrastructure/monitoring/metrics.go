package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Ingestion metrics
	MessagesTotal  *prometheus.CounterVec
	IngestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsEvicted prometheus.Counter

	// Provider metrics
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	LimiterWait      prometheus.Histogram

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetry_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		MessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_messages_total",
				Help: "Total number of ingested messages by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		IngestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetry_ingest_duration_seconds",
				Help:    "Message handling duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
			[]string{"type"},
		),

		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "telemetry_sessions_active",
				Help: "Number of currently active sessions",
			},
		),
		SessionsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_sessions_created_total",
				Help: "Total number of sessions created",
			},
		),
		SessionsEvicted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_sessions_evicted_total",
				Help: "Total number of sessions removed by the TTL sweep",
			},
		),

		ProviderCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_provider_calls_total",
				Help: "Total number of language-model provider calls",
			},
			[]string{"op", "outcome"},
		),
		ProviderDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetry_provider_call_duration_seconds",
				Help:    "Provider call duration in seconds, excluding limiter wait",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"op"},
		),
		LimiterWait: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "telemetry_limiter_wait_seconds",
				Help:    "Time spent waiting for a rate limiter permit",
				Buckets: []float64{.001, .01, .1, .5, 1, 5, 15, 30, 60},
			},
		),

		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_events_published_total",
				Help: "Total number of events published to subscribers",
			},
			[]string{"type"},
		),
		EventsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_events_dropped_total",
				Help: "Events dropped because a subscriber buffer was full",
			},
			[]string{"type"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "telemetry_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "telemetry_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMessage records one handled ingestion message
func (m *Metrics) RecordMessage(msgType, outcome string, duration time.Duration) {
	m.MessagesTotal.WithLabelValues(msgType, outcome).Inc()
	m.IngestDuration.WithLabelValues(msgType).Observe(duration.Seconds())
}

// RecordProviderCall records one provider call
func (m *Metrics) RecordProviderCall(op, outcome string, duration time.Duration) {
	m.ProviderCalls.WithLabelValues(op, outcome).Inc()
	m.ProviderDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordLimiterWait records time spent waiting for a permit
func (m *Metrics) RecordLimiterWait(duration time.Duration) {
	m.LimiterWait.Observe(duration.Seconds())
}

// RecordEvent records one published event
func (m *Metrics) RecordEvent(eventType string, dropped int) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
	if dropped > 0 {
		m.EventsDropped.WithLabelValues(eventType).Add(float64(dropped))
	}
}

// SessionCreated increments session gauges
func (m *Metrics) SessionCreated() {
	m.SessionsActive.Inc()
	m.SessionsCreated.Inc()
}

// SessionsSwept records sessions removed by a sweep pass
func (m *Metrics) SessionsSwept(count int) {
	if count > 0 {
		m.SessionsActive.Sub(float64(count))
		m.SessionsEvicted.Add(float64(count))
	}
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
