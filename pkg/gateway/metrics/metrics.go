// Package metrics exposes Prometheus metrics for the gateway. All recording
// methods are safe to call on a nil *Metrics so callers never have to guard
// an optional dependency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	SessionsActive  prometheus.Gauge
	SessionsTotal   prometheus.Counter
	TurnsTotal      *prometheus.CounterVec
	TurnsDropped    *prometheus.CounterVec
	TurnDuration    *prometheus.HistogramVec
	AudioBytesTotal *prometheus.CounterVec

	CodeExecutionsTotal *prometheus.CounterVec

	RateLimitHits *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "prepai"
	}

	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "route"},
	)

	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions_active",
			Help:      "Number of live interview sessions currently connected",
		},
	)

	sessionsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_sessions_total",
			Help:      "Total number of live interview sessions",
		},
	)

	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of completed interview turns",
		},
		[]string{"kind"},
	)

	turnsDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_dropped_total",
			Help:      "Turn triggers dropped because a turn was already in flight",
		},
		[]string{"kind"},
	)

	turnDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "End to end interview turn duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"kind"},
	)

	audioBytesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Audio bytes moved over live sessions",
		},
		[]string{"direction"},
	)

	codeExecutionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_executions_total",
			Help:      "Total number of candidate code executions",
		},
		[]string{"language", "status"},
	)

	rateLimitHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of rate limit hits",
		},
		[]string{"limit_type"},
	)

	registry.MustRegister(
		requestsTotal,
		requestDuration,
		sessionsActive,
		sessionsTotal,
		turnsTotal,
		turnsDropped,
		turnDuration,
		audioBytesTotal,
		codeExecutionsTotal,
		rateLimitHits,
	)

	return &Metrics{
		registry:            registry,
		RequestsTotal:       requestsTotal,
		RequestDuration:     requestDuration,
		SessionsActive:      sessionsActive,
		SessionsTotal:       sessionsTotal,
		TurnsTotal:          turnsTotal,
		TurnsDropped:        turnsDropped,
		TurnDuration:        turnDuration,
		AudioBytesTotal:     audioBytesTotal,
		CodeExecutionsTotal: codeExecutionsTotal,
		RateLimitHits:       rateLimitHits,
	}
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) TurnCompleted(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(kind).Inc()
	m.TurnDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) TurnDropped(kind string) {
	if m == nil {
		return
	}
	m.TurnsDropped.WithLabelValues(kind).Inc()
}

func (m *Metrics) AudioReceived(bytes int) {
	if m == nil {
		return
	}
	m.AudioBytesTotal.WithLabelValues("inbound").Add(float64(bytes))
}

func (m *Metrics) AudioSent(bytes int) {
	if m == nil {
		return
	}
	m.AudioBytesTotal.WithLabelValues("outbound").Add(float64(bytes))
}

func (m *Metrics) CodeExecuted(language string, success bool) {
	if m == nil {
		return
	}
	status := "error"
	if success {
		status = "ok"
	}
	m.CodeExecutionsTotal.WithLabelValues(language, status).Inc()
}

func (m *Metrics) RateLimitHit(limitType string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(limitType).Inc()
}
