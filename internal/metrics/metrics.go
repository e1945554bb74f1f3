package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors of the server.
type Metrics struct {
	// Session metrics
	ActiveSessions   *prometheus.GaugeVec
	SessionsStarted  *prometheus.CounterVec
	SessionsFailed   *prometheus.CounterVec
	SessionsStopped  *prometheus.CounterVec
	SessionDuration  *prometheus.HistogramVec
	SpawnFailures    prometheus.Counter
	DeviceLosses     prometheus.Counter
	ProcessesRunning prometheus.GaugeFunc

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates all collectors and registers them with reg.
// running reports the number of live external processes.
func New(reg prometheus.Registerer, running func() float64) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ActiveSessions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "avcapture_active_sessions",
			Help: "Number of running sessions",
		}, []string{"kind"}), // kind: local, record or preview
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avcapture_sessions_started_total",
			Help: "Total number of sessions started",
		}, []string{"kind"}),
		SessionsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avcapture_sessions_failed_total",
			Help: "Total number of sessions that ended in the failed state",
		}, []string{"kind", "reason"}),
		SessionsStopped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avcapture_sessions_stopped_total",
			Help: "Total number of sessions stopped on request",
		}, []string{"kind"}),
		SessionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "avcapture_session_duration_seconds",
			Help:    "Duration of sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10s to ~2.8h
		}, []string{"kind"}),
		SpawnFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "avcapture_spawn_failures_total",
			Help: "Total number of processes that failed to launch",
		}),
		DeviceLosses: f.NewCounter(prometheus.CounterOpts{
			Name: "avcapture_device_losses_total",
			Help: "Total number of local sessions stopped by device disconnects",
		}),
		ProcessesRunning: f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "avcapture_processes_running",
			Help: "Number of external processes not yet reaped",
		}, running),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "avcapture_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "avcapture_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// RecordSessionStart records a session reaching running.
func (m *Metrics) RecordSessionStart(kind string) {
	m.ActiveSessions.WithLabelValues(kind).Inc()
	m.SessionsStarted.WithLabelValues(kind).Inc()
}

// RecordSessionEnd records a running session leaving running. reason is
// empty for a clean end.
func (m *Metrics) RecordSessionEnd(kind, reason string, seconds float64) {
	m.ActiveSessions.WithLabelValues(kind).Dec()
	m.SessionDuration.WithLabelValues(kind).Observe(seconds)
	if reason == "" {
		m.SessionsStopped.WithLabelValues(kind).Inc()
	} else {
		m.SessionsFailed.WithLabelValues(kind, reason).Inc()
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(seconds)
}
