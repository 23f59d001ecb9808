package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry with HTTP and task store collectors.
// It implements ports.TaskObserver and ports.SessionObserver.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	tasksCreated       prometheus.Counter
	taskCreateRejected prometheus.Counter
	taskToggles        *prometheus.CounterVec

	sessionsOpened prometheus.Counter
	sessionsClosed *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartplanner_tasks_created_total",
			Help: "Tasks appended to a session store",
		}),
		taskCreateRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartplanner_task_create_rejected_total",
			Help: "Create calls rejected with an invalid argument",
		}),
		taskToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartplanner_task_toggles_total",
				Help: "Completion toggles by resulting state",
			},
			[]string{"completed"},
		),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartplanner_sessions_opened_total",
			Help: "Sessions opened",
		}),
		sessionsClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartplanner_sessions_closed_total",
				Help: "Sessions discarded by reason",
			},
			[]string{"reason"},
		),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartplanner_active_sessions",
			Help: "Sessions currently holding a task store",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.tasksCreated,
		m.taskCreateRejected,
		m.taskToggles,
		m.sessionsOpened,
		m.sessionsClosed,
		m.activeSessions,
	)

	return m
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path string, status int, seconds float64) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(seconds)
}

func (m *Metrics) TaskCreated() {
	m.tasksCreated.Inc()
}

func (m *Metrics) TaskCreateRejected() {
	m.taskCreateRejected.Inc()
}

func (m *Metrics) TaskToggled(completed bool) {
	m.taskToggles.WithLabelValues(strconv.FormatBool(completed)).Inc()
}

func (m *Metrics) SessionOpened() {
	m.sessionsOpened.Inc()
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed(reason string) {
	m.sessionsClosed.WithLabelValues(reason).Inc()
	m.activeSessions.Dec()
}
