// Package metrics provides Prometheus metrics for the raidline session engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsOpened prometheus.Counter
	sessionsClosed prometheus.Counter
	sessionOpen    prometheus.Gauge

	// Link collection
	submissionsAccepted prometheus.Counter
	submissionsIgnored  prometheus.Counter

	// External service health
	lookupFailures prometheus.Counter
	fetchFailures  prometheus.Counter

	// Scoring
	scoringDuration   prometheus.Histogram
	participantsTotal prometheus.Counter

	// Registry
	registryMembers prometheus.Gauge

	// HTTP API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "raidline",
		subsystem:        "session",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsOpened = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_opened_total",
		Help:      "Total number of engagement windows opened",
	})

	m.sessionsClosed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_closed_total",
		Help:      "Total number of engagement windows closed and scored",
	})

	m.sessionOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open",
		Help:      "1 while an engagement window is open, else 0",
	})

	m.submissionsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_accepted_total",
		Help:      "Total number of link submissions recorded",
	})

	m.submissionsIgnored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_ignored_total",
		Help:      "Total number of link submissions ignored (closed window, duplicate, no link)",
	})

	m.lookupFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "identity_lookup_failures_total",
		Help:      "Total number of failed identity lookups",
	})

	m.fetchFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reply_fetch_failures_total",
		Help:      "Total number of failed reply-activity fetches",
	})

	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_seconds",
		Help:      "Wall-clock duration of a full session scoring run",
		Buckets:   m.histogramBuckets,
	})

	m.participantsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_scored_total",
		Help:      "Total number of participants scored across all sessions",
	})

	m.registryMembers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registry_members",
		Help:      "Number of registered members",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration by endpoint and method",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"endpoint", "method"})
}

// RecordSessionOpened increments the opened-windows counter.
func RecordSessionOpened() {
	globalManager.sessionsOpened.Inc()
	globalManager.sessionOpen.Set(1)
}

// RecordSessionClosed increments the closed-windows counter.
func RecordSessionClosed() {
	globalManager.sessionsClosed.Inc()
	globalManager.sessionOpen.Set(0)
}

// RecordSubmissionAccepted increments the accepted-submissions counter.
func RecordSubmissionAccepted() {
	globalManager.submissionsAccepted.Inc()
}

// RecordSubmissionIgnored increments the ignored-submissions counter.
func RecordSubmissionIgnored() {
	globalManager.submissionsIgnored.Inc()
}

// RecordLookupFailure increments the identity-lookup failure counter.
func RecordLookupFailure() {
	globalManager.lookupFailures.Inc()
}

// RecordFetchFailure increments the reply-fetch failure counter.
func RecordFetchFailure() {
	globalManager.fetchFailures.Inc()
}

// RecordScoringDuration records the duration of a scoring run in seconds.
func RecordScoringDuration(seconds float64) {
	globalManager.scoringDuration.Observe(seconds)
}

// RecordParticipantsScored adds to the scored-participants counter.
func RecordParticipantsScored(count int) {
	globalManager.participantsTotal.Add(float64(count))
}

// UpdateRegistryMembers sets the registered-members gauge.
func UpdateRegistryMembers(count int) {
	globalManager.registryMembers.Set(float64(count))
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

// GetRegistry returns the registry all metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
