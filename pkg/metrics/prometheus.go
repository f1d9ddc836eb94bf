// Package metrics provides Prometheus metrics for the leaderboard engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns all Prometheus collectors for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Ingestion outcomes.
	discoveriesRecorded  prometheus.Counter
	discoveriesDuplicate prometheus.Counter
	discoveriesRejected  prometheus.Counter
	lockTimeouts         prometheus.Counter

	// Storage performance and failures.
	storeOpLatency *prometheus.HistogramVec
	storeOpErrors  *prometheus.CounterVec

	// Population gauges.
	participantsTotal prometheus.Gauge
	discoveriesTotal  prometheus.Gauge

	// Stats rollup rebuilds.
	statsRebuilds        prometheus.Counter
	statsRebuildDuration prometheus.Histogram

	// HTTP surface.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry avoids the default Go collectors so /metrics stays focused.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bugboard",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initCollectors()
	return m
}

func (m *Manager) initCollectors() {
	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		}
	}

	m.discoveriesRecorded = prometheus.NewCounter(factory(
		"discoveries_recorded_total", "Discoveries accepted and credited."))
	m.discoveriesDuplicate = prometheus.NewCounter(factory(
		"discoveries_duplicate_total", "Submissions resolved as already recorded."))
	m.discoveriesRejected = prometheus.NewCounter(factory(
		"discoveries_rejected_total", "Submissions rejected as invalid input."))
	m.lockTimeouts = prometheus.NewCounter(factory(
		"participant_lock_timeouts_total", "Per-participant lock acquisitions that timed out."))
	m.statsRebuilds = prometheus.NewCounter(factory(
		"stats_rebuilds_total", "Global stats rollup rebuilds."))

	m.storeOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_op_duration_seconds",
		Help:      "Latency of storage operations.",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})
	m.storeOpErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_op_errors_total",
		Help:      "Storage operation failures.",
	}, []string{"op", "kind"})

	m.participantsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_total",
		Help:      "Participants currently tracked.",
	})
	m.discoveriesTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "discoveries_total",
		Help:      "Ledger entries currently recorded.",
	})

	m.statsRebuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stats_rebuild_duration_seconds",
		Help:      "Time spent rebuilding the global stats rollup.",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by endpoint, method and status.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.registry.MustRegister(
		m.discoveriesRecorded,
		m.discoveriesDuplicate,
		m.discoveriesRejected,
		m.lockTimeouts,
		m.storeOpLatency,
		m.storeOpErrors,
		m.participantsTotal,
		m.discoveriesTotal,
		m.statsRebuilds,
		m.statsRebuildDuration,
		m.httpRequests,
		m.httpRequestDuration,
	)
}

// Registry exposes the manager's registry for serving /metrics.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// GetRegistry returns the global metrics registry.
func GetRegistry() *prometheus.Registry { return globalManager.Registry() }

// Package-level helpers against the global manager.

func RecordDiscoveryCreated()   { globalManager.discoveriesRecorded.Inc() }
func RecordDiscoveryDuplicate() { globalManager.discoveriesDuplicate.Inc() }
func RecordDiscoveryRejected()  { globalManager.discoveriesRejected.Inc() }
func RecordLockTimeout()        { globalManager.lockTimeouts.Inc() }

func ObserveStoreOp(op string, seconds float64) {
	globalManager.storeOpLatency.WithLabelValues(op).Observe(seconds)
}

func RecordStoreError(op, kind string) {
	globalManager.storeOpErrors.WithLabelValues(op, kind).Inc()
}

func UpdateParticipantsTotal(n int) { globalManager.participantsTotal.Set(float64(n)) }
func UpdateDiscoveriesTotal(n int)  { globalManager.discoveriesTotal.Set(float64(n)) }

func RecordStatsRebuild(seconds float64) {
	globalManager.statsRebuilds.Inc()
	globalManager.statsRebuildDuration.Observe(seconds)
}

func RecordHTTPRequest(endpoint, method, status string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(seconds)
}
