// Package metrics provides Prometheus metrics for the mindstats snapshot service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as label values.
const (
	OutcomeSuccess          = "success"
	OutcomeIngestionFailed  = "ingestion_failed"
	OutcomePersistFailed    = "persistence_failed"
	OutcomeDuplicateContent = "duplicate"
	OutcomeCancelled        = "cancelled"
)

// stageBuckets covers sub-millisecond aggregations up to multi-second ones.
var stageBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the snapshot service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Pipeline Metrics - one entry per generation run
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	stageDuration    *prometheus.HistogramVec
	stageDegraded    *prometheus.CounterVec
	enrichmentErrors prometheus.Counter
	recordsIngested  *prometheus.CounterVec

	// Snapshot Metrics
	snapshotsPersisted prometheus.Counter
	snapshotDuplicates prometheus.Counter
	snapshotLastUnix   prometheus.Gauge
	snapshotMetricKeys prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mindstats",
		subsystem:        "snapshot",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Total number of snapshot generation runs by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Wall time of a full generation run from fetch to persistence",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_seconds",
		Help:        "Time spent in each metric stage",
		Buckets:     stageBuckets,
		ConstLabels: labels,
	}, []string{"stage"})

	m.stageDegraded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_degraded_total",
		Help:        "Metric stages that panicked and were dropped from the snapshot",
		ConstLabels: labels,
	}, []string{"stage"})

	m.enrichmentErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "enrichment_failures_total",
		Help:        "Theme enrichment calls that failed or timed out",
		ConstLabels: labels,
	})

	m.recordsIngested = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_ingested_total",
		Help:        "Raw records fetched per record family",
		ConstLabels: labels,
	}, []string{"family"})

	m.snapshotsPersisted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "persisted_total",
		Help:        "Snapshots written to the store",
		ConstLabels: labels,
	})

	m.snapshotDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "duplicate_content_total",
		Help:        "Runs whose raw-data hash matched a recently generated snapshot",
		ConstLabels: labels,
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_persisted_unix",
		Help:        "Unix time of the last persisted snapshot",
		ConstLabels: labels,
	})

	m.snapshotMetricKeys = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_metric_keys",
		Help:        "Number of metric keys in the last assembled snapshot",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_seconds",
		Help:        "HTTP request duration",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "errors_total",
		Help:        "HTTP errors by endpoint and error type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_alloc_bytes",
		Help:        "Bytes of allocated heap objects",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutines",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})
}

// Pipeline Metrics Functions.

// RecordRun increments the run counter for outcome and observes its duration.
func RecordRun(outcome string, d time.Duration) {
	globalManager.runsTotal.WithLabelValues(outcome).Inc()
	globalManager.runDuration.Observe(d.Seconds())
}

// RecordStageDuration observes the time spent in one metric stage.
func RecordStageDuration(stage string, d time.Duration) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordStageDegraded counts a stage whose output was dropped.
func RecordStageDegraded(stage string) {
	globalManager.stageDegraded.WithLabelValues(stage).Inc()
}

// RecordEnrichmentFailure counts a failed theme enrichment call.
func RecordEnrichmentFailure() {
	globalManager.enrichmentErrors.Inc()
}

// RecordRecordsIngested adds n fetched records for family.
func RecordRecordsIngested(family string, n int) {
	globalManager.recordsIngested.WithLabelValues(family).Add(float64(n))
}

// Snapshot Metrics Functions.

// RecordSnapshotPersisted counts a stored snapshot and stamps the time.
func RecordSnapshotPersisted(at time.Time, metricKeys int) {
	globalManager.snapshotsPersisted.Inc()
	globalManager.snapshotLastUnix.Set(float64(at.Unix()))
	globalManager.snapshotMetricKeys.Set(float64(metricKeys))
}

// RecordDuplicateContent counts a run whose raw-data hash was already seen.
func RecordDuplicateContent() {
	globalManager.snapshotDuplicates.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
