// Package metrics provides Prometheus metrics for the forceplate service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Default buckets for report generation time in milliseconds. Runs over a
// few hundred athletes finish well under a second.
var defaultRunBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // immutable bucket layout

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace       string
	subsystem       string
	durationBuckets []float64
	enabled         bool
	refreshInterval time.Duration
	registry        prometheus.Registerer

	// Ingestion
	recordsLoaded   *prometheus.CounterVec
	recordsExcluded *prometheus.CounterVec
	valuesCoerced   *prometheus.CounterVec
	unmappedColumns *prometheus.CounterVec

	// Analysis
	baselinesComputed   prometheus.Counter
	baselinesExcluded   *prometheus.CounterVec
	athletesExcluded    *prometheus.CounterVec
	assessments         *prometheus.CounterVec
	categoryAssignments *prometheus.CounterVec
	clusterOverrides    prometheus.Counter
	reportsGenerated    prometheus.Counter
	reportFailures      *prometheus.CounterVec
	runDuration         prometheus.Histogram
	athletesAnalyzed    prometheus.Gauge
	athletesFlagged     prometheus.Gauge

	// Archive
	archivedReports prometheus.Gauge

	// Report jobs
	jobQueueDepth prometheus.Gauge
	jobsEnqueued  prometheus.Counter
	jobsRejected  *prometheus.CounterVec
	jobsProcessed *prometheus.CounterVec
	reportWorkers prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
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
		namespace:       "forceplate",
		subsystem:       "engine",
		durationBuckets: defaultRunBuckets,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval reports how often gauges sampled from the runtime should
// be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RefreshInterval is the sampling interval of the global manager.
func RefreshInterval() time.Duration { return globalManager.refreshInterval }

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.recordsLoaded = m.counterVec("records_loaded_total",
		"Test records accepted after preparation, by test type", "test_type")
	m.recordsExcluded = m.counterVec("records_excluded_total",
		"Input rows excluded during preparation, by source and reason", "source", "reason")
	m.valuesCoerced = m.counterVec("values_coerced_total",
		"Metric values coerced to missing, by reason", "reason")
	m.unmappedColumns = m.counterVec("unmapped_columns_total",
		"Input columns without a canonical mapping, by source", "source")

	m.baselinesComputed = m.counter("baselines_computed_total",
		"Valid athlete/metric baselines computed")
	m.baselinesExcluded = m.counterVec("baselines_excluded_total",
		"Athlete/metric pairs excluded from classification, by reason", "reason")
	m.athletesExcluded = m.counterVec("athletes_excluded_total",
		"Athletes excluded from all categories, by reason", "reason")
	m.assessments = m.counterVec("assessments_total",
		"Deviation assessments by severity tier", "tier")
	m.categoryAssignments = m.counterVec("category_assignments_total",
		"Category assignments by category and tier", "category", "tier")
	m.clusterOverrides = m.counter("cluster_overrides_total",
		"Single-metric assignments suppressed by a cluster category")
	m.reportsGenerated = m.counter("reports_generated_total",
		"Reports generated successfully")
	m.reportFailures = m.counterVec("report_failures_total",
		"Report runs that failed before classification, by stage", "stage")

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_milliseconds",
		Help:      "Time to prepare data and classify athletes in milliseconds",
		Buckets:   m.durationBuckets,
	})

	m.athletesAnalyzed = m.gauge("athletes_analyzed",
		"Athletes considered by the most recent run")
	m.athletesFlagged = m.gauge("athletes_flagged",
		"Athletes with at least one category in the most recent run")
	m.archivedReports = m.gauge("archived_reports",
		"Reports currently held in the in-memory archive")

	m.jobQueueDepth = m.gauge("job_queue_depth",
		"Report jobs waiting for a worker")
	m.jobsEnqueued = m.counter("jobs_enqueued_total",
		"Report jobs accepted by the queue")
	m.jobsRejected = m.counterVec("jobs_rejected_total",
		"Report jobs refused by the queue, by reason", "reason")
	m.jobsProcessed = m.counterVec("jobs_processed_total",
		"Report jobs finished by workers, by outcome", "outcome")
	m.reportWorkers = m.gauge("report_workers",
		"Report workers running")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.durationBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and error type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and error type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordRecordsLoaded adds n accepted records for a test type.
func RecordRecordsLoaded(testType string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recordsLoaded.WithLabelValues(testType).Add(float64(n))
}

// RecordRecordsExcluded adds n excluded rows for a source and reason.
func RecordRecordsExcluded(source, reason string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recordsExcluded.WithLabelValues(source, reason).Add(float64(n))
}

// RecordValuesCoerced adds n values coerced to missing.
func RecordValuesCoerced(reason string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.valuesCoerced.WithLabelValues(reason).Add(float64(n))
}

// RecordUnmappedColumns adds n unmapped columns for a source.
func RecordUnmappedColumns(source string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.unmappedColumns.WithLabelValues(source).Add(float64(n))
}

// RecordBaselinesComputed adds n valid baselines.
func RecordBaselinesComputed(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.baselinesComputed.Add(float64(n))
}

// RecordBaselineExcluded increments excluded athlete/metric pairs for reason.
func RecordBaselineExcluded(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.baselinesExcluded.WithLabelValues(reason).Inc()
}

// RecordAthleteExcluded increments excluded athletes for reason.
func RecordAthleteExcluded(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.athletesExcluded.WithLabelValues(reason).Inc()
}

// RecordAssessment increments assessments for a tier.
func RecordAssessment(tier string) {
	if !globalManager.enabled {
		return
	}
	globalManager.assessments.WithLabelValues(tier).Inc()
}

// RecordCategoryAssignment increments assignments for a category and tier.
func RecordCategoryAssignment(category, tier string) {
	if !globalManager.enabled {
		return
	}
	globalManager.categoryAssignments.WithLabelValues(category, tier).Inc()
}

// RecordClusterOverrides adds n suppressed single-metric assignments.
func RecordClusterOverrides(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.clusterOverrides.Add(float64(n))
}

// RecordReportGenerated increments generated reports.
func RecordReportGenerated() {
	if !globalManager.enabled {
		return
	}
	globalManager.reportsGenerated.Inc()
}

// RecordReportFailure increments failed runs at a stage (load, prepare).
func RecordReportFailure(stage string) {
	if !globalManager.enabled {
		return
	}
	globalManager.reportFailures.WithLabelValues(stage).Inc()
}

// RecordRunDuration records a report run duration in milliseconds.
func RecordRunDuration(durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.runDuration.Observe(durationMs)
}

// UpdateAthleteCounts sets analyzed and flagged athlete gauges.
func UpdateAthleteCounts(analyzed, flagged int) {
	if !globalManager.enabled {
		return
	}
	globalManager.athletesAnalyzed.Set(float64(analyzed))
	globalManager.athletesFlagged.Set(float64(flagged))
}

// UpdateArchivedReports sets the archive size gauge.
func UpdateArchivedReports(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.archivedReports.Set(float64(n))
}

// UpdateJobQueueDepth sets the number of waiting report jobs.
func UpdateJobQueueDepth(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.jobQueueDepth.Set(float64(n))
}

// RecordJobEnqueued increments accepted report jobs.
func RecordJobEnqueued() {
	if !globalManager.enabled {
		return
	}
	globalManager.jobsEnqueued.Inc()
}

// RecordJobRejected increments refused report jobs (full, closed, canceled).
func RecordJobRejected(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.jobsRejected.WithLabelValues(reason).Inc()
}

// RecordJobProcessed increments finished report jobs (ok, error).
func RecordJobProcessed(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.jobsProcessed.WithLabelValues(outcome).Inc()
}

// UpdateReportWorkers sets the running worker gauge.
func UpdateReportWorkers(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.reportWorkers.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error for an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
