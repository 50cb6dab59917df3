// Package metrics provides Prometheus metrics for the talentmatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets covers fast fallbacks up to the multi-minute remote ceiling.
var latencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000} //nolint:gochecknoglobals // static bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Matching pipeline
	batchesTotal      *prometheus.CounterVec
	batchDuration     prometheus.Histogram
	batchCandidates   prometheus.Histogram
	resultsByMethod   *prometheus.CounterVec
	scoringLatency    prometheus.Histogram
	scoringFallbacks  *prometheus.CounterVec
	scoringRetries    prometheus.Counter
	snapshotWrites    *prometheus.CounterVec
	backgroundTasks   prometheus.Gauge
	deadlineExceeded  prometheus.Counter

	// Notifications
	notificationsCreated    prometheus.Counter
	notificationsSuppressed prometheus.Counter
	deliveries              *prometheus.CounterVec
	deliveryLatency         prometheus.Histogram

	// Delivery queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueues *prometheus.CounterVec
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "talentmatch",
		subsystem:        "matching",
		histogramBuckets: latencyBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.batchesTotal = m.counterVec("batches_total", "Match batches by final status", "status")
	m.batchDuration = m.histogram("batch_duration_milliseconds", "Wall time of a full match batch", m.histogramBuckets)
	m.batchCandidates = m.histogram("batch_candidates", "Candidates scored per batch", prometheus.ExponentialBuckets(1, 2, 12))
	m.resultsByMethod = m.counterVec("results_total", "Per-candidate match results by computation method", "method")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Latency of one candidate scoring call", m.histogramBuckets)
	m.scoringFallbacks = m.counterVec("scoring_fallbacks_total", "Scoring calls answered by the local fallback", "reason")
	m.scoringRetries = m.counter("scoring_retries_total", "Retried remote scoring requests")
	m.snapshotWrites = m.counterVec("snapshot_writes_total", "Match snapshot replacements by outcome", "outcome")
	m.backgroundTasks = m.gauge("background_tasks", "Match pipelines still running")
	m.deadlineExceeded = m.counter("deadline_exceeded_total", "Triggers answered before their pipeline finished")

	m.notificationsCreated = m.counter("notifications_created_total", "Notification records created")
	m.notificationsSuppressed = m.counter("notifications_suppressed_total", "Notifications skipped because the candidate was already notified")
	m.deliveries = m.counterVec("deliveries_total", "Notification deliveries by outcome", "outcome")
	m.deliveryLatency = m.histogram("delivery_latency_milliseconds", "Time spent handing one notification to the messenger", m.histogramBuckets)

	m.queueSize = m.gauge("delivery_queue_size", "Deliveries waiting in the queue")
	m.queueCapacity = m.gauge("delivery_queue_capacity", "Capacity of the delivery queue")
	m.queueEnqueues = m.counterVec("delivery_queue_enqueues_total", "Delivery enqueue attempts by outcome", "outcome")
	m.workerCount = m.gauge("delivery_workers", "Delivery workers running")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "http_request_duration_milliseconds",
		Help: "HTTP request duration in milliseconds", ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordBatch records a finished batch.
func RecordBatch(status string, candidates int, durationMs float64) {
	globalManager.batchesTotal.WithLabelValues(status).Inc()
	globalManager.batchCandidates.Observe(float64(candidates))
	globalManager.batchDuration.Observe(durationMs)
}

// RecordResult counts one per-candidate result.
func RecordResult(method string) {
	globalManager.resultsByMethod.WithLabelValues(method).Inc()
}

// RecordScoringLatency records one scoring call in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringFallback counts a fallback by reason.
func RecordScoringFallback(reason string) {
	globalManager.scoringFallbacks.WithLabelValues(reason).Inc()
}

// RecordScoringRetry counts a retried remote request.
func RecordScoringRetry() {
	globalManager.scoringRetries.Inc()
}

// RecordSnapshotWrite counts a snapshot replacement by outcome (ok, stale, error).
func RecordSnapshotWrite(outcome string) {
	globalManager.snapshotWrites.WithLabelValues(outcome).Inc()
}

// UpdateBackgroundTasks sets the number of running pipelines.
func UpdateBackgroundTasks(n int) {
	globalManager.backgroundTasks.Set(float64(n))
}

// RecordDeadlineExceeded counts a trigger that returned before its pipeline.
func RecordDeadlineExceeded() {
	globalManager.deadlineExceeded.Inc()
}

// RecordNotificationCreated counts a created notification record.
func RecordNotificationCreated() {
	globalManager.notificationsCreated.Inc()
}

// RecordNotificationSuppressed counts a notification skipped by the ledger.
func RecordNotificationSuppressed() {
	globalManager.notificationsSuppressed.Inc()
}

// RecordDelivery counts a delivery attempt by outcome (sent, failed, dropped).
func RecordDelivery(outcome string, latencyMs float64) {
	globalManager.deliveries.WithLabelValues(outcome).Inc()
	globalManager.deliveryLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current delivery queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the delivery queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue records an enqueue attempt (accepted, full, closed).
func RecordQueueEnqueue(outcome string) {
	globalManager.queueEnqueues.WithLabelValues(outcome).Inc()
}

// UpdateWorkerCount sets the number of delivery workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
