// Package metrics provides Prometheus metrics for the EmoTrack pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Capture and sampling
	framesSeen    prometheus.Counter
	framesSampled prometheus.Counter

	// Detection
	detections       *prometheus.CounterVec
	detectionLatency prometheus.Histogram

	// Batch buffer
	bufferSize   prometheus.Gauge
	batchFlushes prometheus.Counter
	flushSize    prometheus.Histogram
	flushErrors  prometheus.Counter

	// Record store
	observationsWritten prometheus.Counter
	storeWriteLatency   prometheus.Histogram
	storeWriteErrors    prometheus.Counter
	storeRecords        prometheus.Gauge

	// Sessions
	activeSessions prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors by component
	componentErrors *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Detection outcome label values.
const (
	OutcomeDetected = "detected"
	OutcomeNoFace   = "no_face"
	OutcomeFailed   = "failed"
)

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collectors do not pollute /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "emotrack",
		subsystem:        "pipeline",
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

	m.framesSeen = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_seen_total",
		Help:      "Total number of frames received from the capture source",
	})

	m.framesSampled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_sampled_total",
		Help:      "Total number of frames forwarded to the recognition adapter",
	})

	m.detections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detections_total",
		Help:      "Detection calls by outcome (detected, no_face, failed)",
	}, []string{"outcome"})

	m.detectionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detection_latency_milliseconds",
		Help:      "Histogram of recognition adapter call latency in milliseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	m.bufferSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "buffer_size",
		Help:      "Current number of buffered observations awaiting flush",
	})

	m.batchFlushes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_flushes_total",
		Help:      "Total number of successful batch flushes",
	})

	m.flushSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_flush_size",
		Help:      "Histogram of observations per flushed batch",
		Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 240},
	})

	m.flushErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_flush_errors_total",
		Help:      "Total number of flushes that failed at the record store",
	})

	m.observationsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observations_written_total",
		Help:      "Total number of observations durably written",
	})

	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_latency_milliseconds",
		Help:      "Histogram of record store batch write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeWriteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_errors_total",
		Help:      "Total number of failed record store writes",
	})

	m.storeRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_records",
		Help:      "Number of observations currently persisted",
	})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Number of tracking sessions currently running",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration by endpoint, method and status code",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.componentErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "component_errors_total",
		Help:      "Errors by component and kind",
	}, []string{"component", "kind"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordFrameSeen increments the frames-seen counter.
func RecordFrameSeen() {
	globalManager.framesSeen.Inc()
}

// RecordFrameSampled increments the frames-sampled counter.
func RecordFrameSampled() {
	globalManager.framesSampled.Inc()
}

// RecordDetection counts a detection call by outcome.
func RecordDetection(outcome string) {
	globalManager.detections.WithLabelValues(outcome).Inc()
}

// RecordDetectionLatency observes a recognition adapter call latency.
func RecordDetectionLatency(latencyMs float64) {
	globalManager.detectionLatency.Observe(latencyMs)
}

// UpdateBufferSize sets the current buffered observation count.
func UpdateBufferSize(size int) {
	globalManager.bufferSize.Set(float64(size))
}

// RecordBatchFlush counts a successful flush of the given size.
func RecordBatchFlush(size int) {
	globalManager.batchFlushes.Inc()
	globalManager.flushSize.Observe(float64(size))
}

// RecordFlushError counts a flush that failed at the store.
func RecordFlushError() {
	globalManager.flushErrors.Inc()
}

// RecordObservationsWritten adds to the written-observations counter.
func RecordObservationsWritten(count int) {
	globalManager.observationsWritten.Add(float64(count))
}

// RecordStoreWriteLatency observes a batch write latency.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// RecordStoreWriteError counts a failed store write.
func RecordStoreWriteError() {
	globalManager.storeWriteErrors.Inc()
}

// UpdateStoreRecords sets the persisted record count gauge.
func UpdateStoreRecords(count int64) {
	globalManager.storeRecords.Set(float64(count))
}

// UpdateActiveSessions sets the running session count gauge.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordComponentError counts an error by component and kind.
func RecordComponentError(component, kind string) {
	globalManager.componentErrors.WithLabelValues(component, kind).Inc()
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes a GC pause duration.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry for serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
