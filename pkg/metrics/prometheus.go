// Package metrics provides Prometheus metrics for the handbeat engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// tickBuckets cover a 60-120 Hz frame budget in milliseconds.
var tickBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 33} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Gameplay
	hits         *prometheus.CounterVec
	misses       prometheus.Counter
	tickDuration prometheus.Histogram
	score        prometheus.Gauge
	combo        prometheus.Gauge
	multiplier   prometheus.Gauge
	health       prometheus.Gauge
	transitions  *prometheus.CounterVec
	sessions     *prometheus.CounterVec

	// Sensing
	detections        *prometheus.CounterVec
	detectionsDropped *prometheus.CounterVec

	// Notification pipeline
	queueSize            prometheus.Gauge
	notificationsDropped prometheus.Counter
	sinkErrors           *prometheus.CounterVec

	// Repository
	sessionsStored         prometheus.Counter
	repositoryQueryLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// Process
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPause     prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "handbeat",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.hits = auto.NewCounterVec(m.counterOpts("hits_total", "Notes hit, by cut quality"), []string{"quality"})
	m.misses = auto.NewCounter(m.counterOpts("misses_total", "Notes missed"))
	m.tickDuration = auto.NewHistogram(m.histogramOpts("tick_duration_milliseconds",
		"Time spent in one gameplay tick", tickBuckets))
	m.score = auto.NewGauge(m.gaugeOpts("score", "Current session score"))
	m.combo = auto.NewGauge(m.gaugeOpts("combo", "Current consecutive hit count"))
	m.multiplier = auto.NewGauge(m.gaugeOpts("multiplier", "Current score multiplier"))
	m.health = auto.NewGauge(m.gaugeOpts("health", "Current health, 0 to 100"))
	m.transitions = auto.NewCounterVec(m.counterOpts("phase_transitions_total",
		"Lifecycle transitions"), []string{"from", "to"})
	m.sessions = auto.NewCounterVec(m.counterOpts("sessions_total",
		"Finished sessions by outcome"), []string{"outcome"})

	m.detections = auto.NewCounterVec(m.counterOpts("detections_total",
		"Accepted hand detections"), []string{"hand"})
	m.detectionsDropped = auto.NewCounterVec(m.counterOpts("detections_dropped_total",
		"Rejected hand detections by reason"), []string{"reason"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Pending notifications"))
	m.notificationsDropped = auto.NewCounter(m.counterOpts("notifications_dropped_total",
		"Notifications dropped because the queue was full"))
	m.sinkErrors = auto.NewCounterVec(m.counterOpts("sink_errors_total",
		"Notification sink failures"), []string{"sink"})

	m.sessionsStored = auto.NewCounter(m.counterOpts("sessions_stored_total", "Session summaries persisted"))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogramOpts("repository_query_latency_milliseconds",
		"Repository query latency in milliseconds", m.histogramBuckets))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutines = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPause = auto.NewGauge(m.gaugeOpts("system_gc_pause_milliseconds", "Average GC pause"))
}

// Gameplay Metrics Functions.

// RecordHit increments the hit counter for a cut quality.
func RecordHit(quality string) {
	globalManager.hits.WithLabelValues(quality).Inc()
}

// RecordMiss increments the miss counter.
func RecordMiss() {
	globalManager.misses.Inc()
}

// RecordTick records the duration of one tick in milliseconds.
func RecordTick(durationMs float64) {
	globalManager.tickDuration.Observe(durationMs)
}

// UpdateScore sets the score gauge.
func UpdateScore(score int) {
	globalManager.score.Set(float64(score))
}

// UpdateCombo sets the combo gauge.
func UpdateCombo(combo int) {
	globalManager.combo.Set(float64(combo))
}

// UpdateMultiplier sets the multiplier gauge.
func UpdateMultiplier(multiplier int) {
	globalManager.multiplier.Set(float64(multiplier))
}

// UpdateHealth sets the health gauge.
func UpdateHealth(health int) {
	globalManager.health.Set(float64(health))
}

// RecordTransition counts a lifecycle transition.
func RecordTransition(from, to string) {
	globalManager.transitions.WithLabelValues(from, to).Inc()
}

// RecordSession counts a finished session.
func RecordSession(outcome string) {
	globalManager.sessions.WithLabelValues(outcome).Inc()
}

// Sensing Metrics Functions.

// RecordDetection counts an accepted detection.
func RecordDetection(hand string) {
	globalManager.detections.WithLabelValues(hand).Inc()
}

// RecordDetectionDropped counts a rejected detection.
func RecordDetectionDropped(reason string) {
	globalManager.detectionsDropped.WithLabelValues(reason).Inc()
}

// Notification Metrics Functions.

// UpdateQueueSize sets the pending notification count.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordNotificationDropped counts a notification lost to a full queue.
func RecordNotificationDropped() {
	globalManager.notificationsDropped.Inc()
}

// RecordSinkError counts a failed sink delivery.
func RecordSinkError(sink string) {
	globalManager.sinkErrors.WithLabelValues(sink).Inc()
}

// Repository Metrics Functions.

// RecordSessionStored counts a persisted summary.
func RecordSessionStored() {
	globalManager.sessionsStored.Inc()
}

// RecordRepositoryQueryLatency records repository query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutines.Set(float64(count))
}

// RecordSystemGCPauseTime sets the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPause.Set(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
