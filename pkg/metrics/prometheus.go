// Package metrics provides Prometheus metrics for the regista engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultBuckets cover millisecond latencies from sub-ms domain math up to
// slow Redis round trips.
var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals

// Manager owns all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingest
	eventsProcessed    *prometheus.CounterVec
	eventsDuplicate    prometheus.Counter
	eventsRejected     prometheus.Counter
	processingDuration prometheus.Histogram

	// Match state
	phaseChanges      *prometheus.CounterVec
	windowsOpened     *prometheus.CounterVec
	chainsClosed      *prometheus.CounterVec
	alertsPublished   *prometheus.CounterVec
	predictorPatterns prometheus.Gauge
	sessionsActive    prometheus.Gauge

	// Snapshot pipeline
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueDequeued prometheus.Counter
	queueDropped  prometheus.Counter
	saveDuration  prometheus.Histogram
	saveErrors    prometheus.Counter
	saversActive  prometheus.Gauge

	// Key-value store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Broadcast
	broadcastClients prometheus.Gauge
	broadcastSent    prometheus.Counter
	broadcastDropped prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "regista",
		subsystem:        "engine",
		histogramBuckets: defaultBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one declaration per metric
	auto := promauto.With(m.registry)

	// Ingest
	m.eventsProcessed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_processed_total",
			Help:      "Total number of tagged events processed, by kind and team",
		},
		[]string{"kind", "team"},
	)

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of duplicate event deliveries flagged",
	})

	m.eventsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_rejected_total",
		Help:      "Total number of events rejected before processing",
	})

	m.processingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_processing_duration_milliseconds",
		Help:      "End-to-end processing time of one tagged event",
		Buckets:   m.histogramBuckets,
	})

	// Match state
	m.phaseChanges = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "phase_changes_total",
			Help:      "Total number of phase changes, by resulting phase",
		},
		[]string{"to_phase"},
	)

	m.windowsOpened = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "transition_windows_opened_total",
			Help:      "Total number of transition windows opened, by type",
		},
		[]string{"type"},
	)

	m.chainsClosed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "chains_closed_total",
			Help:      "Total number of possession chains closed, by team and outcome",
		},
		[]string{"team", "outcome"},
	)

	m.alertsPublished = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "alerts_published_total",
			Help:      "Total number of alerts published to stream clients, by type",
		},
		[]string{"type"},
	)

	m.predictorPatterns = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictor_patterns",
		Help:      "Current number of learned predictor patterns",
	})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_active",
		Help:      "Current number of live match sessions",
	})

	// Snapshot pipeline
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_queue_size",
		Help:      "Current depth of the snapshot save queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_queue_capacity",
		Help:      "Maximum depth of the snapshot save queue",
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_queue_enqueued_total",
		Help:      "Total number of snapshot jobs enqueued",
	})

	m.queueDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_queue_dequeued_total",
		Help:      "Total number of snapshot jobs picked up by savers",
	})

	m.queueDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_queue_dropped_total",
		Help:      "Total number of snapshot jobs dropped because the queue was full",
	})

	m.saveDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_save_duration_milliseconds",
		Help:      "Time to persist one snapshot to the store",
		Buckets:   m.histogramBuckets,
	})

	m.saveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_save_errors_total",
		Help:      "Total number of failed snapshot saves",
	})

	m.saversActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "savers_active",
		Help:      "Current number of running snapshot savers",
	})

	// Key-value store
	m.storeLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_operation_duration_milliseconds",
			Help:      "Key-value store operation latency, by operation",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)

	m.storeErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_errors_total",
			Help:      "Total number of key-value store errors, by operation",
		},
		[]string{"op"},
	)

	// Broadcast
	m.broadcastClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_clients",
		Help:      "Current number of connected stream clients",
	})

	m.broadcastSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_messages_total",
		Help:      "Total number of messages fanned out to stream clients",
	})

	m.broadcastDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_dropped_total",
		Help:      "Total number of messages dropped on slow stream clients",
	})

	// HTTP
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordEventProcessed counts one processed event.
func RecordEventProcessed(kind, team string) {
	globalManager.eventsProcessed.WithLabelValues(kind, team).Inc()
}

// RecordEventDuplicate counts one flagged duplicate delivery.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordEventRejected counts one event rejected before processing.
func RecordEventRejected() {
	globalManager.eventsRejected.Inc()
}

// RecordProcessingDuration records one event's processing time in ms.
func RecordProcessingDuration(ms float64) {
	globalManager.processingDuration.Observe(ms)
}

// RecordPhaseChange counts one phase change.
func RecordPhaseChange(toPhase string) {
	globalManager.phaseChanges.WithLabelValues(toPhase).Inc()
}

// RecordWindowOpened counts one opened transition window.
func RecordWindowOpened(windowType string) {
	globalManager.windowsOpened.WithLabelValues(windowType).Inc()
}

// RecordChainClosed counts one closed possession chain.
func RecordChainClosed(team, outcome string) {
	globalManager.chainsClosed.WithLabelValues(team, outcome).Inc()
}

// RecordAlert counts one published alert.
func RecordAlert(alertType string) {
	globalManager.alertsPublished.WithLabelValues(alertType).Inc()
}

// UpdatePredictorPatterns sets the learned pattern count.
func UpdatePredictorPatterns(count int) {
	globalManager.predictorPatterns.Set(float64(count))
}

// UpdateSessionsActive sets the live session count.
func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// UpdateQueueSize sets the snapshot queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the snapshot queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts one enqueued snapshot job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts one dequeued snapshot job.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueDrop counts one snapshot job dropped on a full queue.
func RecordQueueDrop() {
	globalManager.queueDropped.Inc()
}

// RecordSnapshotSaveDuration records one snapshot save time in ms.
func RecordSnapshotSaveDuration(ms float64) {
	globalManager.saveDuration.Observe(ms)
}

// RecordSnapshotSaveError counts one failed snapshot save.
func RecordSnapshotSaveError() {
	globalManager.saveErrors.Inc()
}

// UpdateSaversActive sets the running saver count.
func UpdateSaversActive(count int) {
	globalManager.saversActive.Set(float64(count))
}

// RecordStoreLatency records one store operation's latency in ms.
func RecordStoreLatency(op string, ms float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(ms)
}

// RecordStoreError counts one store operation failure.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateBroadcastClients sets the connected stream client count.
func UpdateBroadcastClients(count int) {
	globalManager.broadcastClients.Set(float64(count))
}

// RecordBroadcastSent counts one message fanned out to a client.
func RecordBroadcastSent() {
	globalManager.broadcastSent.Inc()
}

// RecordBroadcastDrop counts one message dropped on a slow client.
func RecordBroadcastDrop() {
	globalManager.broadcastDropped.Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one HTTP request's duration in ms.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
