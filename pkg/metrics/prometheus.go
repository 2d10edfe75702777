// Package metrics provides Prometheus metrics for the finishline collector.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Outcome label values for API requests and uploads.
const (
	OutcomeOK        = "ok"
	OutcomeTransient = "transient"
	OutcomeStatus    = "status"
	OutcomeError     = "error"
)

// Skip reason label values.
const (
	SkipExisting   = "existing"
	SkipDenylisted = "denylisted"
)

// Manager manages all Prometheus metrics for a collector run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// API client
	apiRequests        *prometheus.CounterVec
	apiRetries         *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	// Pipeline
	eventsEnumerated   prometheus.Counter
	eventsSkipped      *prometheus.CounterVec
	eventsCollected    prometheus.Counter
	pagesFetched       prometheus.Counter
	finishersCollected prometheus.Counter
	rowsWritten        *prometheus.CounterVec
	uploads            *prometheus.CounterVec

	// Stages
	stageDuration    *prometheus.HistogramVec
	stageLastSuccess *prometheus.GaugeVec
	stageFailures    *prometheus.CounterVec
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
		namespace:        "finishline",
		subsystem:        "collector",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 1800},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.apiRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_requests_total",
		Help:      "Results API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	m.apiRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_retries_total",
		Help:      "Results API retries after transient failures",
	}, []string{"endpoint"})

	m.apiRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_request_duration_seconds",
		Help:      "Latency of single results API attempts",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint"})

	m.eventsEnumerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_enumerated_total",
		Help:      "Event records returned by year searches",
	})

	m.eventsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_skipped_total",
		Help:      "Events skipped during result collection by reason",
	}, []string{"reason"})

	m.eventsCollected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_collected_total",
		Help:      "Events whose finisher list was fetched and written",
	})

	m.pagesFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "finisher_pages_fetched_total",
		Help:      "Finisher pages fetched, including the terminating empty page",
	})

	m.finishersCollected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "finishers_collected_total",
		Help:      "Unique finisher records written to per-event files",
	})

	m.rowsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "table_rows_written_total",
		Help:      "Rows written to consolidated tables",
	}, []string{"table"})

	m.uploads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "object_uploads_total",
		Help:      "Object storage upload attempts by outcome",
	}, []string{"outcome"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_seconds",
		Help:      "Wall time of pipeline stages",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.stageLastSuccess = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run of each stage",
	}, []string{"stage"})

	m.stageFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_failures_total",
		Help:      "Failed stage runs",
	}, []string{"stage"})
}

// RecordAPIRequest counts one API attempt and observes its latency.
func RecordAPIRequest(endpoint, outcome string, took time.Duration) {
	globalManager.apiRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.apiRequestDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// RecordAPIRetry counts a retry scheduled after a transient failure.
func RecordAPIRetry(endpoint string) {
	globalManager.apiRetries.WithLabelValues(endpoint).Inc()
}

// RecordEventsEnumerated adds n to the enumerated events counter.
func RecordEventsEnumerated(n int) {
	globalManager.eventsEnumerated.Add(float64(n))
}

// RecordEventSkipped counts an event skipped for reason.
func RecordEventSkipped(reason string) {
	globalManager.eventsSkipped.WithLabelValues(reason).Inc()
}

// RecordEventCollected counts an event whose results were written along
// with its finishers.
func RecordEventCollected(finishers int) {
	globalManager.eventsCollected.Inc()
	globalManager.finishersCollected.Add(float64(finishers))
}

// RecordPageFetched counts a finisher page request that succeeded.
func RecordPageFetched() {
	globalManager.pagesFetched.Inc()
}

// RecordRowsWritten adds n rows written to table.
func RecordRowsWritten(table string, n int) {
	globalManager.rowsWritten.WithLabelValues(table).Add(float64(n))
}

// RecordUpload counts one object upload attempt.
func RecordUpload(outcome string) {
	globalManager.uploads.WithLabelValues(outcome).Inc()
}

// RecordStage observes a stage run. Failed runs only bump the failure counter.
func RecordStage(stage string, took time.Duration, err error) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(took.Seconds())
	if err != nil {
		globalManager.stageFailures.WithLabelValues(stage).Inc()
		return
	}
	globalManager.stageLastSuccess.WithLabelValues(stage).SetToCurrentTime()
}

// Push sends the current registry to a Pushgateway. A no-op without url.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(customRegistry).PushContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPushFailed, err)
	}
	return nil
}
