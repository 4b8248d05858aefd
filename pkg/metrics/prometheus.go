// Package metrics provides Prometheus metrics for the medal dashboard.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Outcome label values for load and save counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeReplay  = "replay"
)

// Manager manages all Prometheus metrics for the dashboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Dataset metrics - shape of the session's canonical table
	datasetRecords   prometheus.Gauge
	datasetCountries prometheus.Gauge
	datasetYears     prometheus.Gauge
	datasetLoadedAt  prometheus.Gauge

	// Gateway metrics - remote table reads and writes
	loadLatency *prometheus.HistogramVec
	loads       *prometheus.CounterVec
	saveLatency *prometheus.HistogramVec
	saves       *prometheus.CounterVec
	savedRows   prometheus.Gauge
	pendingEdit prometheus.Gauge

	// Write-back queue
	queueSize     prometheus.Gauge
	queueRejected *prometheus.CounterVec
	queueWait     prometheus.Histogram

	// View metrics
	viewBuildLatency *prometheus.HistogramVec
	filteredRecords  prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "medals",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.datasetRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("dataset_records"),
		Help:        "Number of rows in the canonical medal table",
		ConstLabels: labels,
	})

	m.datasetCountries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("dataset_countries"),
		Help:        "Number of distinct countries in the canonical medal table",
		ConstLabels: labels,
	})

	m.datasetYears = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("dataset_years"),
		Help:        "Number of distinct edition years in the canonical medal table",
		ConstLabels: labels,
	})

	m.datasetLoadedAt = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("dataset_loaded_unixtime"),
		Help:        "Unix time at which the canonical table was last replaced",
		ConstLabels: labels,
	})

	m.loadLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("load_latency_milliseconds"),
			Help:        "Latency of fetching and normalizing the remote table",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"store"},
	)

	m.loads = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("loads_total"),
			Help:        "Remote table loads by store and outcome",
			ConstLabels: labels,
		},
		[]string{"store", "outcome"},
	)

	m.saveLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("save_latency_milliseconds"),
			Help:        "Latency of writing an edited table back to the store",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"store", "mode"},
	)

	m.saves = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("saves_total"),
			Help:        "Save attempts by store, mode and outcome",
			ConstLabels: labels,
		},
		[]string{"store", "mode", "outcome"},
	)

	m.savedRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("saved_rows"),
		Help:        "Rows written by the last successful save",
		ConstLabels: labels,
	})

	m.pendingEdit = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("pending_edit"),
		Help:        "1 while a failed save is waiting to be retried",
		ConstLabels: labels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("writeback_queue_size"),
		Help:        "Saves waiting for the store writer",
		ConstLabels: labels,
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("writeback_rejected_total"),
		Help:        "Saves refused by the write-back queue",
		ConstLabels: labels,
	}, []string{"reason"})

	m.queueWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("writeback_wait_milliseconds"),
		Help:        "Time a save spent queued before the writer picked it up",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.viewBuildLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("view_build_latency_milliseconds"),
			Help:        "Latency of building chart views from a filtered table",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"view"},
	)

	m.filteredRecords = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("filtered_records"),
		Help:        "Rows surviving the active filter per request",
		Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
		ConstLabels: labels,
	})

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds (user experience)",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_component_total"),
			Help:        "Errors by component and error type",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Errors by HTTP endpoint, method and error type",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_bytes"),
		Help:        "Heap bytes in use",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutines"),
		Help:        "Number of live goroutines",
		ConstLabels: labels,
	})
}

// Enabled reports whether observations are recorded.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often callers should sample runtime gauges.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// UpdateDataset sets the dataset gauges from the canonical table shape.
func (m *Manager) UpdateDataset(records, countries, years int) {
	if !m.enabled {
		return
	}
	m.datasetRecords.Set(float64(records))
	m.datasetCountries.Set(float64(countries))
	m.datasetYears.Set(float64(years))
	m.datasetLoadedAt.Set(float64(time.Now().Unix()))
}

// RecordLoad records one fetch+normalize of the remote table.
func (m *Manager) RecordLoad(store, outcome string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.loads.WithLabelValues(store, outcome).Inc()
	m.loadLatency.WithLabelValues(store).Observe(latencyMs)
}

// RecordSave records one write-back attempt.
func (m *Manager) RecordSave(store, mode, outcome string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.saves.WithLabelValues(store, mode, outcome).Inc()
	if outcome != OutcomeReplay {
		m.saveLatency.WithLabelValues(store, mode).Observe(latencyMs)
	}
}

// UpdateSavedRows sets the row count of the last successful save.
func (m *Manager) UpdateSavedRows(n int) {
	if m.enabled {
		m.savedRows.Set(float64(n))
	}
}

// SetPendingEdit flags whether a failed save awaits retry.
func (m *Manager) SetPendingEdit(pending bool) {
	if !m.enabled {
		return
	}
	if pending {
		m.pendingEdit.Set(1)
		return
	}
	m.pendingEdit.Set(0)
}

// UpdateQueueSize sets the number of queued saves.
func (m *Manager) UpdateQueueSize(n int) {
	if m.enabled {
		m.queueSize.Set(float64(n))
	}
}

// RecordQueueRejected counts a save the queue refused.
func (m *Manager) RecordQueueRejected(reason string) {
	if m.enabled {
		m.queueRejected.WithLabelValues(reason).Inc()
	}
}

// RecordQueueWait records how long a save waited for the writer.
func (m *Manager) RecordQueueWait(latencyMs float64) {
	if m.enabled {
		m.queueWait.Observe(latencyMs)
	}
}

// RecordViewBuild records how long building one view (or "all") took.
func (m *Manager) RecordViewBuild(view string, latencyMs float64) {
	if m.enabled {
		m.viewBuildLatency.WithLabelValues(view).Observe(latencyMs)
	}
}

// RecordFilteredRecords observes the size of a filtered table.
func (m *Manager) RecordFilteredRecords(n int) {
	if m.enabled {
		m.filteredRecords.Observe(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m.enabled {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error by component.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error by endpoint.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// SampleRuntime refreshes the memory and goroutine gauges.
func (m *Manager) SampleRuntime() {
	if !m.enabled {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.HeapInuse))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// RunRuntimeSampler samples runtime gauges every refresh interval until ctx
// is done.
func (m *Manager) RunRuntimeSampler(ctx context.Context) {
	if !m.enabled {
		return
	}
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	m.SampleRuntime()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SampleRuntime()
		}
	}
}

// Package-level helpers delegate to the global manager.

// RunRuntimeSampler runs the global manager's runtime sampler.
func RunRuntimeSampler(ctx context.Context) { globalManager.RunRuntimeSampler(ctx) }

// UpdateDataset sets the dataset gauges.
func UpdateDataset(records, countries, years int) {
	globalManager.UpdateDataset(records, countries, years)
}

// RecordLoad records a remote table load.
func RecordLoad(store, outcome string, latencyMs float64) {
	globalManager.RecordLoad(store, outcome, latencyMs)
}

// RecordSave records a write-back attempt.
func RecordSave(store, mode, outcome string, latencyMs float64) {
	globalManager.RecordSave(store, mode, outcome, latencyMs)
}

// UpdateSavedRows sets the rows written by the last save.
func UpdateSavedRows(n int) { globalManager.UpdateSavedRows(n) }

// SetPendingEdit flags a pending failed save.
func SetPendingEdit(pending bool) { globalManager.SetPendingEdit(pending) }

// UpdateQueueSize sets the write-back queue depth.
func UpdateQueueSize(n int) { globalManager.UpdateQueueSize(n) }

// RecordQueueRejected counts a refused save.
func RecordQueueRejected(reason string) { globalManager.RecordQueueRejected(reason) }

// RecordQueueWait records write-back queue wait time.
func RecordQueueWait(latencyMs float64) { globalManager.RecordQueueWait(latencyMs) }

// RecordViewBuild records view build latency.
func RecordViewBuild(view string, latencyMs float64) {
	globalManager.RecordViewBuild(view, latencyMs)
}

// RecordFilteredRecords observes a filtered table size.
func RecordFilteredRecords(n int) { globalManager.RecordFilteredRecords(n) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, duration)
}

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// SampleRuntime refreshes the runtime gauges.
func SampleRuntime() { globalManager.SampleRuntime() }

// GetRegistry returns the custom registry for use in HTTP handlers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
