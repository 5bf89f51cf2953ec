// Package metrics provides feed session metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FeedMetrics contains Prometheus metrics for audio feed sessions
type FeedMetrics struct {
	registry *prometheus.Registry

	// Session lifecycle metrics
	sessionsStartedTotal *prometheus.CounterVec
	sessionStartDuration *prometheus.HistogramVec
	handleReleasesTotal  *prometheus.CounterVec

	// Staging buffer metrics
	bufferAllocationsTotal *prometheus.CounterVec
	bufferCapacityGauge    *prometheus.GaugeVec

	// Read step metrics
	readsTotal      *prometheus.CounterVec
	readChunkBytes  *prometheus.HistogramVec
	readErrorsTotal *prometheus.CounterVec

	// Forwarding metrics
	bytesForwardedTotal  *prometheus.CounterVec
	forwardDuration      *prometheus.HistogramVec
	partialForwardsTotal *prometheus.CounterVec
	droppedBytesTotal    *prometheus.CounterVec

	// Flow control metrics
	pacingDelaysTotal       *prometheus.CounterVec
	backpressureClampsTotal *prometheus.CounterVec

	// Format detection metrics
	formatDetectionsTotal *prometheus.CounterVec

	// Pump metrics
	pumpRunsTotal        *prometheus.CounterVec
	pumpRunDuration      *prometheus.HistogramVec
	pumpNoProgressTotal  *prometheus.CounterVec
	pumpBytesMovedTotal  *prometheus.CounterVec
}

// NewFeedMetrics creates and registers new feed session metrics
func NewFeedMetrics(registry *prometheus.Registry) (*FeedMetrics, error) {
	m := &FeedMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *FeedMetrics) initMetrics() error {
	// Session lifecycle metrics
	m.sessionsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_sessions_started_total",
			Help: "Total number of feed sessions started",
		},
		[]string{"source_type", "status"}, // source_type: memory, network; status: success, error
	)

	m.sessionStartDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_session_start_duration_seconds",
			Help:    "Time taken to start a feed session",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12), // 1ms to ~4s
		},
		[]string{"source_type"},
	)

	m.handleReleasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_handle_releases_total",
			Help: "Total number of network handle releases",
		},
		[]string{"reason"}, // reason: complete, error, restart, close
	)

	// Staging buffer metrics
	m.bufferAllocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_buffer_allocations_total",
			Help: "Total number of staging buffer allocation attempts",
		},
		[]string{"status"}, // status: success, error, reused
	)

	m.bufferCapacityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_buffer_capacity_bytes",
			Help: "Capacity of the staging buffer in bytes",
		},
		[]string{"source_type"},
	)

	// Read step metrics
	m.readsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_reads_total",
			Help: "Total number of read steps",
		},
		[]string{"source_type", "state"}, // state: reading, finished, failed
	)

	m.readChunkBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_read_chunk_bytes",
			Help:    "Size of chunks received per read step",
			Buckets: prometheus.ExponentialBuckets(BucketStart64B, BucketFactor2, BucketCount8), // 64B to ~8KB
		},
		[]string{"source_type"},
	)

	m.readErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_read_errors_total",
			Help: "Total number of read step errors",
		},
		[]string{"source_type", "error_type"}, // error_type: transport, no_session
	)

	// Forwarding metrics
	m.bytesForwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_bytes_forwarded_total",
			Help: "Total bytes forwarded to the output buffer",
		},
		[]string{"source_type"},
	)

	m.forwardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_forward_duration_seconds",
			Help:    "Time spent forwarding a chunk to the output buffer",
			Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount12), // 0.1ms to ~400ms
		},
		[]string{"source_type"},
	)

	m.partialForwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_partial_forwards_total",
			Help: "Total number of forwards where the output accepted only part of the chunk",
		},
		[]string{"source_type"},
	)

	m.droppedBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_dropped_bytes_total",
			Help: "Total bytes dropped because the output did not accept them in time",
		},
		[]string{"source_type"},
	)

	// Flow control metrics
	m.pacingDelaysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_pacing_delays_total",
			Help: "Total number of pacing delays on slow reads",
		},
		[]string{"source_type"},
	)

	m.backpressureClampsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_backpressure_clamps_total",
			Help: "Total number of reads clamped by output buffer free space",
		},
		[]string{"source_type"},
	)

	// Format detection metrics
	m.formatDetectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_format_detections_total",
			Help: "Total number of container format detections",
		},
		[]string{"format"}, // format: wav, mp3, flac, unsupported
	)

	// Pump metrics
	m.pumpRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_pump_runs_total",
			Help: "Total number of pump runs",
		},
		[]string{"result"}, // result: finished, failed, stalled, cancelled
	)

	m.pumpRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_pump_run_duration_seconds",
			Help:    "Duration of pump runs",
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor10, BucketCount6), // 100ms to ~100s
		},
		[]string{"result"},
	)

	m.pumpNoProgressTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_pump_no_progress_reads_total",
			Help: "Total number of pump iterations that moved no bytes",
		},
		[]string{"source_type"},
	)

	m.pumpBytesMovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_pump_bytes_moved_total",
			Help: "Total bytes moved by pump runs",
		},
		[]string{"source_type"},
	)

	return nil
}

// Describe implements the Collector interface
func (m *FeedMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.sessionsStartedTotal.Describe(ch)
	m.sessionStartDuration.Describe(ch)
	m.handleReleasesTotal.Describe(ch)
	m.bufferAllocationsTotal.Describe(ch)
	m.bufferCapacityGauge.Describe(ch)
	m.readsTotal.Describe(ch)
	m.readChunkBytes.Describe(ch)
	m.readErrorsTotal.Describe(ch)
	m.bytesForwardedTotal.Describe(ch)
	m.forwardDuration.Describe(ch)
	m.partialForwardsTotal.Describe(ch)
	m.droppedBytesTotal.Describe(ch)
	m.pacingDelaysTotal.Describe(ch)
	m.backpressureClampsTotal.Describe(ch)
	m.formatDetectionsTotal.Describe(ch)
	m.pumpRunsTotal.Describe(ch)
	m.pumpRunDuration.Describe(ch)
	m.pumpNoProgressTotal.Describe(ch)
	m.pumpBytesMovedTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *FeedMetrics) Collect(ch chan<- prometheus.Metric) {
	m.sessionsStartedTotal.Collect(ch)
	m.sessionStartDuration.Collect(ch)
	m.handleReleasesTotal.Collect(ch)
	m.bufferAllocationsTotal.Collect(ch)
	m.bufferCapacityGauge.Collect(ch)
	m.readsTotal.Collect(ch)
	m.readChunkBytes.Collect(ch)
	m.readErrorsTotal.Collect(ch)
	m.bytesForwardedTotal.Collect(ch)
	m.forwardDuration.Collect(ch)
	m.partialForwardsTotal.Collect(ch)
	m.droppedBytesTotal.Collect(ch)
	m.pacingDelaysTotal.Collect(ch)
	m.backpressureClampsTotal.Collect(ch)
	m.formatDetectionsTotal.Collect(ch)
	m.pumpRunsTotal.Collect(ch)
	m.pumpRunDuration.Collect(ch)
	m.pumpNoProgressTotal.Collect(ch)
	m.pumpBytesMovedTotal.Collect(ch)
}

// Recording methods

// RecordSessionStart records a session start attempt
func (m *FeedMetrics) RecordSessionStart(sourceType, status string) {
	m.sessionsStartedTotal.WithLabelValues(sourceType, status).Inc()
}

// RecordSessionStartDuration records the time taken to start a session
func (m *FeedMetrics) RecordSessionStartDuration(sourceType string, duration float64) {
	m.sessionStartDuration.WithLabelValues(sourceType).Observe(duration)
}

// RecordHandleRelease records a network handle release
func (m *FeedMetrics) RecordHandleRelease(reason string) {
	m.handleReleasesTotal.WithLabelValues(reason).Inc()
}

// RecordBufferAllocation records a staging buffer allocation attempt
func (m *FeedMetrics) RecordBufferAllocation(status string) {
	m.bufferAllocationsTotal.WithLabelValues(status).Inc()
}

// UpdateBufferCapacity updates the staging buffer capacity gauge
func (m *FeedMetrics) UpdateBufferCapacity(sourceType string, capacity int) {
	m.bufferCapacityGauge.WithLabelValues(sourceType).Set(float64(capacity))
}

// RecordRead records a read step and the state it returned
func (m *FeedMetrics) RecordRead(sourceType, state string) {
	m.readsTotal.WithLabelValues(sourceType, state).Inc()
}

// RecordReadChunkBytes records the size of a received chunk
func (m *FeedMetrics) RecordReadChunkBytes(sourceType string, bytes int) {
	m.readChunkBytes.WithLabelValues(sourceType).Observe(float64(bytes))
}

// RecordReadError records a read step error
func (m *FeedMetrics) RecordReadError(sourceType, errorType string) {
	m.readErrorsTotal.WithLabelValues(sourceType, errorType).Inc()
}

// RecordBytesForwarded records bytes accepted by the output buffer
func (m *FeedMetrics) RecordBytesForwarded(sourceType string, bytes int) {
	m.bytesForwardedTotal.WithLabelValues(sourceType).Add(float64(bytes))
}

// RecordForwardDuration records the time spent forwarding a chunk
func (m *FeedMetrics) RecordForwardDuration(sourceType string, duration float64) {
	m.forwardDuration.WithLabelValues(sourceType).Observe(duration)
}

// RecordPartialForward records a forward that was only partially accepted
func (m *FeedMetrics) RecordPartialForward(sourceType string) {
	m.partialForwardsTotal.WithLabelValues(sourceType).Inc()
}

// RecordDroppedBytes records bytes dropped after a partial forward
func (m *FeedMetrics) RecordDroppedBytes(sourceType string, bytes int) {
	m.droppedBytesTotal.WithLabelValues(sourceType).Add(float64(bytes))
}

// RecordPacingDelay records a pacing delay applied after a slow read
func (m *FeedMetrics) RecordPacingDelay(sourceType string) {
	m.pacingDelaysTotal.WithLabelValues(sourceType).Inc()
}

// RecordBackpressureClamp records a read clamped by output free space
func (m *FeedMetrics) RecordBackpressureClamp(sourceType string) {
	m.backpressureClampsTotal.WithLabelValues(sourceType).Inc()
}

// RecordFormatDetection records the outcome of container format detection
func (m *FeedMetrics) RecordFormatDetection(format string) {
	m.formatDetectionsTotal.WithLabelValues(format).Inc()
}

// RecordPumpRun records a completed pump run and its duration in seconds
func (m *FeedMetrics) RecordPumpRun(result string, duration float64) {
	m.pumpRunsTotal.WithLabelValues(result).Inc()
	m.pumpRunDuration.WithLabelValues(result).Observe(duration)
}

// RecordPumpNoProgress records a pump iteration that moved no bytes
func (m *FeedMetrics) RecordPumpNoProgress(sourceType string) {
	m.pumpNoProgressTotal.WithLabelValues(sourceType).Inc()
}

// RecordPumpBytesMoved records bytes moved by the pump
func (m *FeedMetrics) RecordPumpBytesMoved(sourceType string, bytes int64) {
	m.pumpBytesMovedTotal.WithLabelValues(sourceType).Add(float64(bytes))
}
