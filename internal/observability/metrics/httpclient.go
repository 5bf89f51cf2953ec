package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPClientMetrics contains Prometheus metrics for outbound HTTP operations
type HTTPClientMetrics struct {
	registry *prometheus.Registry

	// Request metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec

	// Stream metrics
	streamOpensTotal     *prometheus.CounterVec
	streamOpenDuration   *prometheus.HistogramVec
	streamRedirectsTotal *prometheus.CounterVec
	streamReadTimeouts   *prometheus.CounterVec
	streamBytesReadTotal *prometheus.CounterVec
	streamClosesTotal    *prometheus.CounterVec
}

// NewHTTPClientMetrics creates and registers new HTTP client metrics
func NewHTTPClientMetrics(registry *prometheus.Registry) (*HTTPClientMetrics, error) {
	m := &HTTPClientMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *HTTPClientMetrics) initMetrics() error {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpclient_requests_total",
			Help: "Total number of outbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpclient_request_duration_seconds",
			Help:    "Duration of outbound HTTP requests",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12), // 1ms to ~4s
		},
		[]string{"method"},
	)

	m.requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpclient_request_errors_total",
			Help: "Total number of outbound HTTP request errors",
		},
		[]string{"method", "error_type"}, // error_type: timeout, connection, redirect, other
	)

	m.streamOpensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpclient_stream_opens_total",
			Help: "Total number of stream open attempts",
		},
		[]string{"status"}, // status: success, error
	)

	m.streamOpenDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpclient_stream_open_duration_seconds",
			Help:    "Time taken to open a stream including redirects",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12), // 1ms to ~4s
		},
		[]string{"status"},
	)

	m.streamRedirectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpclient_stream_redirects_total",
			Help: "Total number of redirects followed while opening streams",
		},
		[]string{"host"},
	)

	m.streamReadTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpclient_stream_read_timeouts_total",
			Help: "Total number of stream reads that hit the read deadline",
		},
		[]string{"host"},
	)

	m.streamBytesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpclient_stream_bytes_read_total",
			Help: "Total bytes read from streams",
		},
		[]string{"host"},
	)

	m.streamClosesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpclient_stream_closes_total",
			Help: "Total number of stream closes",
		},
		[]string{"reason"}, // reason: complete, error, explicit
	)

	return nil
}

// Describe implements the Collector interface
func (m *HTTPClientMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.requestErrors.Describe(ch)
	m.streamOpensTotal.Describe(ch)
	m.streamOpenDuration.Describe(ch)
	m.streamRedirectsTotal.Describe(ch)
	m.streamReadTimeouts.Describe(ch)
	m.streamBytesReadTotal.Describe(ch)
	m.streamClosesTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *HTTPClientMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.requestErrors.Collect(ch)
	m.streamOpensTotal.Collect(ch)
	m.streamOpenDuration.Collect(ch)
	m.streamRedirectsTotal.Collect(ch)
	m.streamReadTimeouts.Collect(ch)
	m.streamBytesReadTotal.Collect(ch)
	m.streamClosesTotal.Collect(ch)
}

// RecordRequest records a completed HTTP request
func (m *HTTPClientMetrics) RecordRequest(method string, statusCode int, duration float64) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration)
}

// RecordRequestError records a failed HTTP request
func (m *HTTPClientMetrics) RecordRequestError(method, errorType string) {
	m.requestErrors.WithLabelValues(method, errorType).Inc()
}

// RecordStreamOpen records a stream open attempt and its duration
func (m *HTTPClientMetrics) RecordStreamOpen(status string, duration float64) {
	m.streamOpensTotal.WithLabelValues(status).Inc()
	m.streamOpenDuration.WithLabelValues(status).Observe(duration)
}

// RecordStreamRedirect records a redirect followed during stream open
func (m *HTTPClientMetrics) RecordStreamRedirect(host string) {
	m.streamRedirectsTotal.WithLabelValues(host).Inc()
}

// RecordStreamReadTimeout records a read that returned no data within the deadline
func (m *HTTPClientMetrics) RecordStreamReadTimeout(host string) {
	m.streamReadTimeouts.WithLabelValues(host).Inc()
}

// RecordStreamBytesRead records bytes read from a stream
func (m *HTTPClientMetrics) RecordStreamBytesRead(host string, bytes int) {
	m.streamBytesReadTotal.WithLabelValues(host).Add(float64(bytes))
}

// RecordStreamClose records a stream close and its reason
func (m *HTTPClientMetrics) RecordStreamClose(reason string) {
	m.streamClosesTotal.WithLabelValues(reason).Inc()
}
