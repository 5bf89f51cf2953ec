package httpclient

import (
	"sync"

	"github.com/tphakala/audiofeed/internal/observability/metrics"
)

var (
	globalMetrics *metrics.HTTPClientMetrics
	metricsMutex  sync.RWMutex
	metricsOnce   sync.Once
)

// SetMetrics sets the global metrics instance for HTTP client instrumentation.
// This function is thread-safe and ensures metrics are only set once per process lifetime.
// Subsequent calls to this function will be ignored (idempotent behavior).
func SetMetrics(m *metrics.HTTPClientMetrics) {
	metricsOnce.Do(func() {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()
		globalMetrics = m
	})
}

// getMetrics returns the current metrics instance in a thread-safe manner
func getMetrics() *metrics.HTTPClientMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalMetrics
}
