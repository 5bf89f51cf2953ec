package feed

import (
	"sync"

	"github.com/tphakala/audiofeed/internal/observability/metrics"
)

var (
	globalMetrics *metrics.FeedMetrics
	metricsMutex  sync.RWMutex
	metricsOnce   sync.Once
)

// SetMetrics wires the feed metrics collector. Only the first call has an
// effect, so races between observability setup and early sessions are
// harmless.
func SetMetrics(m *metrics.FeedMetrics) {
	metricsOnce.Do(func() {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()
		globalMetrics = m
	})
}

// getMetrics returns the collector, or nil when metrics are not wired.
func getMetrics() *metrics.FeedMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalMetrics
}
