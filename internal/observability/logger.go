// Package observability provides Prometheus metrics functionality for monitoring the AudioFeed application.
package observability

import (
	"log/slog"

	"github.com/tphakala/audiofeed/internal/logging"
)

// Package-level cached logger instance for efficiency.
// All logging in this package should use this variable.
var log = getLoggerSafe("observability")

// getLoggerSafe returns a logger for the service, falling back to default if logging not initialized
func getLoggerSafe(service string) *slog.Logger {
	logger := logging.ForService(service)
	if logger == nil {
		logger = slog.Default().With("service", service)
	}
	return logger
}
