package feed

import (
	"log/slog"

	"github.com/tphakala/audiofeed/internal/logging"
)

// log is the service logger for the feed package.
var log = getLoggerSafe("feed")

func getLoggerSafe(service string) *slog.Logger {
	logger := logging.ForService(service)
	if logger == nil {
		logger = slog.Default().With("service", service)
	}
	return logger
}
