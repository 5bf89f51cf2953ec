package observability

import (
	"log/slog"

	"github.com/tphakala/audiofeed/internal/errors"
)

// LogReporter forwards enhanced errors to the structured log. It is the
// default reporting sink wired into the errors package at startup so that
// component and category telemetry ends up in the service log even when no
// external error tracker is configured.
type LogReporter struct {
	logger  *slog.Logger
	enabled bool
}

// NewLogReporter creates a reporter writing to the observability service log.
func NewLogReporter(enabled bool) *LogReporter {
	return &LogReporter{
		logger:  getLoggerSafe("error-reporter"),
		enabled: enabled,
	}
}

// ReportError logs the enhanced error with its telemetry attributes.
// Messages are scrubbed before logging so URLs and identifiers never
// reach the log in raw form.
func (r *LogReporter) ReportError(ee *errors.EnhancedError) {
	if ee == nil {
		return
	}

	attrs := []any{
		"component", ee.GetComponent(),
		"category", ee.GetCategory(),
		"priority", ee.GetPriority(),
	}
	for k, v := range ee.GetContext() {
		attrs = append(attrs, k, v)
	}

	msg := errors.ScrubMessage(ee.GetMessage())
	switch ee.GetPriority() {
	case errors.PriorityCritical, errors.PriorityHigh:
		r.logger.Error(msg, attrs...)
	case errors.PriorityLow:
		r.logger.Info(msg, attrs...)
	default:
		r.logger.Warn(msg, attrs...)
	}

	ee.MarkReported()
}

// IsEnabled reports whether this reporter should receive errors.
func (r *LogReporter) IsEnabled() bool {
	return r.enabled
}
