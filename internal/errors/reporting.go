// Package errors - pluggable error reporting
package errors

import (
	"regexp"
	"sync"
	"sync/atomic"
)

// Reporter receives enhanced errors for out-of-band handling, typically
// structured logging or metrics. Implementations live outside this package
// so that error creation never depends on logging or observability code.
type Reporter interface {
	ReportError(ee *EnhancedError)
	IsEnabled() bool
}

// ErrorHook is called for every enhanced error built while hooks are installed.
// Hooks run synchronously on the goroutine that builds the error, so they
// must be fast and must not build enhanced errors themselves.
type ErrorHook func(ee *EnhancedError)

// hasActiveReporting gates the expensive auto-detection path in Build.
// It is true only while a reporter or at least one hook is installed.
var hasActiveReporting atomic.Bool

var (
	reporterMu     sync.RWMutex
	globalReporter Reporter
	errorHooks     []ErrorHook
)

// SetReporter installs the global error reporter. Passing nil removes it.
func SetReporter(reporter Reporter) {
	reporterMu.Lock()
	globalReporter = reporter
	updateActiveReporting()
	reporterMu.Unlock()
}

// GetReporter returns the currently installed reporter, or nil.
func GetReporter() Reporter {
	reporterMu.RLock()
	defer reporterMu.RUnlock()
	return globalReporter
}

// AddErrorHook registers a hook that observes every built error.
func AddErrorHook(hook ErrorHook) {
	if hook == nil {
		return
	}
	reporterMu.Lock()
	errorHooks = append(errorHooks, hook)
	updateActiveReporting()
	reporterMu.Unlock()
}

// ClearErrorHooks removes all registered hooks.
func ClearErrorHooks() {
	reporterMu.Lock()
	errorHooks = nil
	updateActiveReporting()
	reporterMu.Unlock()
}

// updateActiveReporting recomputes the fast-path gate. Caller holds reporterMu.
func updateActiveReporting() {
	hasActiveReporting.Store(globalReporter != nil || len(errorHooks) > 0)
}

// reportError hands a freshly built error to the hooks and the reporter.
func reportError(ee *EnhancedError) {
	reporterMu.RLock()
	hooks := errorHooks
	reporter := globalReporter
	reporterMu.RUnlock()

	for _, hook := range hooks {
		hook(ee)
	}

	if reporter != nil && reporter.IsEnabled() && !ee.IsReported() {
		reporter.ReportError(ee)
	}
}

// PrivacyScrubber is a function type for privacy scrubbing
type PrivacyScrubber func(string) string

// Global privacy scrubber function (optional override)
var globalPrivacyScrubber PrivacyScrubber

// SetPrivacyScrubber sets the global privacy scrubbing function
func SetPrivacyScrubber(scrubber PrivacyScrubber) {
	globalPrivacyScrubber = scrubber
}

// ScrubMessage applies privacy protection to error messages before they
// leave the process through a reporter.
func ScrubMessage(message string) string {
	if globalPrivacyScrubber != nil {
		return globalPrivacyScrubber(message)
	}

	// Fallback to basic scrubbing if no privacy scrubber is set
	return basicURLScrub(message)
}

// Pre-compiled patterns for the basic scrubber. Compiling per message showed
// up in profiles when errors were built in the read loop.
var (
	urlQueryRegex   = regexp.MustCompile(`(https?://[^?\s]+)\?\S*`)
	queryParamRegex = regexp.MustCompile(`[?&]([^=\s]+)=([^&\s]+)`)

	apiKeyRegexes = []*regexp.Regexp{
		regexp.MustCompile(`api[_-]?key[=:]\S+`),     // api_key=xxx, apikey:xxx
		regexp.MustCompile(`token[=:]\S+`),           // token=xxx
		regexp.MustCompile(`auth[=:]\S+`),            // auth=xxx
		regexp.MustCompile(`key[=:][0-9a-fA-F]{8,}`), // key=hexstring
		regexp.MustCompile(`[0-9a-fA-F]{32,}`),       // Long hex strings (likely API keys)
	}

	idRegexes = []*regexp.Regexp{
		regexp.MustCompile(`user[_-]?id[=:]\S+`),    // user_id=xxx
		regexp.MustCompile(`device[_-]?id[=:]\S+`),  // device_id=xxx
		regexp.MustCompile(`client[_-]?id[=:]\S+`),  // client_id=xxx
		regexp.MustCompile(`session[_-]?id[=:]\S+`), // session_id=xxx
	}
)

// basicURLScrub provides basic URL anonymization as fallback
func basicURLScrub(message string) string {
	// Replace query parameters with [REDACTED]
	scrubbed := urlQueryRegex.ReplaceAllString(message, "$1?[REDACTED]")

	// Also scrub any standalone query parameters that might appear
	scrubbed = queryParamRegex.ReplaceAllString(scrubbed, "?[REDACTED]")

	// API keys and tokens in various formats
	for _, regex := range apiKeyRegexes {
		scrubbed = regex.ReplaceAllString(scrubbed, "[API_KEY_REDACTED]")
	}

	// User and device identifiers
	for _, regex := range idRegexes {
		scrubbed = regex.ReplaceAllString(scrubbed, "[ID_REDACTED]")
	}

	return scrubbed
}
