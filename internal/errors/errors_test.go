package errors

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestFastPathNoReporting(t *testing.T) {
	// Ensure no reporter or hooks
	SetReporter(nil)
	ClearErrorHooks()

	// Create an error - should use fast path
	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.GetComponent() != "unknown" {
		t.Errorf("Expected component 'unknown' in fast path, got '%s'", ee.GetComponent())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic' in fast path, got '%s'", ee.Category)
	}
}

func TestBuilderFields(t *testing.T) {
	SetReporter(nil)
	ClearErrorHooks()

	ee := Newf("stream open failed: %w", NewStd("refused")).
		Component("feed").
		Category(CategoryNetwork).
		Context("operation", "start_url").
		Context("attempt", 1).
		Build()

	if ee.GetComponent() != "feed" {
		t.Errorf("Expected component 'feed', got '%s'", ee.GetComponent())
	}
	if ee.Category != CategoryNetwork {
		t.Errorf("Expected category 'network', got '%s'", ee.Category)
	}

	ctx := ee.GetContext()
	if ctx["operation"] != "start_url" {
		t.Errorf("Expected context operation 'start_url', got '%v'", ctx["operation"])
	}
	if ctx["attempt"] != 1 {
		t.Errorf("Expected context attempt 1, got '%v'", ctx["attempt"])
	}

	// Context copies must not alias the internal map
	ctx["operation"] = "mutated"
	if ee.GetContext()["operation"] != "start_url" {
		t.Error("GetContext must return a copy, internal map was mutated")
	}
}

func TestCategoryMatching(t *testing.T) {
	SetReporter(nil)
	ClearErrorHooks()

	netErr := New(NewStd("connection refused")).Category(CategoryNetwork).Build()
	otherNetErr := New(NewStd("different message")).Category(CategoryNetwork).Build()
	bufErr := New(NewStd("buffer full")).Category(CategoryBuffer).Build()

	// Is against another EnhancedError compares categories
	if !Is(netErr, otherNetErr) {
		t.Error("Expected errors with same category to match via Is")
	}
	if Is(netErr, bufErr) {
		t.Error("Expected errors with different categories not to match via Is")
	}

	if !IsCategory(netErr, CategoryNetwork) {
		t.Error("IsCategory should match the assigned category")
	}
	if IsCategory(netErr, CategoryBuffer) {
		t.Error("IsCategory should not match a different category")
	}
}

func TestSentinelUnwrapping(t *testing.T) {
	SetReporter(nil)
	ClearErrorHooks()

	sentinel := NewStd("staging buffer unavailable")
	ee := Newf("start failed: %w", sentinel).Category(CategoryResource).Build()

	// Sentinel must remain reachable through the enhanced wrapper
	if !Is(ee, sentinel) {
		t.Error("Expected wrapped sentinel to match via Is")
	}

	var target *EnhancedError
	if !As(ee, &target) {
		t.Error("Expected As to extract the EnhancedError")
	}
	if target.Category != CategoryResource {
		t.Errorf("Expected category 'resource', got '%s'", target.Category)
	}
}

func TestNetworkContextAnonymizesURL(t *testing.T) {
	SetReporter(nil)
	ClearErrorHooks()

	ee := New(NewStd("connect failed")).
		Category(CategoryNetwork).
		NetworkContext("https://cdn.example.com/stream.mp3?token=abc", 5*time.Second).
		Build()

	ctx := ee.GetContext()
	if ctx["url_category"] != "https-endpoint" {
		t.Errorf("Expected url_category 'https-endpoint', got '%v'", ctx["url_category"])
	}
	if ctx["timeout_seconds"] != 5.0 {
		t.Errorf("Expected timeout_seconds 5, got '%v'", ctx["timeout_seconds"])
	}
	for _, v := range ctx {
		if s, ok := v.(string); ok && strings.Contains(s, "cdn.example.com") {
			t.Errorf("Raw host leaked into context: %v", s)
		}
	}
}

func TestReporterReceivesBuiltErrors(t *testing.T) {
	var received []*EnhancedError
	SetReporter(&captureReporter{enabled: true, sink: &received})
	ClearErrorHooks()
	defer SetReporter(nil)

	ee := New(NewStd("read failed")).Component("feed").Category(CategoryTransport).Build()

	if len(received) != 1 {
		t.Fatalf("Expected reporter to receive 1 error, got %d", len(received))
	}
	if received[0] != ee {
		t.Error("Reporter received a different error instance")
	}
	if !ee.IsReported() {
		t.Error("Expected error to be marked reported")
	}
}

func TestDisabledReporterSkipped(t *testing.T) {
	var received []*EnhancedError
	SetReporter(&captureReporter{enabled: false, sink: &received})
	ClearErrorHooks()
	defer SetReporter(nil)

	New(NewStd("read failed")).Component("feed").Build()

	if len(received) != 0 {
		t.Errorf("Disabled reporter should not receive errors, got %d", len(received))
	}
}

func TestErrorHooksObserveBuilds(t *testing.T) {
	SetReporter(nil)
	ClearErrorHooks()
	defer ClearErrorHooks()

	var categories []ErrorCategory
	AddErrorHook(func(ee *EnhancedError) {
		categories = append(categories, ee.Category)
	})

	New(NewStd("unsupported container format")).Category(CategoryFormat).Build()
	New(NewStd("connection reset")).Category(CategoryNetwork).Build()

	if len(categories) != 2 {
		t.Fatalf("Expected 2 hook invocations, got %d", len(categories))
	}
	if categories[0] != CategoryFormat || categories[1] != CategoryNetwork {
		t.Errorf("Hook observed wrong categories: %v", categories)
	}
}

func TestCategoryAutoDetection(t *testing.T) {
	// Auto-detection only runs while reporting is active
	SetReporter(&captureReporter{enabled: true, sink: &[]*EnhancedError{}})
	defer SetReporter(nil)
	ClearErrorHooks()

	cases := []struct {
		name     string
		message  string
		expected ErrorCategory
	}{
		{"format", "unsupported extension .ogg", CategoryFormat},
		{"buffer", "staging buffer allocation failed", CategoryBuffer},
		{"network", "connection timed out", CategoryNetwork},
		{"validation", "invalid source uri", CategoryValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ee := New(NewStd(tc.message)).Build()
			if ee.Category != tc.expected {
				t.Errorf("Message %q: expected category %q, got %q", tc.message, tc.expected, ee.Category)
			}
		})
	}
}

func TestRegexPrecompilation(t *testing.T) {
	// Test that regex patterns are pre-compiled and work correctly

	// Test URL scrubbing
	testMessage1 := "Error at https://api.example.com?api_key=secret123&token=abc"
	scrubbed1 := basicURLScrub(testMessage1)
	expected1 := "Error at https://api.example.com?[REDACTED]"
	if scrubbed1 != expected1 {
		t.Errorf("URL scrubbing failed. Expected: %s, got: %s", expected1, scrubbed1)
	}

	// Test API key scrubbing in non-URL context
	testMessage2 := "Config error: api_key=secret123 is invalid"
	scrubbed2 := basicURLScrub(testMessage2)
	if !strings.Contains(scrubbed2, "[API_KEY_REDACTED]") {
		t.Errorf("API key scrubbing failed. Expected to contain '[API_KEY_REDACTED]', got: %s", scrubbed2)
	}

	// Test multiple patterns
	testMessage3 := "Auth failed with token=abc123 and auth=xyz789"
	scrubbed3 := basicURLScrub(testMessage3)
	if strings.Contains(scrubbed3, "abc123") || strings.Contains(scrubbed3, "xyz789") {
		t.Errorf("Token scrubbing failed. Sensitive data still present: %s", scrubbed3)
	}
}

// captureReporter collects every reported error for assertions.
type captureReporter struct {
	enabled bool
	sink    *[]*EnhancedError
}

func (c *captureReporter) IsEnabled() bool {
	return c.enabled
}

func (c *captureReporter) ReportError(ee *EnhancedError) {
	*c.sink = append(*c.sink, ee)
	ee.MarkReported()
}
