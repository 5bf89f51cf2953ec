//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TimerChannelLen detects len() or cap() checks on timer/ticker channels.
//
// In Go 1.23+, timer and ticker channels are unbuffered (capacity 0),
// so checking len() or cap() always returns 0 and is likely a bug.
//
// Problematic pattern:
//
//	timer := time.NewTimer(1 * time.Second)
//	if len(timer.C) > 0 {  // Always false in Go 1.23+
//	    <-timer.C
//	}
//
// Use a non-blocking select instead.
//
// See: https://go.dev/doc/go1.23#timer-changes
func TimerChannelLen(m dsl.Matcher) {
	m.Match(
		`len($timer.C)`,
	).
		Where(m["timer"].Type.Is("*time.Timer")).
		Report("len() on timer channel is always 0 in Go 1.23+ (channels are now unbuffered); use non-blocking select instead")

	m.Match(
		`len($ticker.C)`,
	).
		Where(m["ticker"].Type.Is("*time.Ticker")).
		Report("len() on ticker channel is always 0 in Go 1.23+ (channels are now unbuffered); use non-blocking select instead")

	m.Match(
		`cap($timer.C)`,
	).
		Where(m["timer"].Type.Is("*time.Timer")).
		Report("cap() on timer channel is always 0 in Go 1.23+ (channels are now unbuffered)")

	m.Match(
		`cap($ticker.C)`,
	).
		Where(m["ticker"].Type.Is("*time.Ticker")).
		Report("cap() on ticker channel is always 0 in Go 1.23+ (channels are now unbuffered)")
}

// DeferredTimeSince detects deferred calls to time.Since which evaluate
// the duration at defer time, not at function exit. The feed pipeline
// records operation durations in several places, and this mistake makes
// every measurement report ~0.
//
// Broken pattern:
//
//	start := time.Now()
//	defer recordDuration(time.Since(start))  // Evaluated NOW, not at exit!
//
// Correct pattern:
//
//	start := time.Now()
//	defer func() { recordDuration(time.Since(start)) }()
//
// See: https://pkg.go.dev/time#Since
func DeferredTimeSince(m dsl.Matcher) {
	m.Match(
		`defer $fn(time.Since($start))`,
	).
		Report("time.Since($start) is evaluated at defer time, not function exit; wrap in func() to measure actual duration")

	m.Match(
		`defer $fn(time.Since($start), $*args)`,
	).
		Report("time.Since($start) is evaluated at defer time, not function exit; wrap in func() to measure actual duration")

	m.Match(
		`defer $fn($arg, time.Since($start))`,
	).
		Report("time.Since($start) is evaluated at defer time, not function exit; wrap in func() to measure actual duration")

	m.Match(
		`defer $fn($arg1, $arg2, time.Since($start))`,
	).
		Report("time.Since($start) is evaluated at defer time, not function exit; wrap in func() to measure actual duration")
}
