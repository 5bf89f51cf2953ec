//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// JoinHostPort detects fmt.Sprintf patterns for host:port and suggests net.JoinHostPort.
//
// The old pattern:
//
//	addr := fmt.Sprintf("%s:%d", host, port)
//
// Should be:
//
//	addr := net.JoinHostPort(host, strconv.Itoa(port))
//
// net.JoinHostPort properly handles IPv6 addresses by wrapping them in
// brackets, which fmt.Sprintf does not. The metrics listen address is
// user-configurable, so IPv6 hosts do show up here.
//
// See: https://pkg.go.dev/net#JoinHostPort
func JoinHostPort(m dsl.Matcher) {
	// Only flag fmt.Sprintf with integer port, a strong signal for network
	// addresses. String ports could be cache keys, identifiers, etc.
	m.Match(
		`fmt.Sprintf("%s:%d", $host, $port)`,
		`fmt.Sprintf("%v:%d", $host, $port)`,
	).
		Report("use net.JoinHostPort($host, strconv.Itoa($port)) instead of fmt.Sprintf for host:port (handles IPv6 correctly)")
}

// ErrorBeforeUse detects potential nil pointer dereference before error check.
//
// Go 1.25 fixed a compiler bug (Go 1.21-1.24) where nil checks were incorrectly
// delayed. Code that worked before may now correctly panic.
//
// Broken pattern:
//
//	f, err := os.Open(path)
//	name := f.Name()  // PANICS if err != nil
//	if err != nil { ... }
//
// Correct pattern:
//
//	f, err := os.Open(path)
//	if err != nil { ... }
//	name := f.Name()
//
// See: https://go.dev/doc/go1.25#compiler (nil check reordering fix)
func ErrorBeforeUse(m dsl.Matcher) {
	m.Match(
		`$f, $err := os.Open($path); $_ := $f.$method($*_); if $err != nil { $*_ }`,
		`$f, $err := os.Create($path); $_ := $f.$method($*_); if $err != nil { $*_ }`,
		`$f, $err := os.OpenFile($*_); $_ := $f.$method($*_); if $err != nil { $*_ }`,
	).
		Report("potential nil pointer: $f may be nil if $err != nil; check error before using $f.$method()")
}
