// Package buildinfo carries build-time metadata injected by the linker,
// separate from user configuration.
package buildinfo

import "fmt"

// UnknownValue is reported when a metadata field was not set at build time,
// for example in a plain `go build` without ldflags.
const UnknownValue = "unknown"

// BuildInfo is the read surface handed to components that only report
// metadata, such as the version command and the metrics endpoint.
type BuildInfo interface {
	// Version returns the release version string.
	Version() string
	// BuildDate returns when the binary was built.
	BuildDate() string
}

// Context holds the injected metadata. A nil Context is valid and reports
// UnknownValue for every field.
type Context struct {
	version   string
	buildDate string
}

// NewContext creates a build metadata context.
func NewContext(version, buildDate string) *Context {
	return &Context{
		version:   version,
		buildDate: buildDate,
	}
}

// Version returns the release version, or UnknownValue when unset.
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the build timestamp, or UnknownValue when unset.
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// Summary renders the metadata as a single human-readable line.
func (c *Context) Summary() string {
	return fmt.Sprintf("%s (built %s)", c.Version(), c.BuildDate())
}
