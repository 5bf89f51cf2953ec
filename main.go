package main

import (
	"fmt"
	"os"

	"github.com/tphakala/audiofeed/cmd"
	"github.com/tphakala/audiofeed/internal/buildinfo"
	"github.com/tphakala/audiofeed/internal/conf"
)

// version and buildDate are populated at build time via ldflags, for example:
//
//	go build -ldflags "-X main.version=v1.2.3 -X main.buildDate=2026-08-24T10:00:00Z"
var (
	version   = buildinfo.UnknownValue
	buildDate = buildinfo.UnknownValue
)

func main() {
	// Load the application settings before any subcommand runs so flag
	// defaults come from the effective configuration.
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}

	// Propagate build metadata into settings for consumers that only see conf.
	settings.Version = version
	settings.BuildDate = buildDate

	build := buildinfo.NewContext(version, buildDate)

	rootCmd := cmd.RootCommand(settings, build)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
