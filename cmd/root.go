package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/audiofeed/cmd/fetch"
	"github.com/tphakala/audiofeed/cmd/probe"
	"github.com/tphakala/audiofeed/cmd/support"
	"github.com/tphakala/audiofeed/internal/buildinfo"
	"github.com/tphakala/audiofeed/internal/conf"
	"github.com/tphakala/audiofeed/internal/errors"
	"github.com/tphakala/audiofeed/internal/logging"
	"github.com/tphakala/audiofeed/internal/observability"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "audiofeed",
		Short:   "AudioFeed CLI",
		Long:    "Pull-based audio ingestion engine for local clips and network streams.",
		Version: build.Summary(),
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		fetch.Command(settings, build),
		probe.Command(settings),
		support.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Parse the command line flags
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}

		return initialize(settings)
	}

	return rootCmd
}

// initialize is called before any subcommand runs, after flags have been
// parsed into the settings. It sets up logging and error reporting.
func initialize(settings *conf.Settings) error {
	logging.Init()
	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	// Route built errors through the structured logger
	errors.SetReporter(observability.NewLogReporter(true))

	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().IntVar(&settings.Feed.TransferBufferSize, "transfersize", viper.GetInt("feed.transferbuffersize"), "Staging buffer size in bytes for each read")
	rootCmd.PersistentFlags().IntVar(&settings.Feed.Output.RingCapacity, "ringcapacity", viper.GetInt("feed.output.ringcapacity"), "Output ring buffer capacity in bytes")
	rootCmd.PersistentFlags().BoolVar(&settings.Metrics.Enabled, "metrics", viper.GetBool("metrics.enabled"), "Enable Prometheus metrics endpoint")
	rootCmd.PersistentFlags().StringVar(&settings.Metrics.Listen, "listen", viper.GetString("metrics.listen"), "Listen address and port of metrics endpoint")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
