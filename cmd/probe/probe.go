package probe

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tphakala/audiofeed/internal/conf"
	"github.com/tphakala/audiofeed/internal/probe"
)

// Command creates the probe command for inspecting a local audio file.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [file]",
		Short: "Inspect an audio file",
		Long:  "Read container metadata from a WAV, MP3 or FLAC file without decoding the audio.",
		Args:  cobra.ExactArgs(1), // the command expects exactly one argument
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(settings, args[0])
		},
	}

	return cmd
}

// runProbe prints container metadata for the given file.
func runProbe(settings *conf.Settings, path string) error {
	info, err := probe.File(path)
	if err != nil {
		return err
	}

	fmt.Printf("File:         %s\n", path)
	fmt.Printf("Format:       %s\n", info.Format)
	fmt.Printf("Sample rate:  %d Hz\n", info.SampleRate)
	fmt.Printf("Channels:     %d\n", info.Channels)
	fmt.Printf("Bit depth:    %d\n", info.BitDepth)
	fmt.Printf("Duration:     %v\n", info.Duration.Round(time.Millisecond))
	fmt.Printf("Size:         %d bytes\n", info.Size)

	if settings.Debug {
		fmt.Printf("Extension:    %s\n", info.Format.Extension())
	}

	return nil
}
