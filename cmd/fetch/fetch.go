package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tphakala/audiofeed/internal/buildinfo"
	"github.com/tphakala/audiofeed/internal/conf"
	"github.com/tphakala/audiofeed/internal/feed"
	"github.com/tphakala/audiofeed/internal/logging"
	"github.com/tphakala/audiofeed/internal/observability"
	"github.com/tphakala/audiofeed/internal/probe"
	"golang.org/x/sync/errgroup"
)

const (
	// drainChunkSize is the read granularity of the consumer loop.
	drainChunkSize = 4096
	// drainPollInterval is how long the consumer waits when the ring is empty.
	drainPollInterval = time.Millisecond
)

// outputPath holds the --output flag value
var outputPath string

// Command creates the fetch command, which pulls an audio source into a
// local file or stdout.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [file|url]",
		Short: "Fetch an audio source into a file",
		Long: `Pull audio from a local clip or a network stream through the feed engine.
Local paths are loaded into memory and replayed. URLs are streamed with
backpressure against the consumer. Output goes to --output or stdout.`,
		Args: cobra.ExactArgs(1), // the command expects exactly one source argument
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(settings, build, args[0])
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to write fetched audio to, stdout when omitted")

	return cmd
}

// runFetch wires the full pipeline: reader feeding a ring buffer, pump
// driving the reader, and a drain loop copying the ring into the destination.
func runFetch(settings *conf.Settings, build *buildinfo.Context, source string) error {
	runID := uuid.New().String()
	logger := logging.ForService("fetch").With("run_id", runID)

	// The metrics registry is always built so feed collectors are live.
	// The HTTP endpoint only starts when enabled in settings.
	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("error initializing metrics: %w", err)
	}

	var wg sync.WaitGroup
	quitChan := make(chan struct{})
	if settings.Metrics.Enabled {
		endpoint, err := observability.NewEndpoint(settings, metrics, build)
		if err != nil {
			return fmt.Errorf("error initializing metrics endpoint: %w", err)
		}
		endpoint.Start(&wg, quitChan)
	}
	defer func() {
		close(quitChan)
		wg.Wait()
	}()

	ring, err := feed.NewRingOutput(settings.Feed.Output.RingCapacity)
	if err != nil {
		return fmt.Errorf("error creating output ring: %w", err)
	}

	reader, err := feed.NewReader(ring, feed.ConfigFromSettings(settings))
	if err != nil {
		return fmt.Errorf("error creating reader: %w", err)
	}
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, err := startSource(ctx, reader, source)
	if err != nil {
		return err
	}
	logger.Info("source armed", "source", source, "format", format.String())

	dst, dstPath, err := openDestination()
	if err != nil {
		return err
	}

	pump := feed.NewPump(reader, feed.PumpConfig{MaxNoDataReads: settings.Feed.MaxNoDataReads})

	began := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	pumpDone := make(chan struct{})

	g.Go(func() error {
		defer close(pumpDone)
		return pump.Run(gctx)
	})

	g.Go(func() error {
		return drainRing(gctx, ring, dst, pumpDone)
	})

	runErr := g.Wait()
	elapsed := time.Since(began)

	if dstPath != "" {
		if err := dst.Close(); err != nil && runErr == nil {
			runErr = fmt.Errorf("error closing output file: %w", err)
		}
	}

	if runErr != nil {
		logger.Error("fetch failed", "source", source, "error", runErr)
		return runErr
	}

	printSummary(dstPath, reader, elapsed)

	return nil
}

// startSource arms the reader from either a local file or a network URL.
func startSource(ctx context.Context, reader *feed.Reader, source string) (feed.Format, error) {
	if !isLocalFile(source) {
		return reader.StartURL(ctx, source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return feed.FormatNone, fmt.Errorf("error reading input file: %w", err)
	}
	format := feed.DetectFormat(source)
	if format == feed.FormatNone {
		return feed.FormatNone, fmt.Errorf("unsupported file extension: %q", filepath.Ext(source))
	}

	return reader.Start(&feed.Clip{Data: data, Format: format})
}

// isLocalFile reports whether source names a regular file on disk rather
// than a URL.
func isLocalFile(source string) bool {
	if strings.Contains(source, "://") {
		return false
	}
	info, err := os.Stat(source)
	return err == nil && info.Mode().IsRegular()
}

// openDestination resolves where fetched audio goes. An explicit --output
// wins, otherwise bytes stream to stdout and the summary moves to stderr.
func openDestination() (io.WriteCloser, string, error) {
	if outputPath == "" {
		return os.Stdout, "", nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, "", fmt.Errorf("error creating output file: %w", err)
	}
	return f, outputPath, nil
}

// drainRing copies ring contents into dst until the pump has finished and
// the ring is empty. A short poll keeps the loop responsive without burning
// a core while the producer paces itself.
func drainRing(ctx context.Context, ring *feed.RingOutput, dst io.Writer, pumpDone <-chan struct{}) error {
	buf := make([]byte, drainChunkSize)
	for {
		n, err := ring.Read(buf)
		if err != nil {
			return fmt.Errorf("error reading output ring: %w", err)
		}
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("error writing output: %w", err)
			}
			continue
		}

		select {
		case <-pumpDone:
			if ring.Length() == 0 {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		time.Sleep(drainPollInterval)
	}
}

// printSummary reports the run outcome, probing the output file when one
// was written.
func printSummary(dstPath string, reader *feed.Reader, elapsed time.Duration) {
	// Keep stdout clean for audio bytes when no output file was given
	w := io.Writer(os.Stdout)
	if dstPath == "" {
		w = os.Stderr
	}

	fmt.Fprintf(w, "\n✅ Fetch complete\n")
	fmt.Fprintf(w, "Format:   %s\n", reader.Format())
	fmt.Fprintf(w, "Bytes:    %d\n", reader.BytesDelivered())
	fmt.Fprintf(w, "Elapsed:  %v\n", elapsed.Round(time.Millisecond))

	if dstPath == "" {
		return
	}
	fmt.Fprintf(w, "Output:   %s\n", dstPath)

	info, err := probe.File(dstPath)
	if err != nil {
		fmt.Fprintf(w, "Probe:    unavailable (%v)\n", err)
		return
	}
	fmt.Fprintf(w, "Media:    %s, %d Hz, %d ch, %d bit, %v\n",
		info.Format, info.SampleRate, info.Channels, info.BitDepth, info.Duration.Round(time.Millisecond))
}
