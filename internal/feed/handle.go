package feed

import (
	"context"
	"time"

	"github.com/tphakala/audiofeed/internal/httpclient"
)

// StreamHandle is an open network source owned by exactly one Reader. The
// Reader releases it on restart, on stream end, on transport failure, and on
// Close, whichever comes first.
//
// Read with a zero-length slice must return (0, nil) immediately; the Reader
// issues such reads when the output buffer has no room, purely to keep its
// pacing cadence. A read that times out with no data must also return
// (0, nil) rather than an error, so the Reader can keep polling.
type StreamHandle interface {
	// Read fills p with stream bytes, waiting at most the configured
	// read timeout.
	Read(p []byte) (int, error)
	// IsComplete reports whether every byte of the stream has been
	// consumed.
	IsComplete() bool
	// SetReadTimeout adjusts the per-read timeout for subsequent reads.
	SetReadTimeout(d time.Duration)
	// ContentLength returns the advertised stream length, or a value
	// <= 0 when the server did not say.
	ContentLength() int64
	// FinalURL returns the URL the stream resolved to after redirects.
	FinalURL() string
	// Close releases the connection. It must be safe to call more than
	// once.
	Close() error
}

// HandleOpener opens a StreamHandle for a URI. Readers use it so tests can
// substitute fakes for real connections.
type HandleOpener func(ctx context.Context, uri string) (StreamHandle, error)

// httpOpener builds the production opener on top of the HTTP stream client.
func httpOpener(cfg *Config) HandleOpener {
	return func(ctx context.Context, uri string) (StreamHandle, error) {
		stream, err := httpclient.OpenStream(ctx, uri, &httpclient.StreamConfig{
			MaxRedirects:   cfg.MaxRedirects,
			ConnectTimeout: cfg.ConnectTimeout,
			ReadTimeout:    cfg.ReadTimeout,
			UserAgent:      cfg.UserAgent,
			InsecureTLS:    cfg.InsecureTLS,
			TransferSize:   cfg.TransferSize,
		})
		if err != nil {
			return nil, err
		}
		return stream, nil
	}
}
