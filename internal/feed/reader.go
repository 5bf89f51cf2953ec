// Package feed implements the pull-based ingestion engine that moves encoded
// audio from a memory clip or an HTTP(S) stream into a shared ring buffer.
//
// A Reader owns one session at a time. Callers arm it with Start or StartURL
// and then poll Read until it reports a terminal state; each poll moves at
// most one staging buffer worth of bytes and applies backpressure against the
// output ring, so a stalled consumer slows the feed instead of growing
// memory. The Pump type wraps that poll loop for callers that just want the
// stream drained to completion.
package feed

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/tphakala/audiofeed/internal/conf"
	"github.com/tphakala/audiofeed/internal/diagnostics"
	"github.com/tphakala/audiofeed/internal/errors"
	"github.com/tphakala/audiofeed/internal/observability/metrics"
)

// Defaults applied by NewReader for zero Config fields. The transfer size
// doubles as the HTTP receive buffer size, and the pacing delay matches the
// output push timeout so a slow stream and a full ring wait the same way.
const (
	DefaultTransferSize   = 4096
	DefaultIOTimeout      = 20 * time.Millisecond
	DefaultReadTimeout    = 10 * time.Millisecond
	DefaultPacingDelay    = 20 * time.Millisecond
	DefaultMaxRedirects   = 10
	DefaultConnectTimeout = 5 * time.Second
)

// Sentinel errors returned by Start and StartURL. They are wrapped with
// component and category context, so match them with errors.Is.
var (
	ErrNoMemory          = errors.NewStd("staging buffer allocation failed")
	ErrInvalidClip       = errors.NewStd("nil media clip")
	ErrInvalidURI        = errors.NewStd("empty stream URI")
	ErrUnsupportedFormat = errors.NewStd("unsupported container format")
)

// allocateStaging obtains the fixed staging buffer, returning nil when the
// allocation cannot be satisfied. Tests replace it to exercise the
// out-of-memory path.
var allocateStaging = func(size int) []byte {
	return make([]byte, size)
}

// pacingSleep delays the poll loop after a network read that filled less
// than three quarters of the staging buffer. Tests replace it to observe
// pacing decisions without waiting.
var pacingSleep = time.Sleep

// captureSystemInfo snapshots system state when the feed hits a resource
// problem. The real capture blocks while sampling CPU load, so tests stub it.
var captureSystemInfo = diagnostics.CaptureSystemInfo

// Clip is an in-memory media source. The format is declared by whoever
// produced the clip; the engine does not sniff memory data.
type Clip struct {
	Data   []byte
	Format Format
}

// Config controls a Reader. The zero value is usable; NewReader fills in
// defaults.
type Config struct {
	// TransferSize is the staging buffer capacity in bytes. It bounds how
	// much data a single Read step can move.
	TransferSize int
	// IOTimeout bounds each push into the output buffer.
	IOTimeout time.Duration
	// ReadTimeout is the steady-state timeout applied to each network
	// read once a stream is open.
	ReadTimeout time.Duration
	// PacingDelay is inserted after a network read that came back mostly
	// empty, so a fast poller does not spin against a slow server.
	PacingDelay time.Duration

	// MaxRedirects, ConnectTimeout, UserAgent and InsecureTLS configure
	// how network sessions are opened.
	MaxRedirects   int
	ConnectTimeout time.Duration
	UserAgent      string
	InsecureTLS    bool

	// Debug enables per-step logging.
	Debug bool

	// Opener opens network handles. Leave nil for the HTTP opener; tests
	// substitute fakes here.
	Opener HandleOpener
}

// ConfigFromSettings maps the application settings onto a Reader Config.
func ConfigFromSettings(settings *conf.Settings) Config {
	fs := settings.Feed
	return Config{
		TransferSize:   fs.TransferBufferSize,
		IOTimeout:      time.Duration(fs.IOTimeoutMs) * time.Millisecond,
		ReadTimeout:    time.Duration(fs.Network.ReadTimeoutMs) * time.Millisecond,
		PacingDelay:    time.Duration(fs.IOTimeoutMs) * time.Millisecond,
		MaxRedirects:   fs.Network.MaxRedirects,
		ConnectTimeout: time.Duration(fs.Network.ConnectTimeoutMs) * time.Millisecond,
		UserAgent:      fs.Network.UserAgent,
		InsecureTLS:    fs.Network.InsecureTLS,
		Debug:          fs.Debug,
	}
}

type sourceMode uint8

const (
	modeNone sourceMode = iota
	modeMemory
	modeNetwork
)

// Handle release reasons used for logs and metrics labels.
const (
	releaseComplete = "complete"
	releaseError    = "error"
	releaseRestart  = "restart"
	releaseClose    = "close"
)

// Reader is a single-session ingestion engine. It is not safe for concurrent
// use: one goroutine owns a Reader and polls it, while any number of
// goroutines may drain the output buffer it writes to.
type Reader struct {
	cfg Config
	out OutputBuffer

	// staging is allocated on the first Start and reused for the life of
	// the Reader. A nil staging after a failed allocation is retried on
	// the next Start.
	staging []byte

	mode      sourceMode
	format    Format
	delivered int64

	// pending is the unconsumed remainder of the active memory clip.
	pending []byte

	// handle is the active network source, nil outside network mode.
	handle StreamHandle
}

// NewReader creates a Reader pushing into out.
func NewReader(out OutputBuffer, cfg Config) (*Reader, error) {
	if out == nil {
		return nil, errors.NewStd("nil output buffer")
	}
	if cfg.TransferSize <= 0 {
		cfg.TransferSize = DefaultTransferSize
	}
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = DefaultIOTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.PacingDelay <= 0 {
		cfg.PacingDelay = DefaultPacingDelay
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	r := &Reader{cfg: cfg, out: out}
	if r.cfg.Opener == nil {
		r.cfg.Opener = httpOpener(&r.cfg)
	}
	return r, nil
}

// Start arms the Reader with an in-memory clip. Any previous session,
// including an open network stream, is torn down first. The clip's declared
// format is returned.
func (r *Reader) Start(clip *Clip) (Format, error) {
	began := time.Now()

	if err := r.ensureStaging(); err != nil {
		r.recordStart(metrics.SourceMemory, metrics.StatusError, began)
		return FormatNone, err
	}

	r.releaseHandle(releaseRestart)
	r.disarm()

	if clip == nil {
		r.recordStart(metrics.SourceMemory, metrics.StatusError, began)
		return FormatNone, errors.New(ErrInvalidClip).
			Component("feed").
			Category(errors.CategoryValidation).
			Context("operation", "start_clip").
			Build()
	}

	r.mode = modeMemory
	r.format = clip.Format
	r.pending = clip.Data

	r.recordStart(metrics.SourceMemory, metrics.StatusSuccess, began)
	if m := getMetrics(); m != nil {
		m.UpdateBufferCapacity(metrics.SourceMemory, len(r.staging))
		m.RecordFormatDetection(clip.Format.String())
	}
	if r.cfg.Debug {
		log.Debug("memory session started",
			"bytes", len(clip.Data),
			"format", clip.Format.String())
	}
	return clip.Format, nil
}

// StartURL arms the Reader with an HTTP(S) stream. Any previous session is
// torn down first. The container format is detected from the URL the stream
// resolves to after redirects; an unrecognized suffix closes the connection
// and fails the start. The returned format tells the caller which decoder to
// arm downstream.
//
// ctx governs the whole network session, not just the open. Cancelling it
// fails the next Read.
func (r *Reader) StartURL(ctx context.Context, uri string) (Format, error) {
	began := time.Now()

	if err := r.ensureStaging(); err != nil {
		r.recordStart(metrics.SourceNetwork, metrics.StatusError, began)
		return FormatNone, err
	}

	r.releaseHandle(releaseRestart)
	r.disarm()

	if uri == "" {
		r.recordStart(metrics.SourceNetwork, metrics.StatusError, began)
		return FormatNone, errors.New(ErrInvalidURI).
			Component("feed").
			Category(errors.CategoryValidation).
			Context("operation", "start_url").
			Build()
	}

	handle, err := r.cfg.Opener(ctx, uri)
	if err != nil {
		r.recordStart(metrics.SourceNetwork, metrics.StatusError, began)
		return FormatNone, errors.New(err).
			Component("feed").
			Category(errors.CategoryNetwork).
			Context("operation", "start_url").
			Context("url", errors.ScrubMessage(uri)).
			Build()
	}

	finalURL := handle.FinalURL()
	format := DetectFormat(finalURL)
	if format == FormatNone {
		if closeErr := handle.Close(); closeErr != nil && r.cfg.Debug {
			log.Debug("closing rejected stream failed", "error", closeErr)
		}
		r.recordStart(metrics.SourceNetwork, metrics.StatusError, began)
		if m := getMetrics(); m != nil {
			m.RecordHandleRelease(releaseError)
			m.RecordFormatDetection("unsupported")
		}
		return FormatNone, errors.New(ErrUnsupportedFormat).
			Component("feed").
			Category(errors.CategoryFormat).
			Context("operation", "start_url").
			Context("url", errors.ScrubMessage(finalURL)).
			Build()
	}

	handle.SetReadTimeout(r.cfg.ReadTimeout)

	r.mode = modeNetwork
	r.format = format
	r.handle = handle

	r.recordStart(metrics.SourceNetwork, metrics.StatusSuccess, began)
	if m := getMetrics(); m != nil {
		m.UpdateBufferCapacity(metrics.SourceNetwork, len(r.staging))
		m.RecordFormatDetection(format.String())
	}
	if r.cfg.Debug {
		log.Debug("network session started",
			"url", errors.ScrubMessage(finalURL),
			"format", format.String(),
			"content_length", handle.ContentLength())
	}
	return format, nil
}

// Read performs one ingestion step for the active session and reports the
// session state. With no active session, including after a terminal network
// state has torn the session down, it returns StateFailed.
func (r *Reader) Read() State {
	var state State
	src := r.sourceLabel()

	switch r.mode {
	case modeNetwork:
		state = r.stepNetwork()
	case modeMemory:
		state = r.stepMemory()
	default:
		state = StateFailed
	}

	if m := getMetrics(); m != nil {
		m.RecordRead(src, state.String())
	}
	return state
}

// stepMemory pushes the next slice of the clip into the output buffer. The
// cursor advances only by what the buffer accepted, so nothing is lost when
// the consumer lags; the step reports StateReading even when zero bytes were
// accepted. A drained clip reports StateFinished on every subsequent step.
func (r *Reader) stepMemory() State {
	if len(r.pending) == 0 {
		return StateFinished
	}

	accepted := r.forward(metrics.SourceMemory, r.pending)
	r.pending = r.pending[accepted:]
	return StateReading
}

// stepNetwork moves at most one staging buffer of stream data into the
// output buffer. Stream end and transport failure both release the handle,
// so a terminal state from this step means the connection is already gone.
func (r *Reader) stepNetwork() State {
	if r.handle.IsComplete() {
		if r.cfg.Debug {
			log.Debug("stream complete", "bytes_delivered", r.delivered)
		}
		r.releaseHandle(releaseComplete)
		r.mode = modeNone
		return StateFinished
	}

	// Never ask for more than the ring can take right now. A full ring
	// degrades this step to a zero-byte read that just keeps the pacing
	// cadence.
	readSize := len(r.staging)
	if free := r.out.Free(); free < readSize {
		readSize = free
		if m := getMetrics(); m != nil {
			m.RecordBackpressureClamp(metrics.SourceNetwork)
		}
	}

	n, err := r.handle.Read(r.staging[:readSize])
	if err != nil {
		log.Error("stream read failed",
			"error", err,
			"error_type", streamErrorType(err),
			"bytes_delivered", r.delivered)
		if m := getMetrics(); m != nil {
			m.RecordReadError(metrics.SourceNetwork, streamErrorType(err))
		}
		r.releaseHandle(releaseError)
		r.mode = modeNone
		return StateFailed
	}

	if n > 0 {
		if m := getMetrics(); m != nil {
			m.RecordReadChunkBytes(metrics.SourceNetwork, n)
		}
		accepted := r.forward(metrics.SourceNetwork, r.staging[:n])
		if accepted < n {
			// Stream data already consumed from the handle cannot
			// be replayed; the shortfall is dropped.
			if m := getMetrics(); m != nil {
				m.RecordDroppedBytes(metrics.SourceNetwork, n-accepted)
			}
			if r.cfg.Debug {
				log.Debug("output full, dropping stream bytes",
					"offered", n,
					"accepted", accepted)
			}
		}
	}

	// A read that filled less than three quarters of the staging buffer
	// means the server is the bottleneck; back off before polling again.
	// The comparison uses the full buffer size even when the read was
	// clamped, so heavy backpressure also paces.
	if n*4 < len(r.staging)*3 {
		if m := getMetrics(); m != nil {
			m.RecordPacingDelay(metrics.SourceNetwork)
		}
		pacingSleep(r.cfg.PacingDelay)
	}

	return StateReading
}

// forward pushes p into the output buffer within the configured timeout and
// returns the accepted byte count, updating delivery accounting.
func (r *Reader) forward(src string, p []byte) int {
	began := time.Now()
	accepted := r.out.WriteBounded(p, r.cfg.IOTimeout)
	r.delivered += int64(accepted)

	if m := getMetrics(); m != nil {
		m.RecordForwardDuration(src, time.Since(began).Seconds())
		if accepted > 0 {
			m.RecordBytesForwarded(src, accepted)
		}
		if accepted < len(p) {
			m.RecordPartialForward(src)
		}
	}
	return accepted
}

// Close tears down the active session and releases the staging buffer. The
// Reader stays usable: a later Start allocates a fresh staging buffer.
func (r *Reader) Close() error {
	r.releaseHandle(releaseClose)
	r.disarm()
	r.staging = nil
	return nil
}

// Format returns the container format of the active session, or FormatNone.
func (r *Reader) Format() Format {
	return r.format
}

// BytesDelivered returns how many bytes the current session has pushed into
// the output buffer. It resets on Start.
func (r *Reader) BytesDelivered() int64 {
	return r.delivered
}

// ensureStaging allocates the staging buffer on first use. The buffer is
// sized once from the configured transfer size and reused across sessions.
func (r *Reader) ensureStaging() error {
	if r.staging != nil {
		if m := getMetrics(); m != nil {
			m.RecordBufferAllocation("reused")
		}
		return nil
	}

	buf := allocateStaging(r.cfg.TransferSize)
	if buf == nil {
		log.Error("staging buffer allocation failed", "requested_bytes", r.cfg.TransferSize)
		captureSystemInfo("staging buffer allocation failure")
		if m := getMetrics(); m != nil {
			m.RecordBufferAllocation(metrics.StatusError)
		}
		return errors.New(ErrNoMemory).
			Component("feed").
			Category(errors.CategoryResource).
			Context("operation", "allocate_staging").
			Context("requested_bytes", r.cfg.TransferSize).
			Build()
	}

	r.staging = buf
	if m := getMetrics(); m != nil {
		m.RecordBufferAllocation(metrics.StatusSuccess)
	}
	return nil
}

// disarm clears the session state without touching the staging buffer or the
// handle.
func (r *Reader) disarm() {
	r.mode = modeNone
	r.format = FormatNone
	r.pending = nil
	r.delivered = 0
}

// releaseHandle closes and forgets the network handle if one is held. Safe
// to call in any mode.
func (r *Reader) releaseHandle(reason string) {
	if r.handle == nil {
		return
	}
	if err := r.handle.Close(); err != nil && r.cfg.Debug {
		log.Debug("stream handle close failed", "reason", reason, "error", err)
	}
	r.handle = nil
	if m := getMetrics(); m != nil {
		m.RecordHandleRelease(reason)
	}
}

func (r *Reader) sourceLabel() string {
	switch r.mode {
	case modeMemory:
		return metrics.SourceMemory
	case modeNetwork:
		return metrics.SourceNetwork
	default:
		return "none"
	}
}

func (r *Reader) recordStart(src, status string, began time.Time) {
	if m := getMetrics(); m != nil {
		m.RecordSessionStart(src, status)
		m.RecordSessionStartDuration(src, time.Since(began).Seconds())
	}
}

// streamErrorType buckets a transport error for metrics labels.
func streamErrorType(err error) string {
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "unexpected_eof"
	case errors.Is(err, net.ErrClosed):
		return "closed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "transport"
	}
}
