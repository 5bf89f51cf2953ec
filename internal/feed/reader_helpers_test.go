package feed

import (
	"bytes"
	"context"
	"testing"
	"time"
)

// fakeHandle is a scripted StreamHandle. Each Read consumes from the front
// of chunks; once the script is exhausted it reports complete, returns
// readErr, or behaves like a timed-out read, in that order of precedence.
type fakeHandle struct {
	chunks   [][]byte
	complete bool
	readErr  error

	finalURL string
	length   int64
	closeErr error

	readSizes   []int
	readTimeout time.Duration
	closeCalls  int
}

func (f *fakeHandle) Read(p []byte) (int, error) {
	f.readSizes = append(f.readSizes, len(p))
	if len(p) == 0 {
		return 0, nil
	}
	if len(f.chunks) == 0 {
		if f.readErr != nil {
			return 0, f.readErr
		}
		return 0, nil
	}

	n := copy(p, f.chunks[0])
	f.chunks[0] = f.chunks[0][n:]
	if len(f.chunks[0]) == 0 {
		f.chunks = f.chunks[1:]
	}
	return n, nil
}

func (f *fakeHandle) IsComplete() bool {
	return f.complete && len(f.chunks) == 0
}

func (f *fakeHandle) SetReadTimeout(d time.Duration) {
	f.readTimeout = d
}

func (f *fakeHandle) ContentLength() int64 {
	return f.length
}

func (f *fakeHandle) FinalURL() string {
	return f.finalURL
}

func (f *fakeHandle) Close() error {
	f.closeCalls++
	return f.closeErr
}

// fakeOpener hands out a prepared handle and records how it was called.
type fakeOpener struct {
	handle *fakeHandle
	err    error

	calls  int
	gotURI string
	gotCtx context.Context
}

func (f *fakeOpener) open(ctx context.Context, uri string) (StreamHandle, error) {
	f.calls++
	f.gotURI = uri
	f.gotCtx = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.handle, nil
}

// fakeOutput is a scripted OutputBuffer. acceptLimit caps how many bytes a
// single WriteBounded accepts; negative means accept everything.
type fakeOutput struct {
	freeVal     int
	acceptLimit int
	buf         bytes.Buffer
}

func (f *fakeOutput) WriteBounded(p []byte, _ time.Duration) int {
	n := len(p)
	if f.acceptLimit >= 0 && n > f.acceptLimit {
		n = f.acceptLimit
	}
	f.buf.Write(p[:n])
	return n
}

func (f *fakeOutput) Free() int {
	return f.freeVal
}

// stubPacing replaces the pacing sleep with a recorder and returns the slice
// of recorded delays. Tests using it cannot run in parallel.
func stubPacing(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := pacingSleep
	pacingSleep = func(d time.Duration) {
		delays = append(delays, d)
	}
	t.Cleanup(func() { pacingSleep = orig })
	return &delays
}

// stubAllocator replaces the staging allocator. Tests using it cannot run in
// parallel.
func stubAllocator(t *testing.T, fn func(size int) []byte) {
	t.Helper()
	orig := allocateStaging
	allocateStaging = fn
	t.Cleanup(func() { allocateStaging = orig })
}

// stubCapture replaces the diagnostics capture with a recorder and returns
// the slice of captured messages. Tests using it cannot run in parallel.
func stubCapture(t *testing.T) *[]string {
	t.Helper()
	var messages []string
	orig := captureSystemInfo
	captureSystemInfo = func(msg string) string {
		messages = append(messages, msg)
		return msg
	}
	t.Cleanup(func() { captureSystemInfo = orig })
	return &messages
}

// newTestReader builds a Reader over a fresh ring of the given capacity.
func newTestReader(t *testing.T, ringCapacity int, cfg Config) (*Reader, *RingOutput) {
	t.Helper()
	ring, err := NewRingOutput(ringCapacity)
	if err != nil {
		t.Fatalf("creating ring output: %v", err)
	}
	reader, err := NewReader(ring, cfg)
	if err != nil {
		t.Fatalf("creating reader: %v", err)
	}
	return reader, ring
}

// drainRing empties the ring into a byte slice.
func drainRing(t *testing.T, ring *RingOutput) []byte {
	t.Helper()
	var out bytes.Buffer
	buf := make([]byte, 1024)
	for {
		n, err := ring.Read(buf)
		if err != nil {
			t.Fatalf("draining ring: %v", err)
		}
		if n == 0 {
			return out.Bytes()
		}
		out.Write(buf[:n])
	}
}

// clipPattern builds a deterministic payload for delivery comparisons.
func clipPattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}
