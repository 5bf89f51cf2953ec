package feed

import (
	"time"

	"github.com/smallnest/ringbuffer"

	"github.com/tphakala/audiofeed/internal/errors"
)

// writeRetryDelay is how long WriteBounded sleeps between attempts while the
// consumer side drains.
const writeRetryDelay = time.Millisecond

// OutputBuffer is the consumer-facing sink a Reader pushes decoded-container
// bytes into. Implementations must tolerate concurrent reads from the
// draining side.
type OutputBuffer interface {
	// WriteBounded pushes as much of p as fits within timeout and returns
	// the number of bytes accepted. It never blocks past the timeout and
	// never returns an error: bytes that do not fit are simply not
	// accepted.
	WriteBounded(p []byte, timeout time.Duration) int
	// Free reports how many bytes the buffer can currently accept.
	Free() int
}

// RingOutput is the standard OutputBuffer, a fixed-capacity ring buffer
// shared between the feed side and a draining consumer.
type RingOutput struct {
	rb *ringbuffer.RingBuffer
}

// NewRingOutput creates a ring buffer output with the given capacity in
// bytes.
func NewRingOutput(capacity int) (*RingOutput, error) {
	if capacity <= 0 {
		return nil, errors.Newf("invalid ring capacity %d", capacity).
			Component("feed").
			Category(errors.CategoryValidation).
			Build()
	}
	return &RingOutput{rb: ringbuffer.New(capacity)}, nil
}

// WriteBounded writes p into the ring, retrying while the consumer drains,
// until either everything is accepted or the timeout expires. A full ring at
// the deadline is not an error; the caller accounts for the shortfall.
func (o *RingOutput) WriteBounded(p []byte, timeout time.Duration) int {
	if len(p) == 0 {
		return 0
	}

	deadline := time.Now().Add(timeout)
	written := 0
	for {
		n, err := o.rb.Write(p[written:])
		written += n
		if err == nil || written == len(p) {
			return written
		}
		if !errors.Is(err, ringbuffer.ErrIsFull) && written == 0 {
			log.Debug("ring write rejected", "error", err)
		}
		if !time.Now().Before(deadline) {
			return written
		}
		time.Sleep(writeRetryDelay)
	}
}

// Free reports the bytes currently available for writing.
func (o *RingOutput) Free() int {
	return o.rb.Free()
}

// Read drains up to len(p) bytes into p. An empty ring is not an error; it
// returns (0, nil) so pollers can pair it with the feed state machine.
func (o *RingOutput) Read(p []byte) (int, error) {
	n, err := o.rb.Read(p)
	if err != nil && errors.Is(err, ringbuffer.ErrIsEmpty) {
		return 0, nil
	}
	return n, err
}

// Length reports the bytes currently buffered.
func (o *RingOutput) Length() int {
	return o.rb.Length()
}

// Capacity reports the fixed size of the ring.
func (o *RingOutput) Capacity() int {
	return o.rb.Capacity()
}

// Reset discards all buffered bytes.
func (o *RingOutput) Reset() {
	o.rb.Reset()
}
