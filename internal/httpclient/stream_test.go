package httpclient

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/audiofeed/internal/errors"
)

func TestOpenStream_Basic(t *testing.T) {
	payload := bytes.Repeat([]byte("audio"), 100)
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method, "expected GET method")
		_, _ = w.Write(payload)
	})

	s := openTestStream(t, server.URL, nil)

	assert.Equal(t, int64(len(payload)), s.ContentLength(), "unexpected content length")
	assert.Equal(t, server.URL, s.FinalURL(), "unexpected final URL")

	got := readStreamFully(t, s, 64, 5*time.Second)
	assert.Equal(t, payload, got, "stream payload mismatch")
	assert.Equal(t, int64(len(payload)), s.BytesRead(), "unexpected delivered byte count")
}

func TestOpenStream_FollowsRedirects(t *testing.T) {
	payload := []byte("redirected audio")
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/clip.wav", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/clip.wav", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	server := newTestServer(t, mux.ServeHTTP)

	s := openTestStream(t, server.URL+"/a", nil)

	assert.Equal(t, server.URL+"/clip.wav", s.FinalURL(), "final URL should reflect redirect target")

	got := readStreamFully(t, s, 32, 5*time.Second)
	assert.Equal(t, payload, got, "stream payload mismatch after redirects")
}

func TestOpenStream_RedirectLimit(t *testing.T) {
	var hops int
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("/loop%d", hops), http.StatusFound)
	})

	cfg := DefaultStreamConfig()
	cfg.MaxRedirects = 3

	s, err := OpenStream(t.Context(), server.URL, &cfg)
	require.Error(t, err, "expected redirect limit error")
	require.Nil(t, s, "expected nil stream on error")
	assert.Contains(t, err.Error(), "redirects", "error should mention redirects")
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork), "expected network category")
}

func TestOpenStream_InvalidScheme(t *testing.T) {
	s, err := OpenStream(t.Context(), "ftp://example.com/clip.wav", nil)
	require.Error(t, err, "expected scheme error")
	require.Nil(t, s, "expected nil stream on error")
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation), "expected validation category")
}

func TestOpenStream_HTTPErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			s, err := OpenStream(t.Context(), server.URL, nil)
			require.Error(t, err, "expected error for status %d", tt.status)
			require.Nil(t, s, "expected nil stream on error")
			assert.Contains(t, err.Error(), fmt.Sprintf("%d", tt.status), "error should carry the status code")
		})
	}
}

func TestOpenStream_ConnectionRefused(t *testing.T) {
	// Grab a port that nothing listens on
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to reserve port")
	addr := ln.Addr().String()
	require.NoError(t, ln.Close(), "failed to release port")

	s, err := OpenStream(t.Context(), "http://"+addr+"/clip.wav", nil)
	require.Error(t, err, "expected connection error")
	require.Nil(t, s, "expected nil stream on error")
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork), "expected network category")
}

func TestStream_ReadTimeoutReturnsNoData(t *testing.T) {
	gate := make(chan struct{})
	release := sync.OnceFunc(func() { close(gate) })

	payload := []byte("delayed payload")
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write(payload)
	})
	// Registered after the server so the gate opens before server shutdown waits
	// on the handler.
	t.Cleanup(release)

	s := openTestStream(t, server.URL, nil)
	s.SetReadTimeout(30 * time.Millisecond)

	buf := make([]byte, 64)
	start := time.Now()
	n, err := s.Read(buf)
	elapsed := time.Since(start)

	require.NoError(t, err, "timed out read must not error")
	assert.Zero(t, n, "timed out read must deliver no bytes")
	assert.Less(t, elapsed, 500*time.Millisecond, "read did not respect timeout")
	assert.False(t, s.IsComplete(), "stream must not be complete while stalled")

	// Unblock the server; the pending background read picks up the bytes.
	release()

	got := readStreamFully(t, s, 64, 5*time.Second)
	assert.Equal(t, payload, got, "payload should survive the timed out read")
}

func TestStream_SmallCallerBuffer(t *testing.T) {
	payload := []byte("0123456789")
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})

	cfg := DefaultStreamConfig()
	cfg.TransferSize = 8

	s := openTestStream(t, server.URL, &cfg)

	// Caller buffer smaller than the transfer buffer forces the leftover path.
	got := readStreamFully(t, s, 3, 5*time.Second)
	assert.Equal(t, payload, got, "bytes must be delivered in order without loss")
}

func TestStream_CompleteByContentLength(t *testing.T) {
	payload := []byte("full")
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})

	s := openTestStream(t, server.URL, nil)
	require.Equal(t, int64(len(payload)), s.ContentLength(), "expected declared length")

	got := readStreamFully(t, s, len(payload), 5*time.Second)
	assert.Equal(t, payload, got, "payload mismatch")
	assert.True(t, s.IsComplete(), "delivering the declared length must complete the stream")
}

func TestStream_TransportErrorIsSticky(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// Declare more than is sent, then drop the connection
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte("short"))
	})

	s := openTestStream(t, server.URL, nil)

	buf := make([]byte, 16)
	var firstErr error
	deadline := time.Now().Add(5 * time.Second)
	for firstErr == nil {
		require.False(t, time.Now().After(deadline), "no transport error observed")
		_, firstErr = s.Read(buf)
	}

	_, secondErr := s.Read(buf)
	require.Error(t, secondErr, "expected sticky error on subsequent read")
	assert.Equal(t, firstErr, secondErr, "subsequent reads must repeat the first transport error")
	assert.False(t, s.IsComplete(), "a failed stream must not report completion")
}

func TestStream_CloseUnblocksPendingRead(t *testing.T) {
	gate := make(chan struct{})
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		// Closing the stream cancels the request context and releases the handler
		select {
		case <-gate:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(sync.OnceFunc(func() { close(gate) }))

	s, err := OpenStream(t.Context(), server.URL, nil)
	require.NoError(t, err, "OpenStream failed")

	s.SetReadTimeout(20 * time.Millisecond)

	// Leave a background read pending
	buf := make([]byte, 16)
	n, err := s.Read(buf)
	require.NoError(t, err, "timed out read must not error")
	require.Zero(t, n, "timed out read must deliver no bytes")

	require.NoError(t, s.Close(), "close failed")
	require.NoError(t, s.Close(), "close must be idempotent")

	_, err = s.Read(buf)
	assert.ErrorIs(t, err, net.ErrClosed, "read after close must report closed")
}
