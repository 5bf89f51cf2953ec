package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient creates a Client with default configuration and registers cleanup.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	client := New(&cfg)
	t.Cleanup(func() { client.Close() })
	return client
}

// newTestClientWithConfig creates a Client with custom configuration and registers cleanup.
func newTestClientWithConfig(t *testing.T, cfg *Config) *Client {
	t.Helper()
	client := New(cfg)
	t.Cleanup(func() { client.Close() })
	return client
}

// newTestServer creates a test HTTP server and registers cleanup.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(func() { server.Close() })
	return server
}

// closeResponseBody safely closes a response body with error logging.
// Use this with defer immediately after getting a response.
func closeResponseBody(t *testing.T, resp *http.Response) {
	t.Helper()
	if resp == nil || resp.Body == nil {
		return
	}
	if err := resp.Body.Close(); err != nil {
		t.Logf("failed to close response body: %v", err)
	}
}

// openTestStream opens a stream against url and registers cleanup.
func openTestStream(t *testing.T, url string, cfg *StreamConfig) *Stream {
	t.Helper()
	s, err := OpenStream(t.Context(), url, cfg)
	if err != nil {
		t.Fatalf("OpenStream(%q) failed: %v", url, err)
	}
	t.Cleanup(func() {
		if cerr := s.Close(); cerr != nil {
			t.Logf("failed to close stream: %v", cerr)
		}
	})
	return s
}

// readStreamFully drains a stream through repeated bounded reads until it
// reports completion or the deadline expires. It returns everything read.
func readStreamFully(t *testing.T, s *Stream, chunkSize int, deadline time.Duration) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, chunkSize)
	end := time.Now().Add(deadline)
	for !s.IsComplete() {
		if time.Now().After(end) {
			t.Fatalf("stream did not complete within %v (got %d bytes)", deadline, len(out))
		}
		n, err := s.Read(buf)
		if err != nil {
			t.Fatalf("stream read failed after %d bytes: %v", len(out), err)
		}
		out = append(out, buf[:n]...)
	}
	return out
}
