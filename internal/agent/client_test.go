package agent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func chatResponse(content string) string {
	return `{"choices": [{"message": {"content": ` + `"` + content + `"` + `}}]}`
}

func newTestClient(url string, opts ...Option) *Client {
	base := []Option{
		WithAPIConfig(url, "test-model"),
		WithBaseDelay(time.Millisecond),
		WithRateLimit(60000, 100),
	}
	return NewClient("test-key-0123456789abcdef", append(base, opts...)...)
}

func TestCompleteRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatResponse("recovered")))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, WithRetry(3))

	got, err := c.Complete(context.Background(), "prompt", Options{})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "recovered" {
		t.Errorf("got %q, want %q", got, "recovered")
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("server saw %d calls, want 3", n)
	}
}

func TestCompleteSurfacesLastFailureAfterCap(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, WithRetry(2))

	_, err := c.Complete(context.Background(), "prompt", Options{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !strings.Contains(err.Error(), "max retries exceeded") {
		t.Errorf("error %q does not surface retry exhaustion", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("server saw %d calls, want 3 (initial + 2 retries)", n)
	}
}

func TestCompleteDoesNotRetryPermanentError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, WithRetry(3))

	_, err := c.Complete(context.Background(), "prompt", Options{})
	if err == nil {
		t.Fatal("expected authentication error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", apiErr.StatusCode)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on permanent error)", n)
	}
}

func TestCompleteStructuredParsesWrappedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"content": "Here you go:\n` + "```json\\n{\\\"name\\\": \\\"wrapped\\\", \\\"count\\\": 2}\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, WithRetry(0))

	var got payload
	if err := c.CompleteStructured(context.Background(), "prompt", Options{}, &got); err != nil {
		t.Fatalf("CompleteStructured failed: %v", err)
	}
	if got.Name != "wrapped" || got.Count != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestAPIErrorTransience(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		e := &APIError{StatusCode: tt.status}
		if e.Transient() != tt.transient {
			t.Errorf("status %d: transient = %v, want %v", tt.status, e.Transient(), tt.transient)
		}
		if IsTransient(e) != tt.transient {
			t.Errorf("status %d: IsTransient = %v, want %v", tt.status, IsTransient(e), tt.transient)
		}
	}

	if IsTransient(&ParseError{Preview: "x"}) {
		t.Error("parse errors must not be transport-retried")
	}
	if IsTransient(context.Canceled) {
		t.Error("cancellation must not be retried")
	}
}
