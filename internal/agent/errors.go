package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// APIError is a non-2xx response from the generation endpoint. Status
// code decides whether the client may retry it.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Transient reports whether the error class is worth retrying:
// rate limits and server-side failures are; auth and other client
// errors are permanent.
func (e *APIError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ParseError is a structured-extraction failure. Preview carries a
// truncated prefix of the raw response for diagnosis; parse failures are
// never retried at the transport level.
type ParseError struct {
	Preview string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing structured response: %v (response prefix: %q)", e.Err, e.Preview)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsTransient classifies an error for the retry loop. Network-level
// failures and retryable API statuses are transient; everything else,
// including parse errors, is permanent.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Transport wraps connection failures in plain errors; treat an
	// unrecognized failure from the HTTP round trip as transient so a
	// flaky network does not kill a batch.
	return true
}
