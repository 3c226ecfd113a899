package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoEndpoints is returned when Resolve is handed an empty endpoint list.
	ErrNoEndpoints = errors.New("resilient: no endpoints to resolve")
	// ErrNetwork is returned when every attempt failed but none recorded an error.
	ErrNetwork = errors.New("resilient: network error")
	// ErrEmptyBody marks a 2xx response that carried no body.
	ErrEmptyBody = errors.New("resilient: empty response body")
)

// StatusError is a completed request with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// TimeoutError is an attempt that exceeded its per-attempt deadline.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// TransportError is a request that never produced a response
// (dns, connection reset, tls...).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.URL, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// errorKind is used as a telemetry attribute.
func errorKind(err error) string {
	var statusErr *StatusError
	var timeoutErr *TimeoutError
	var transportErr *TransportError
	switch {
	case errors.As(err, &statusErr):
		return "status"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.Is(err, ErrEmptyBody):
		return "empty_body"
	default:
		return "unknown"
	}
}
