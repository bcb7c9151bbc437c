package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrInvalidProxyAddress is returned when the proxy address is not in host:port form.
var ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

// TransportError is returned when a request could not produce a response:
// DNS failure, connection refused, TLS handshake failure, timeout, or a
// body that could not be read.
type TransportError struct {
	// URL is the requested URL.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// HTTPStatusError is returned by CheckStatus for any status other than 200.
type HTTPStatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the status that was received.
	StatusCode int
}

// Error implements error.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// ErrorClass returns a short label for err used in log records.
// Unknown errors are reported as "error".
func ErrorClass(err error) string {
	var transportErr *TransportError
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			return "transport-timeout"
		}
		return "transport"
	case errors.As(err, &statusErr):
		return "http-status"
	default:
		return "error"
	}
}
