package api

import (
	"errors"
	"fmt"
)

// Errors that can be checked with errors.Is.
var (
	// ErrHandshakeFailed indicates the server public key could not be obtained.
	ErrHandshakeFailed = errors.New("key exchange failed")
	// ErrTransport indicates the server answered an encrypted request with a
	// non-2xx status.
	ErrTransport = errors.New("request failed")
)

// HandshakeError describes a failed key exchange. StatusCode is zero when the
// server was never reached, in which case Err holds the *NetworkError.
type HandshakeError struct {
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *HandshakeError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("key exchange failed: %s: %v", e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("key exchange failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("key exchange failed (status %d): %s", e.StatusCode, e.Message)
	case e.Body != "":
		return fmt.Sprintf("key exchange failed (status %d): %s", e.StatusCode, truncate(e.Body, 256))
	default:
		return fmt.Sprintf("key exchange failed (status %d)", e.StatusCode)
	}
}

// Is implements errors.Is for sentinel error matching.
func (e *HandshakeError) Is(target error) bool {
	return target == ErrHandshakeFailed
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// TransportError is a non-2xx answer to an encrypted request.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, truncate(e.Body, 256))
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Is implements errors.Is for sentinel error matching.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NetworkError represents a network-level failure.
type NetworkError struct {
	Err error
	URL string
}

func (e *NetworkError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
