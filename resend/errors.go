package resend

import (
	"errors"
	"fmt"
)

// ErrMissingID is wrapped by a ParseError when a successful response has no id.
var ErrMissingID = errors.New("response has no id")

// RemoteError is returned when the API answers with a non-2xx status.
// Body holds the response text verbatim.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("resend API error (HTTP %d): %s", e.StatusCode, e.Body)
}

// TransportError is returned when no complete response could be obtained:
// connection and TLS failures, timeouts, cancellation, or a failed body read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("resend request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a 2xx response body cannot be decoded.
type ParseError struct {
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse resend response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
