package llm

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a success envelope that does not carry text
// where the provider schema says it should.
var ErrMalformedResponse = errors.New("malformed upstream response")

// TransportError means no response was obtained: the endpoint was
// unreachable, the connection dropped or the caller's deadline expired.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError means the endpoint answered, but with a non-success status or
// an envelope that could not be used. Body holds the raw response body.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream error (status %d): %v: %s", e.StatusCode, e.Err, e.Body)
	}
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func malformed(status int, body string, reason string) error {
	return &UpstreamError{
		StatusCode: status,
		Body:       body,
		Err:        fmt.Errorf("%w: %s", ErrMalformedResponse, reason),
	}
}
