package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrRateLimit indicates the endpoint returned a rate limit error (429).
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrUpstream indicates the endpoint failed transiently: a 5xx status or a
// transport-level failure. StatusCode is 0 for transport failures.
type ErrUpstream struct {
	StatusCode int
	Err        error
}

func (e *ErrUpstream) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("model endpoint failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model endpoint unreachable: %v", e.Err)
}

func (e *ErrUpstream) Unwrap() error { return e.Err }

// ErrFatalStatus indicates the endpoint rejected the request with a status
// that retrying cannot fix (any non-2xx other than 429/5xx).
type ErrFatalStatus struct {
	StatusCode int
	Err        error
}

func (e *ErrFatalStatus) Error() string {
	return fmt.Sprintf("model endpoint rejected request with status %d: %v", e.StatusCode, e.Err)
}

func (e *ErrFatalStatus) Unwrap() error { return e.Err }

// ErrExhausted wraps the last transient error after all retry attempts failed.
type ErrExhausted struct {
	Attempts int
	Err      error
}

func (e *ErrExhausted) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ErrExhausted) Unwrap() error { return e.Err }

// ErrMalformedOutput indicates the model produced output that could not be
// parsed as JSON or did not match the requested schema. Raw carries the
// original text for diagnostics.
type ErrMalformedOutput struct {
	Raw string
	Err error
}

func (e *ErrMalformedOutput) Error() string {
	return fmt.Sprintf("unusable model output: %v", e.Err)
}

func (e *ErrMalformedOutput) Unwrap() error { return e.Err }

// Retryable reports whether another attempt against the endpoint could
// plausibly succeed. Rate limits, 5xx statuses, and transport failures are
// retryable; rejected requests, malformed output, and context errors are not.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var fatal *ErrFatalStatus
	if errors.As(err, &fatal) {
		return false
	}
	var malformed *ErrMalformedOutput
	if errors.As(err, &malformed) {
		return false
	}

	// Rate limits, 5xx, and anything unclassified (raw network errors).
	return true
}
