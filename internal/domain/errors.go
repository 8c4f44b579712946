package domain

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a provider value that cannot be used: no source
// configured, fetch failure, or data past its time-to-live.
var ErrUnavailable = errors.New("unavailable")

// NetworkError is a timeout or connection failure. Retryable for reads
// only; on a write the side effect's occurrence is unknown, so it is
// fatal.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a deterministic rejection by the broker (non-zero status
// inside a 200 response). Never retried.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("broker API error [%s]: %s", e.Code, e.Message)
}

// HTTPError is a non-2xx HTTP response that is not a broker envelope.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// SafetyBlockedError means the two-factor arming interlock was not
// satisfied; the call was short-circuited before any network I/O.
type SafetyBlockedError struct {
	Reason string
}

func (e *SafetyBlockedError) Error() string {
	return fmt.Sprintf("safety block: %s", e.Reason)
}

// ValidationError is a bad input: unknown symbol, non-positive units.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// PartialFailureError means some but not all legs of a multi-step
// operation succeeded. Requires operator attention; the automated loop
// must halt rather than retry.
type PartialFailureError struct {
	Remaining int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure: %d positions remain open", e.Remaining)
}
