package api

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the gateway taxonomy. Callers classify
// failures with errors.Is against these.
var (
	// ErrUnauthenticated covers missing, expired, or invalid
	// credentials (HTTP 401). The session token is cleared as a side
	// effect; recovery is manual re-authentication.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound means the target entity vanished server-side (404).
	ErrNotFound = errors.New("not found")

	// ErrInvalid means the server rejected the payload (other 4xx).
	ErrInvalid = errors.New("invalid request")

	// ErrUnavailable covers network failures, timeouts, and 5xx.
	ErrUnavailable = errors.New("service unavailable")
)

// Error is a typed gateway failure carrying the taxonomy kind, the
// HTTP status when one was received, and any server-provided detail.
type Error struct {
	Kind       error
	StatusCode int
	Op         string
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// newError builds a typed failure for the given operation and status.
func newError(op string, status int, detail string) *Error {
	var kind error
	switch {
	case status == 401:
		kind = ErrUnauthenticated
	case status == 404:
		kind = ErrNotFound
	case status >= 400 && status < 500:
		kind = ErrInvalid
	default:
		kind = ErrUnavailable
	}
	return &Error{Kind: kind, StatusCode: status, Op: op, Detail: detail}
}

// transportError wraps a network-level failure as Unavailable.
func transportError(op string, err error) *Error {
	return &Error{Kind: ErrUnavailable, Op: op, Detail: err.Error()}
}
