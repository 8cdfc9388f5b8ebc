package twitter

import (
	"errors"
	"fmt"
)

// Sentinel errors for Twitter API operations.
var (
	ErrNotFound     = errors.New("twitter: user not found")
	ErrRateLimited  = errors.New("twitter: rate limited by server")
	ErrUnauthorized = errors.New("twitter: unauthorized")
	ErrServer       = errors.New("twitter: server error")
	ErrNoToken      = errors.New("twitter: bearer token not configured")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // e.g. "lookupUser"
	Handle string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("twitter %s [%s]: %v", e.Op, e.Handle, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, handle string, err error) error {
	return &Error{Op: op, Handle: handle, Err: err}
}
