// Package upstream defines the error type shared by clients of third-party services.
package upstream

import (
	"errors"
	"fmt"
)

// Error reports a failed call to an external service (Spotify, the Spotify
// accounts service or Gemini). Status is the HTTP status when one was
// received, zero for transport failures such as timeouts.
type Error struct {
	Service string
	Op      string
	Status  int
	Err     error
}

// Wrap returns err as an *Error for the given service and operation.
// A nil err yields nil. An err that already is an *Error is returned unchanged.
func Wrap(service, op string, status int, err error) error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return err
	}
	return &Error{Service: service, Op: op, Status: status, Err: err}
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s failed (%d): %v", e.Service, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err is, or wraps, an upstream *Error.
func Is(err error) bool {
	var ue *Error
	return errors.As(err, &ue)
}
