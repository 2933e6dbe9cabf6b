package port

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned for any send against a disposed port and for
	// receives once a disposed port has drained.
	ErrClosed = errors.New("port closed")
)

// ValidationError reports a construction-time or message-validation failure:
// bad buffer size, duplicate name, type-token mismatch.
type ValidationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("port validation failed: %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("port validation failed: %s: %s", e.Op, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SendError reports a failure on the send path. It is kept distinct from
// ValidationError so callers can special-case retryable send failures.
type SendError struct {
	PortID   string
	PortName string
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send on port %q (%s): %v", e.PortName, e.PortID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
