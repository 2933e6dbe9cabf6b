package actor

import "errors"

var (
	// ErrInvalidState rejects an operation the current lifecycle state does
	// not permit (e.g. RemovePort on a stopped actor).
	ErrInvalidState = errors.New("invalid actor state")

	// ErrHandlerTimeout marks a processing failure caused by a handler
	// exceeding its per-message deadline. Kept distinct from context
	// cancellation so "handler too slow" is distinguishable from shutdown.
	ErrHandlerTimeout = errors.New("handler exceeded deadline")
)
