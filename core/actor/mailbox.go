package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/port"
)

// mailboxLoop is the single consumer of one port. It parks while the actor
// is not running, drains messages in FIFO order and processes each under
// the per-message timeout race.
func (a *Actor) mailboxLoop(ctx context.Context, wp *wrappedPort, done chan struct{}) {
	defer close(done)
	log := a.log.With(slog.String("port", wp.port.Name()))

	for {
		if err := a.awaitRunning(ctx); err != nil {
			return
		}

		msg, err := wp.port.Receive(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return
			case errors.Is(err, port.ErrClosed):
				if ctx.Err() != nil || a.state.Is(StateStopped) {
					// ordered shutdown, not a failure
					return
				}
				// the queue itself failed under the loop: fatal for this port
				verr := &port.ValidationError{
					Op:     "receive",
					Reason: fmt.Sprintf("port %q closed while actor %s", wp.port.Name(), a.state.Status().State),
					Err:    err,
				}
				a.rec.Failed(wp.port.Name())
				a.fail(verr)
				return
			default:
				a.rec.Failed(wp.port.Name())
				a.fail(fmt.Errorf("receive on port %q: %w", wp.port.Name(), err))
				return
			}
		}

		// a pause may have landed while blocked in Receive; hold the
		// claimed message until the actor runs again instead of
		// processing it under the wrong state
		if err := a.awaitRunning(ctx); err != nil {
			return
		}

		a.process(ctx, wp, msg, log)
	}
}

// awaitRunning parks until the actor is running. It returns an error when
// the loop should exit instead (task cancelled or actor stopped).
func (a *Actor) awaitRunning(ctx context.Context) error {
	for {
		st := a.state.Status().State
		switch st {
		case StateRunning:
			return nil
		case StateStopped:
			return ErrInvalidState
		}
		// initialized, paused or errored: wait for the next transition
		changed := a.state.Changed()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// process runs the handler for one message, racing it against the
// per-message timeout. Losing the race abandons the attempt and records a
// timeout-specific failure; deliberate shutdown is never reported as one.
func (a *Actor) process(ctx context.Context, wp *wrappedPort, msg any, log *slog.Logger) {
	name := wp.port.Name()
	a.rec.Received(name)

	hctx, cancel := context.WithTimeout(ctx, wp.timeout)
	defer cancel()

	tm := a.rec.Time(name)
	start := time.Now()

	out := make(chan error, 1)
	go func() {
		_, err := wp.handler(hctx, msg)
		out <- err
	}()

	timedOut := func() {
		terr := fmt.Errorf("processing on port %q after %s: %w", name, wp.timeout, ErrHandlerTimeout)
		a.rec.TimedOut(name)
		a.fail(terr)
		log.Warn("handler timed out", slog.Duration("timeout", wp.timeout))
	}

	select {
	case <-hctx.Done():
		// the deadline fired with the loop still alive: too slow, not shutdown
		if errors.Is(hctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			timedOut()
		}
		return
	case err := <-out:
		if err != nil {
			// a handler surfacing its own deadline is still a timeout
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				timedOut()
				return
			}
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return
			}
			a.rec.Failed(name)
			a.fail(fmt.Errorf("handler on port %q: %w", name, err))
			return
		}
		tm.ObserveDuration()
		a.rec.Processed(name, time.Since(start))
	}
}

// fail records a processing failure: the actor moves to the error state and
// the overridable hook is invoked.
func (a *Actor) fail(err error) {
	_ = a.state.Transition(StateError, err.Error())
	a.onError(err)
}
