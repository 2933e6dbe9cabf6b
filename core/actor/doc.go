// Package actor implements the unit of message-driven computation: an Actor
// owns named, typed ports, one background mailbox loop per port, a lifecycle
// state machine and a metrics recorder.
//
// # Lifecycle
//
// Actors start initialized. Start moves them to running; Pause/Resume toggle
// between running and paused; Stop is legal from any state and disposes all
// ports. Any processing failure moves the actor to the error state, from
// which only Reset (then Start) or Stop lead out. All transitions are
// checked against a single transition table.
//
// # Ports and mailbox loops
//
//	a := actor.New(actor.Options{Name: "doubler"})
//	p, err := actor.CreatePortFor[int](a, "in", func(ctx context.Context, v int) (int, error) {
//	    return v * 2, nil
//	})
//	a.Start()
//	_ = p.Send(ctx, 21)
//
// Each port is drained by exactly one loop, so its handler sees messages in
// FIFO order. Every message is processed under a per-message timeout race;
// a handler losing the race is recorded as a timeout failure, which is
// deliberately distinguishable from shutdown cancellation.
//
// # Failure handling
//
// Handler errors are recovered locally: the failure is counted, the actor
// moves to the error state and the overridable OnError hook fires. There is
// no automatic retry; callers observe failures via Metrics, StateInfo or
// the hook.
package actor
