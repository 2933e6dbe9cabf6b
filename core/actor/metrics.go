package actor

import (
	"sync/atomic"
	"time"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/metrics"
)

// ActorMetrics is the sink interface for actor instrumentation.
// All methods are thread-safe; they are called from concurrent mailbox loops.
type ActorMetrics interface {
	MessageReceived(port string)
	MessageProcessed(port string, success bool)
	MessageTimeout(port string)
	MessageDuration(port string) metrics.Timer
	PortCount(actorID string, n int)
}

type nopActorMetrics struct{}

func (nopActorMetrics) MessageReceived(string)               {}
func (nopActorMetrics) MessageProcessed(string, bool)        {}
func (nopActorMetrics) MessageTimeout(string)                {}
func (nopActorMetrics) MessageDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) PortCount(string, int)                {}

// NopActorMetrics returns a no-op ActorMetrics implementation.
func NopActorMetrics() ActorMetrics { return nopActorMetrics{} }

// Recorder keeps lock-free per-actor counters and forwards every event to
// the configured sink. Counters are monotonic except via Reset; Snapshot
// reads them without stopping producers.
type Recorder struct {
	sink ActorMetrics

	received  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	timeouts  atomic.Int64
	busyNanos atomic.Int64
}

func newRecorder(sink ActorMetrics) *Recorder {
	if sink == nil {
		sink = NopActorMetrics()
	}
	return &Recorder{sink: sink}
}

func (r *Recorder) Received(port string) {
	r.received.Add(1)
	r.sink.MessageReceived(port)
}

func (r *Recorder) Processed(port string, d time.Duration) {
	r.processed.Add(1)
	r.busyNanos.Add(int64(d))
	r.sink.MessageProcessed(port, true)
}

func (r *Recorder) Failed(port string) {
	r.failed.Add(1)
	r.sink.MessageProcessed(port, false)
}

// TimedOut records a timeout as a processing failure with its own counter,
// so operators can tell "too slow" from "crashed".
func (r *Recorder) TimedOut(port string) {
	r.timeouts.Add(1)
	r.failed.Add(1)
	r.sink.MessageTimeout(port)
	r.sink.MessageProcessed(port, false)
}

// Time starts a duration sample for one message on the given port.
func (r *Recorder) Time(port string) metrics.Timer {
	return r.sink.MessageDuration(port)
}

// Reset zeroes all counters.
func (r *Recorder) Reset() {
	r.received.Store(0)
	r.processed.Store(0)
	r.failed.Store(0)
	r.timeouts.Store(0)
	r.busyNanos.Store(0)
}

// Snapshot returns a point-in-time view of the counters.
func (r *Recorder) Snapshot() map[string]any {
	return map[string]any{
		"messages_received":  r.received.Load(),
		"messages_processed": r.processed.Load(),
		"messages_failed":    r.failed.Load(),
		"timeouts":           r.timeouts.Load(),
		"busy_time":          time.Duration(r.busyNanos.Load()).String(),
	}
}
