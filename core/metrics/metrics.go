// Package metrics defines the small instrumentation vocabulary the runtime
// is written against. Core packages only ever see these interfaces; a
// concrete backend (see adapters/prometheus) is plugged in at construction
// time, and everything defaults to the no-op implementations.
package metrics

// Counter only ever goes up. Mailbox and routing loops bump counters for
// every message they touch.
type Counter interface {
	Inc()
	// Add increments by delta, which must not be negative.
	Add(delta float64)
}

// Gauge tracks a value that moves in both directions, such as the number
// of registered ports.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
	// Add moves the gauge by delta, which may be negative.
	Add(delta float64)
}

// Histogram buckets individual observations, typically handler latencies
// in seconds.
type Histogram interface {
	Observe(value float64)
}

// Timer records the elapsed time of one operation:
//
//	defer m.MessageDuration("in").ObserveDuration()
//
// The clock starts when the Timer is created.
type Timer interface {
	ObserveDuration()
}
