// Package port provides typed, buffered communication endpoints for the
// actor runtime.
//
// A Port wraps a bounded queue together with a runtime TypeToken. The token
// is checked on every send and whenever ports are wired together, so type
// mismatches surface at attachment time instead of corrupting a pipeline.
//
// Ordering: messages are delivered in FIFO order as long as a single
// consumer drains the port. There is no ordering guarantee across ports.
//
// Disposal is final. A disposed port rejects sends with ErrClosed while
// receivers first drain anything still buffered.
package port
