// Package connection wires ports together into validated, directed
// pipelines. A PortConnection reads from a source port, pushes every
// message through an ordered handler chain, an optional protocol adapter
// and an ordered conversion-rule chain, and writes the result into a
// target port.
//
// Validation happens once, at Connect; an illegal connection is never
// constructed. Identical port types always connect. Differing types need
// either a protocol adapter declaring the pair or a conversion-rule chain.
//
// Note on rule-chain validation: each rule in the chain is checked with the
// connection's source and final target types, not with an evolving
// intermediate type. A chain of A->B then B->C is validated as (A,C),(A,C),
// so rules that only declare their own step pair will reject such chains.
// This matches the long-standing behavior of the runtime and is pinned by
// the package tests; rules meant to participate in multi-step chains must
// declare compatibility with the final target type.
//
// The routing task is a single sequential consumer of its source port, so
// messages traverse the pipeline in send order. The connection does not own
// its ports and never takes an actor's locks; its task handle has its own
// lock, since a connection may span two different actors.
package connection
