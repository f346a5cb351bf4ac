// Package ring implements relq.Queue as a bounded, in-process circular
// buffer: no ephemeral storage, no reconnection logic, no persistence. It
// exists for latency-sensitive in-process pipelines where a message lost on
// crash is acceptable and a round trip to PostgreSQL or Redis is not.
//
// Unlike the other adapters, Take does not move a message into a holding
// area: once popped, a message is gone from the ring entirely. Finalize is
// a no-op, Requeue/RequeueSilent re-append to the tail (subject to the same
// capacity check as Enqueue), and Orphans always returns (nil, nil).
package ring
