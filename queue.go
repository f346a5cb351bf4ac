package relq

import (
	"context"
	"time"
)

// DefaultOrphanBatchSize bounds the number of entries Orphans returns in a
// single call when an adapter-specific option does not override it.
const DefaultOrphanBatchSize = 100

// Queue is the backend-independent contract every adapter implements:
// in-memory, PostgreSQL (pgqueue), Redis (redisqueue), and the in-process
// ring buffer (ring), the last with a reduced ephemeral surface (see its
// package doc).
type Queue[ID comparable] interface {
	// Enqueue appends msg to queue storage. The bool reports whether the
	// commit to queue storage succeeded; on a transient failure it returns
	// (false, nil) and the caller may retry with the same message instance
	// without risking duplication. A non-nil error indicates a
	// non-retriable failure (e.g. serialization).
	Enqueue(ctx context.Context, msg *Message[ID]) (bool, error)

	// Take removes one message from queue storage — FIFO or LIFO depending
	// on adapter configuration — and, if ephemeral storage is enabled,
	// records it there with the current timestamp. It returns (nil, nil)
	// when queue storage is empty, or when the ephemeral cap has been
	// reached.
	Take(ctx context.Context) (*Message[ID], error)

	// Finalize removes id from ephemeral storage. It succeeds silently
	// whether or not the entry was present.
	Finalize(ctx context.Context, id ID) error

	// Requeue moves msg from ephemeral storage back to the tail of queue
	// storage, setting Timestamp to now and incrementing NumRequeues.
	Requeue(ctx context.Context, msg *Message[ID]) (bool, error)

	// RequeueSilent is Requeue without the timestamp/counter bookkeeping.
	RequeueSilent(ctx context.Context, msg *Message[ID]) (bool, error)

	// Orphans returns every ephemeral entry whose take timestamp is older
	// than now-threshold, capped to an adapter-defined batch size.
	Orphans(ctx context.Context, threshold time.Duration) ([]*Message[ID], error)

	// QueueSize reports the approximate number of messages in queue storage.
	QueueSize(ctx context.Context) (int, error)

	// EphemeralSize reports the approximate number of messages in ephemeral
	// storage. Always 0 for adapters without ephemeral support.
	EphemeralSize(ctx context.Context) (int, error)

	// Close releases resources the adapter created itself. A pool or client
	// supplied by the caller at construction is left open. Close is
	// idempotent.
	Close() error
}
