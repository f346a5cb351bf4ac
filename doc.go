// Package relq provides a reliable queue abstraction with a uniform API
// across heterogeneous backing stores: PostgreSQL, Redis, an in-process
// memory map, and a bounded in-process ring buffer.
//
// The package is organised around a single capability interface, Queue,
// implemented independently by each backend adapter:
//
//   - relq.NewMemoryQueue  — in-process reference implementation
//   - pgqueue.New          — two-table PostgreSQL adapter (pkg jackc/pgx)
//   - redisqueue.New       — hash+list+sorted-set Redis adapter (pkg redis/go-redis)
//   - ring.New             — mutex-guarded ring buffer, no ephemeral storage
//
// All reliability-offering adapters (memory, pgqueue, redisqueue) share the
// same delivery discipline: a producer Enqueues a Message; a consumer Takes
// it, which — when ephemeral storage is enabled — moves the message into a
// holding area while the consumer processes it; the consumer then either
// Finalizes it (done) or Requeues it (retry). A message taken but never
// finalized becomes an orphan, reclaimable via Orphans after a caller
// supplied age threshold.
//
// # Architecture
//
//  1. Queue[ID] is the only interface application code should depend on.
//  2. EphemeralPolicy holds the ephemeral-enabled / max-size rules;
//     ordering (FIFO or LIFO) is an option of each adapter.
//  3. Serializer[ID] decouples the wire format from the adapters; the
//     default is JSON.
//  4. Sweeper wraps any Queue[ID] in a polling loop that reclaims orphans,
//     suitable for running as its own goroutine or process.
//
// # Usage
//
//	q := relq.NewMemoryQueue[uuid.UUID]()
//	defer q.Close()
//
//	ok, err := q.Enqueue(ctx, relq.NewMessage(uuid.New(), []byte("hello")))
//
//	msg, err := q.Take(ctx)
//	// ... process msg.Content ...
//	err = q.Finalize(ctx, msg.ID)
//
// # Error Handling
//
// Contract methods return a *QueueError wrapping one of the sentinel errors
// in errors.go (ErrTransient, ErrConfiguration, ErrSerialization, ...),
// checkable with errors.Is / errors.As. Empty queue, unknown ephemeral id on
// finalize, and a reached ephemeral cap are not errors.
//
// # Non-goals
//
// Exactly-once delivery, strict global ordering under concurrent consumers,
// transactional enqueue across multiple queues, priority queues, delayed
// delivery, and pub/sub fan-out are explicitly out of scope.
package relq
