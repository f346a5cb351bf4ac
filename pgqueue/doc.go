// Package pgqueue implements relq.Queue backed by PostgreSQL, using two
// tables: one holds pending messages (queue storage), the other holds
// messages currently checked out by a consumer (ephemeral storage). The
// ephemeral table has the same columns plus msg_taken_at, the take instant.
//
// Row selection under concurrent consumers uses `FOR UPDATE SKIP LOCKED`, so
// two consumers calling Take at the same time are never handed the same row
// without either blocking on the other.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, pg.Config{ConnectionString: dsn, RetryAttempts: 3, RetryInterval: time.Second})
//	if err != nil {
//	    return err
//	}
//
//	q, err := pgqueue.New[uuid.UUID](pool, pgqueue.UUIDCodec{})
//	if err != nil {
//	    return err
//	}
//	defer q.Close()
//
//	ok, err := q.Enqueue(ctx, relq.NewMessage(uuid.New(), payload))
//
// # Schema
//
// Apply the migrations under internal/relational/migrations with
// pkg/pg.Migrate before using the adapter, or call DDL to embed the raw SQL
// in your own migration tooling.
package pgqueue
