package pgqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relqio/relq"
	"github.com/relqio/relq/pkg/pg"
)

// Queue is the PostgreSQL-backed relq.Queue[ID] implementation: one table
// for queue storage and one for ephemeral storage, the latter with an extra
// msg_taken_at column.
type Queue[ID comparable] struct {
	pool      *pgxpool.Pool
	ownsPool  bool
	codec     IDCodec[ID]
	cfg       Config
	closeOnce sync.Once
}

// New builds a Queue over a pool the caller owns; Close never closes it.
func New[ID comparable](pool *pgxpool.Pool, codec IDCodec[ID], opts ...Option[ID]) (*Queue[ID], error) {
	if pool == nil {
		return nil, relq.NewQueueError("New", relq.KindConfiguration, relq.ErrRepositoryNil)
	}
	if codec == nil {
		return nil, relq.NewQueueError("New", relq.KindConfiguration, errors.New("relq/pgqueue: codec cannot be nil"))
	}

	q := &Queue[ID]{
		pool:  pool,
		codec: codec,
		cfg: Config{
			TableName:          "relq_queue",
			TableNameEphemeral: "relq_queue_ephemeral",
			FIFO:               true,
			OrphanBatchSize:    relq.DefaultOrphanBatchSize,
		},
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.cfg.EphemeralMaxSize < 0 {
		return nil, relq.NewQueueError("New", relq.KindConfiguration, relq.ErrInvalidEphemeralMaxSize)
	}
	return q, nil
}

// Connect builds a Queue over a pool pgqueue creates itself via pkg/pg.
// Close releases it.
func Connect[ID comparable](ctx context.Context, pgCfg pg.Config, codec IDCodec[ID], opts ...Option[ID]) (*Queue[ID], error) {
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, relq.NewQueueError("Connect", relq.KindTransient, err)
	}

	q, err := New(pool, codec, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	q.ownsPool = true
	return q, nil
}

// DDL returns the raw SQL statements for the two tables pgqueue needs,
// using the queue's configured table names, for callers who embed schema
// management in their own migration tooling instead of pkg/pg.Migrate.
func (q *Queue[ID]) DDL() string {
	return ddlTemplate(q.cfg.TableName, q.cfg.TableNameEphemeral)
}

func ddlTemplate(table, ephemeralTable string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    queue_id          TEXT PRIMARY KEY,
    msg_org_timestamp TIMESTAMPTZ NOT NULL,
    msg_timestamp     TIMESTAMPTZ NOT NULL,
    msg_num_requeues  INTEGER NOT NULL DEFAULT 0,
    msg_content       BYTEA NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_timestamp_idx ON %[1]s (msg_timestamp);

CREATE TABLE IF NOT EXISTS %[2]s (
    queue_id          TEXT PRIMARY KEY,
    msg_org_timestamp TIMESTAMPTZ NOT NULL,
    msg_timestamp     TIMESTAMPTZ NOT NULL,
    msg_num_requeues  INTEGER NOT NULL DEFAULT 0,
    msg_content       BYTEA NOT NULL,
    msg_taken_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS %[2]s_taken_at_idx ON %[2]s (msg_taken_at);
`, table, ephemeralTable)
}

func (q *Queue[ID]) Enqueue(ctx context.Context, msg *relq.Message[ID]) (bool, error) {
	if msg == nil {
		return false, relq.NewQueueError("Enqueue", relq.KindConfiguration, relq.ErrPayloadNil)
	}

	var returnedID string
	err := q.pool.QueryRow(ctx, insertQuery(q.cfg.TableName),
		q.codec.EncodeID(msg.ID), msg.OriginTimestamp, msg.Timestamp, msg.NumRequeues, msg.Content,
	).Scan(&returnedID)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		// ON CONFLICT DO NOTHING matched: id already present. Caller
		// retried an already-committed enqueue, which is exactly the
		// idempotency guarantee this method promises.
		return false, nil
	default:
		return false, relq.NewQueueError("Enqueue", relq.KindTransient, err)
	}
}

func (q *Queue[ID]) Take(ctx context.Context) (*relq.Message[ID], error) {
	if !q.cfg.EphemeralDisabled {
		size, err := q.tableSize(ctx, q.cfg.TableNameEphemeral)
		if err != nil {
			return nil, relq.NewQueueError("Take", relq.KindTransient, err)
		}
		policy := relq.EphemeralPolicy{MaxSize: q.cfg.EphemeralMaxSize}
		if !policy.AllowTake(size) {
			return nil, nil
		}
	}

	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return nil, relq.NewQueueError("Take", relq.KindTransient, err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, selectForTakeQuery(q.cfg.TableName, q.cfg.FIFO))

	var id string
	var origTS, ts time.Time
	var numRequeues int
	var content []byte
	if err := row.Scan(&id, &origTS, &ts, &numRequeues, &content); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, relq.NewQueueError("Take", relq.KindTransient, err)
	}

	if !q.cfg.EphemeralDisabled {
		// ts (the row's existing msg_timestamp) carries over unchanged; only
		// msg_taken_at is refreshed to now, so a later requeue restores ts
		// rather than the instant the message spent held.
		if _, err := tx.Exec(ctx, insertEphemeralQuery(q.cfg.TableNameEphemeral),
			id, origTS, ts, numRequeues, content, time.Now()); err != nil {
			return nil, relq.NewQueueError("Take", relq.KindTransient, err)
		}
	}
	if _, err := tx.Exec(ctx, deleteByIDQuery(q.cfg.TableName), id); err != nil {
		return nil, relq.NewQueueError("Take", relq.KindTransient, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, relq.NewQueueError("Take", relq.KindTransient, err)
	}

	decodedID, err := q.codec.DecodeID(id)
	if err != nil {
		return nil, relq.NewQueueError("Take", relq.KindSerialization, err)
	}

	return &relq.Message[ID]{
		ID:              decodedID,
		Content:         content,
		OriginTimestamp: origTS,
		Timestamp:       ts,
		NumRequeues:     numRequeues,
	}, nil
}

func (q *Queue[ID]) Finalize(ctx context.Context, id ID) error {
	if q.cfg.EphemeralDisabled {
		return nil
	}
	_, err := q.pool.Exec(ctx, deleteByIDQuery(q.cfg.TableNameEphemeral), q.codec.EncodeID(id))
	if err != nil {
		return relq.NewQueueError("Finalize", relq.KindTransient, err)
	}
	return nil
}

func (q *Queue[ID]) Requeue(ctx context.Context, msg *relq.Message[ID]) (bool, error) {
	return q.requeue(ctx, msg, true)
}

func (q *Queue[ID]) RequeueSilent(ctx context.Context, msg *relq.Message[ID]) (bool, error) {
	return q.requeue(ctx, msg, false)
}

func (q *Queue[ID]) requeue(ctx context.Context, msg *relq.Message[ID], bumpCounters bool) (bool, error) {
	if msg == nil {
		return false, relq.NewQueueError("Requeue", relq.KindConfiguration, relq.ErrPayloadNil)
	}

	ts := msg.Timestamp
	numRequeues := msg.NumRequeues
	if bumpCounters {
		ts = time.Now()
		numRequeues++
	}

	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return false, relq.NewQueueError("Requeue", relq.KindTransient, err)
	}
	defer tx.Rollback(ctx)

	encodedID := q.codec.EncodeID(msg.ID)

	if !q.cfg.EphemeralDisabled {
		if _, err := tx.Exec(ctx, deleteByIDQuery(q.cfg.TableNameEphemeral), encodedID); err != nil {
			return false, relq.NewQueueError("Requeue", relq.KindTransient, err)
		}
	}

	var returnedID string
	err = tx.QueryRow(ctx, insertQuery(q.cfg.TableName),
		encodedID, msg.OriginTimestamp, ts, numRequeues, msg.Content,
	).Scan(&returnedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, relq.NewQueueError("Requeue", relq.KindTransient, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, relq.NewQueueError("Requeue", relq.KindTransient, err)
	}
	return true, nil
}

func (q *Queue[ID]) Orphans(ctx context.Context, threshold time.Duration) ([]*relq.Message[ID], error) {
	if q.cfg.EphemeralDisabled {
		return nil, nil
	}

	batchSize := q.cfg.OrphanBatchSize
	if batchSize <= 0 {
		batchSize = relq.DefaultOrphanBatchSize
	}

	cutoff := time.Now().Add(-threshold)
	rows, err := q.pool.Query(ctx, selectOrphansQuery(q.cfg.TableNameEphemeral), cutoff, batchSize)
	if err != nil {
		return nil, relq.NewQueueError("Orphans", relq.KindTransient, err)
	}
	defer rows.Close()

	var out []*relq.Message[ID]
	for rows.Next() {
		var id string
		var origTS, ts time.Time
		var numRequeues int
		var content []byte
		if err := rows.Scan(&id, &origTS, &ts, &numRequeues, &content); err != nil {
			return nil, relq.NewQueueError("Orphans", relq.KindTransient, err)
		}
		decodedID, err := q.codec.DecodeID(id)
		if err != nil {
			return nil, relq.NewQueueError("Orphans", relq.KindSerialization, err)
		}
		out = append(out, &relq.Message[ID]{
			ID:              decodedID,
			Content:         content,
			OriginTimestamp: origTS,
			Timestamp:       ts,
			NumRequeues:     numRequeues,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, relq.NewQueueError("Orphans", relq.KindTransient, err)
	}
	return out, nil
}

func (q *Queue[ID]) QueueSize(ctx context.Context) (int, error) {
	n, err := q.tableSize(ctx, q.cfg.TableName)
	if err != nil {
		return 0, relq.NewQueueError("QueueSize", relq.KindTransient, err)
	}
	return n, nil
}

func (q *Queue[ID]) EphemeralSize(ctx context.Context) (int, error) {
	if q.cfg.EphemeralDisabled {
		return 0, nil
	}
	n, err := q.tableSize(ctx, q.cfg.TableNameEphemeral)
	if err != nil {
		return 0, relq.NewQueueError("EphemeralSize", relq.KindTransient, err)
	}
	return n, nil
}

func (q *Queue[ID]) tableSize(ctx context.Context, table string) (int, error) {
	var n int
	if err := q.pool.QueryRow(ctx, countQuery(table)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// HealthCheck pings the underlying pool, suitable for wiring into an HTTP
// health endpoint or a startup readiness probe.
func (q *Queue[ID]) HealthCheck(ctx context.Context) error {
	return pg.Healthcheck(q.pool)(ctx)
}

// Close releases the pool only if this Queue created it via Connect.
func (q *Queue[ID]) Close() error {
	q.closeOnce.Do(func() {
		if q.ownsPool {
			q.pool.Close()
		}
	})
	return nil
}

var _ relq.Queue[uuid.UUID] = (*Queue[uuid.UUID])(nil)
