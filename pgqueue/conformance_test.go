package pgqueue_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/relqio/relq"
	"github.com/relqio/relq/internal/relqtest"
	"github.com/relqio/relq/pgqueue"
)

// TestQueue_Conformance runs the shared relq conformance suite against a
// real PostgreSQL instance. Set RELQ_TEST_PG_DSN to a connection string
// pointing at a scratch database to run it; it is skipped otherwise, since
// no backing database is reachable in this repository's unit test run.
func TestQueue_Conformance(t *testing.T) {
	dsn := os.Getenv("RELQ_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("RELQ_TEST_PG_DSN not set, skipping PostgreSQL conformance suite")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	counter := 0
	relqtest.Run(t, func(t *testing.T) relq.Queue[uuid.UUID] {
		counter++
		suffix := uuid.New().String()[:8]
		q, err := pgqueue.New[uuid.UUID](pool, pgqueue.UUIDCodec{},
			pgqueue.WithTableName[uuid.UUID]("relq_queue_test_"+suffix),
			pgqueue.WithTableNameEphemeral[uuid.UUID]("relq_queue_ephemeral_test_"+suffix))
		require.NoError(t, err)

		_, execErr := pool.Exec(ctx, q.DDL())
		require.NoError(t, execErr)

		return q
	})
}
