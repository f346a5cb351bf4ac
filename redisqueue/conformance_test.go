package redisqueue_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/relqio/relq"
	"github.com/relqio/relq/internal/relqtest"
	"github.com/relqio/relq/redisqueue"
)

// TestQueue_Conformance runs the shared relq conformance suite against a
// real Redis instance. Set RELQ_TEST_REDIS_URL to a connection URL to run
// it; it is skipped otherwise.
func TestQueue_Conformance(t *testing.T) {
	url := os.Getenv("RELQ_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RELQ_TEST_REDIS_URL not set, skipping Redis conformance suite")
	}

	opt, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	relqtest.Run(t, func(t *testing.T) relq.Queue[uuid.UUID] {
		suffix := uuid.New().String()[:8]
		q, err := redisqueue.New[uuid.UUID](client, redisqueue.UUIDCodec{},
			redisqueue.WithHashName[uuid.UUID]("queue_h_test_"+suffix),
			redisqueue.WithListName[uuid.UUID]("queue_l_test_"+suffix),
			redisqueue.WithSortedSetName[uuid.UUID]("queue_s_test_"+suffix))
		require.NoError(t, err)
		return q
	})
}
