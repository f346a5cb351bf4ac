package redisqueue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/relqio/relq"
	"github.com/relqio/relq/pkg/redis"
)

// Queue is the Redis-backed relq.Queue[ID] implementation: a hash of
// serialized messages, a list of pending ids, and a sorted set of ids
// currently checked out by a consumer.
type Queue[ID comparable] struct {
	client     goredis.UniversalClient
	ownsClient bool
	codec      IDCodec[ID]
	serializer relq.Serializer[ID]
	cfg        Config
	closeOnce  sync.Once
}

// New builds a Queue over a client the caller owns; Close never closes it.
func New[ID comparable](client goredis.UniversalClient, codec IDCodec[ID], opts ...Option[ID]) (*Queue[ID], error) {
	if client == nil {
		return nil, relq.NewQueueError("New", relq.KindConfiguration, relq.ErrRepositoryNil)
	}
	if codec == nil {
		return nil, relq.NewQueueError("New", relq.KindConfiguration, errors.New("relq/redisqueue: codec cannot be nil"))
	}

	q := &Queue[ID]{
		client:     client,
		codec:      codec,
		serializer: relq.JSONSerializer[ID]{},
		cfg: Config{
			HashName:        "queue_h",
			ListName:        "queue_l",
			SortedSetName:   "queue_s",
			OrphanBatchSize: relq.DefaultOrphanBatchSize,
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

// Connect builds a Queue over a client redisqueue creates itself via
// pkg/redis. Close releases it.
func Connect[ID comparable](ctx context.Context, redisCfg redis.Config, codec IDCodec[ID], opts ...Option[ID]) (*Queue[ID], error) {
	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return nil, relq.NewQueueError("Connect", relq.KindTransient, err)
	}

	q, err := New[ID](client, codec, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	q.ownsClient = true
	return q, nil
}

// WithSerializer overrides the default JSONSerializer used to encode the
// hash entries.
func WithSerializer[ID comparable](s relq.Serializer[ID]) Option[ID] {
	return func(q *Queue[ID]) { q.serializer = s }
}

func (q *Queue[ID]) Enqueue(ctx context.Context, msg *relq.Message[ID]) (bool, error) {
	if msg == nil {
		return false, relq.NewQueueError("Enqueue", relq.KindConfiguration, relq.ErrPayloadNil)
	}

	encoded, err := q.serializer.Marshal(msg)
	if err != nil {
		return false, relq.NewQueueError("Enqueue", relq.KindSerialization, err)
	}

	encodedID := q.codec.EncodeID(msg.ID)

	if err := q.client.HSet(ctx, q.cfg.HashName, encodedID, encoded).Err(); err != nil {
		return false, relq.NewQueueError("Enqueue", relq.KindTransient, err)
	}
	if err := q.client.RPush(ctx, q.cfg.ListName, encodedID).Err(); err != nil {
		return false, relq.NewQueueError("Enqueue", relq.KindTransient, err)
	}
	return true, nil
}

func (q *Queue[ID]) Take(ctx context.Context) (*relq.Message[ID], error) {
	if !q.cfg.EphemeralDisabled && q.cfg.EphemeralMaxSize > 0 {
		size, err := q.client.ZCard(ctx, q.cfg.SortedSetName).Result()
		if err != nil {
			return nil, relq.NewQueueError("Take", relq.KindTransient, err)
		}
		if int(size) >= q.cfg.EphemeralMaxSize {
			return nil, nil
		}
	}

	now := time.Now()
	var result []interface{}
	var err error
	if q.cfg.EphemeralDisabled {
		result, err = takeScriptEphemeralDisabled.Run(ctx, q.client,
			[]string{q.cfg.ListName, q.cfg.HashName}, now.UnixNano()).Slice()
	} else {
		result, err = takeScriptEphemeralEnabled.Run(ctx, q.client,
			[]string{q.cfg.ListName, q.cfg.SortedSetName, q.cfg.HashName}, now.UnixNano()).Slice()
	}
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, relq.NewQueueError("Take", relq.KindTransient, err)
	}
	if result == nil {
		return nil, nil
	}

	payload, ok := result[1].(string)
	if !ok || payload == "" {
		return nil, nil
	}

	msg, err := q.serializer.Unmarshal([]byte(payload))
	if err != nil {
		return nil, relq.NewQueueError("Take", relq.KindSerialization, err)
	}
	// msg.Timestamp is left as stored: the last enqueue/requeue instant, not
	// this take instant. The sorted-set score (now, above) is the separate
	// take-time clock Orphans ages against.
	return msg, nil
}

func (q *Queue[ID]) Finalize(ctx context.Context, id ID) error {
	if q.cfg.EphemeralDisabled {
		return nil
	}

	encodedID := q.codec.EncodeID(id)
	pipe := q.client.Pipeline()
	pipe.ZRem(ctx, q.cfg.SortedSetName, encodedID)
	pipe.HDel(ctx, q.cfg.HashName, encodedID)
	if _, err := pipe.Exec(ctx); err != nil {
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

// requeue issues ZREM/RPUSH/HSET in one pipeline rather than a second Lua
// script (see the requeue design note covering this choice); partial
// completion on a pipeline error is tolerated because the orphan scan is the
// recovery net for anything it leaves inconsistent.
func (q *Queue[ID]) requeue(ctx context.Context, msg *relq.Message[ID], bumpCounters bool) (bool, error) {
	if msg == nil {
		return false, relq.NewQueueError("Requeue", relq.KindConfiguration, relq.ErrPayloadNil)
	}

	out := msg.Clone()
	if bumpCounters {
		out.Timestamp = time.Now()
		out.NumRequeues++
	}

	encoded, err := q.serializer.Marshal(out)
	if err != nil {
		return false, relq.NewQueueError("Requeue", relq.KindSerialization, err)
	}

	encodedID := q.codec.EncodeID(out.ID)

	pipe := q.client.Pipeline()
	if !q.cfg.EphemeralDisabled {
		pipe.ZRem(ctx, q.cfg.SortedSetName, encodedID)
	}
	pipe.HSet(ctx, q.cfg.HashName, encodedID, encoded)
	pipe.RPush(ctx, q.cfg.ListName, encodedID)
	if _, err := pipe.Exec(ctx); err != nil {
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
	ids, err := q.client.ZRangeByScore(ctx, q.cfg.SortedSetName, &goredis.ZRangeBy{
		Min:   "0",
		Max:   formatScore(cutoff),
		Count: int64(batchSize),
	}).Result()
	if err != nil {
		return nil, relq.NewQueueError("Orphans", relq.KindTransient, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	payloads, err := q.client.HMGet(ctx, q.cfg.HashName, ids...).Result()
	if err != nil {
		return nil, relq.NewQueueError("Orphans", relq.KindTransient, err)
	}

	out := make([]*relq.Message[ID], 0, len(ids))
	for _, p := range payloads {
		if p == nil {
			// Already finalized by the owning consumer between ZRANGEBYSCORE
			// and HMGET; skip rather than error.
			continue
		}
		s, ok := p.(string)
		if !ok {
			continue
		}
		msg, err := q.serializer.Unmarshal([]byte(s))
		if err != nil {
			return nil, relq.NewQueueError("Orphans", relq.KindSerialization, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func (q *Queue[ID]) QueueSize(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.cfg.ListName).Result()
	if err != nil {
		return 0, relq.NewQueueError("QueueSize", relq.KindTransient, err)
	}
	return int(n), nil
}

func (q *Queue[ID]) EphemeralSize(ctx context.Context) (int, error) {
	if q.cfg.EphemeralDisabled {
		return 0, nil
	}
	n, err := q.client.ZCard(ctx, q.cfg.SortedSetName).Result()
	if err != nil {
		return 0, relq.NewQueueError("EphemeralSize", relq.KindTransient, err)
	}
	return int(n), nil
}

// HealthCheck pings the underlying client, suitable for wiring into an HTTP
// health endpoint or a startup readiness probe.
func (q *Queue[ID]) HealthCheck(ctx context.Context) error {
	return redis.Healthcheck(q.client)(ctx)
}

// Close releases the client only if this Queue created it via Connect.
func (q *Queue[ID]) Close() error {
	q.closeOnce.Do(func() {
		if q.ownsClient {
			_ = q.client.Close()
		}
	})
	return nil
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

var _ relq.Queue[uuid.UUID] = (*Queue[uuid.UUID])(nil)
