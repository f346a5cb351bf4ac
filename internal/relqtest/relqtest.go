// Package relqtest is the shared conformance suite every relq.Queue
// implementation is run against: the in-memory adapter as the primary
// target, and the relational/key-value adapters from their own package
// tests when a live backend is reachable (see pgqueue/conformance_test.go
// and redisqueue/conformance_test.go for how to wire one in).
package relqtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relqio/relq"
)

// Factory builds a fresh, empty Queue[uuid.UUID] for one test case. Each
// call must return an independent queue: tests do not share state.
type Factory func(t *testing.T) relq.Queue[uuid.UUID]

// Run executes every conformance case against the queue Factory produces.
func Run(t *testing.T, newQueue Factory) {
	t.Run("P1_NoLoss", func(t *testing.T) { testNoLoss(t, newQueue) })
	t.Run("P2_OrphanReclaim", func(t *testing.T) { testOrphanReclaim(t, newQueue) })
	t.Run("P3_RequeueCount", func(t *testing.T) { testRequeueCount(t, newQueue) })
	t.Run("P4_FIFOOrder", func(t *testing.T) { testFIFOOrder(t, newQueue) })
	t.Run("P5_NonDuplicationUnderConcurrency", func(t *testing.T) { testNonDuplication(t, newQueue) })
	t.Run("P6_SizeMonotonicity", func(t *testing.T) { testSizeMonotonicity(t, newQueue) })
	t.Run("P7_CapEnforcement", func(t *testing.T) { testCapEnforcement(t, newQueue) })

	t.Run("Scenario_RoundTrip", func(t *testing.T) { testRoundTrip(t, newQueue) })
	t.Run("Scenario_RequeueUpdatesCounters", func(t *testing.T) { testRequeueUpdatesCounters(t, newQueue) })
	t.Run("Scenario_SilentRequeuePreservesCounters", func(t *testing.T) { testSilentRequeuePreservesCounters(t, newQueue) })
}

func testNoLoss(t *testing.T, newQueue Factory) {
	q := newQueue(t)
	defer q.Close()

	ctx := context.Background()
	const n = 25
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
		ok, err := q.Enqueue(ctx, relq.NewMessage(ids[i], []byte("payload")))
		require.NoError(t, err)
		require.True(t, ok)
	}

	seen := make(map[uuid.UUID]bool)
	for len(seen) < n {
		msg, err := q.Take(ctx)
		require.NoError(t, err)
		if msg == nil {
			continue
		}
		seen[msg.ID] = true
		require.NoError(t, q.Finalize(ctx, msg.ID))
	}

	for _, id := range ids {
		assert.True(t, seen[id], "expected id %s to be observed", id)
	}
}

func testOrphanReclaim(t *testing.T, newQueue Factory) {
	q := newQueue(t)
	defer q.Close()

	ctx := context.Background()
	id := uuid.New()
	_, err := q.Enqueue(ctx, relq.NewMessage(id, []byte("a")))
	require.NoError(t, err)

	msg, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, msg)

	orphans, err := q.Orphans(ctx, time.Hour)
	require.NoError(t, err)
	assert.Len(t, orphans, 0, "not yet old enough to be an orphan")

	time.Sleep(5 * time.Millisecond)

	orphans, err = q.Orphans(ctx, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, id, orphans[0].ID)

	ok, err := q.Requeue(ctx, orphans[0])
	require.NoError(t, err)
	assert.True(t, ok)

	retaken, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, retaken)
	assert.Equal(t, id, retaken.ID)
}

func testRequeueCount(t *testing.T, newQueue Factory) {
	q := newQueue(t)
	defer q.Close()

	ctx := context.Background()
	id := uuid.New()
	_, err := q.Enqueue(ctx, relq.NewMessage(id, []byte("a")))
	require.NoError(t, err)

	const k = 3
	var msg *relq.Message[uuid.UUID]
	for i := 0; i < k; i++ {
		msg, err = q.Take(ctx)
		require.NoError(t, err)
		require.NotNil(t, msg)

		ok, err := q.Requeue(ctx, msg)
		require.NoError(t, err)
		require.True(t, ok)
	}

	final, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, k, final.NumRequeues)
}

func testFIFOOrder(t *testing.T, newQueue Factory) {
	q := newQueue(t)
	defer q.Close()

	ctx := context.Background()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		_, err := q.Enqueue(ctx, relq.NewMessage(id, []byte("a")))
		require.NoError(t, err)
	}

	for _, expected := range ids {
		msg, err := q.Take(ctx)
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, expected, msg.ID)
	}
}

func testNonDuplication(t *testing.T, newQueue Factory) {
	q := newQueue(t)
	defer q.Close()

	ctx := context.Background()
	const n = 40
	for i := 0; i < n; i++ {
		_, err := q.Enqueue(ctx, relq.NewMessage(uuid.New(), []byte("a")))
		require.NoError(t, err)
	}

	const consumers = 4
	var mu sync.Mutex
	seen := make(map[uuid.UUID]int)

	var wg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				msg, err := q.Take(ctx)
				if err != nil || msg == nil {
					return
				}
				mu.Lock()
				seen[msg.ID]++
				mu.Unlock()
				_ = q.Finalize(ctx, msg.ID)
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for id, count := range seen {
		assert.Equal(t, 1, count, "id %s observed %d times, want exactly 1", id, count)
	}
}

func testSizeMonotonicity(t *testing.T, newQueue Factory) {
	q := newQueue(t)
	defer q.Close()

	ctx := context.Background()
	size, err := q.QueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	_, err = q.Enqueue(ctx, relq.NewMessage(uuid.New(), []byte("a")))
	require.NoError(t, err)

	size, err = q.QueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	_, err = q.Take(ctx)
	require.NoError(t, err)

	size, err = q.QueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func testCapEnforcement(t *testing.T, newQueue Factory) {
	// This property depends on each adapter's own ephemeral-max-size
	// construction option, which relqtest does not control; adapters that
	// want to exercise P7 do so in their own package tests against a queue
	// constructed with a cap of 1 (see memory_test.go's
	// TestMemoryQueue_EphemeralMaxSize for the canonical shape this
	// property takes).
	t.Skip("P7 requires an adapter-specific ephemeral cap; see memory_test.go")
}

func testRoundTrip(t *testing.T, newQueue Factory) {
	q := newQueue(t)
	defer q.Close()

	ctx := context.Background()
	id := uuid.New()
	ok, err := q.Enqueue(ctx, relq.NewMessage(id, []byte("hello")))
	require.NoError(t, err)
	require.True(t, ok)

	msg, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, []byte("hello"), msg.Content)
	assert.True(t, msg.OriginTimestamp.Equal(msg.Timestamp),
		"a bare enqueue-then-take must leave Timestamp == OriginTimestamp, got origin=%v timestamp=%v",
		msg.OriginTimestamp, msg.Timestamp)

	require.NoError(t, q.Finalize(ctx, msg.ID))

	size, err := q.EphemeralSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func testRequeueUpdatesCounters(t *testing.T, newQueue Factory) {
	q := newQueue(t)
	defer q.Close()

	ctx := context.Background()
	id := uuid.New()
	_, err := q.Enqueue(ctx, relq.NewMessage(id, []byte("a")))
	require.NoError(t, err)

	taken, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, taken)

	before := taken.Timestamp
	time.Sleep(time.Millisecond)

	ok, err := q.Requeue(ctx, taken)
	require.NoError(t, err)
	require.True(t, ok)

	again, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, 1, again.NumRequeues)
	assert.True(t, again.Timestamp.After(before) || again.Timestamp.Equal(before))
}

func testSilentRequeuePreservesCounters(t *testing.T, newQueue Factory) {
	q := newQueue(t)
	defer q.Close()

	ctx := context.Background()
	id := uuid.New()
	_, err := q.Enqueue(ctx, relq.NewMessage(id, []byte("a")))
	require.NoError(t, err)

	taken, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, taken)
	t0 := taken.Timestamp

	time.Sleep(time.Millisecond)

	ok, err := q.RequeueSilent(ctx, taken)
	require.NoError(t, err)
	require.True(t, ok)

	again, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, 0, again.NumRequeues)
	assert.True(t, again.Timestamp.Equal(t0),
		"RequeueSilent must preserve the original enqueue timestamp, got %v want %v",
		again.Timestamp, t0)
}
