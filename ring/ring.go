package ring

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/relqio/relq"
)

// Queue is a bounded circular buffer of *relq.Message[ID]. A mutex guards
// the head/tail cursors: Enqueue fails fast (returns false) against a full
// buffer, Take returns (nil, nil) on an empty one, and TakeWait blocks on a
// sync.Cond until a message arrives. The published/consumed sequence
// counters are tracked with atomics so QueueSize can read them without the
// mutex.
type Queue[ID comparable] struct {
	mu   sync.Mutex
	cond *sync.Cond

	buf        []*relq.Message[ID]
	head, tail uint64 // tail - head = number of live entries; both monotonically increasing

	published atomic.Uint64
	consumed  atomic.Uint64

	closed bool
}

// New builds a ring buffer of the given capacity, which must be a positive
// power of two.
func New[ID comparable](capacity int) (*Queue[ID], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, relq.NewQueueError("New", relq.KindConfiguration,
			relq.ErrInvalidEphemeralMaxSize)
	}

	q := &Queue[ID]{
		buf: make([]*relq.Message[ID], capacity),
	}
	q.cond = sync.NewCond(&q.mu)
	return q, nil
}

func (q *Queue[ID]) mask() uint64 { return uint64(len(q.buf)) - 1 }

func (q *Queue[ID]) Enqueue(ctx context.Context, msg *relq.Message[ID]) (bool, error) {
	if msg == nil {
		return false, relq.NewQueueError("Enqueue", relq.KindConfiguration, relq.ErrPayloadNil)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, relq.NewQueueError("Enqueue", relq.KindConfiguration, relq.ErrQueueClosed)
	}
	if q.tail-q.head >= uint64(len(q.buf)) {
		// Ring full. No blocking: a producer that cannot keep up with
		// consumers should see backpressure via a retriable false, not a
		// stall, since this adapter promises low latency over durability.
		return false, nil
	}

	q.buf[q.tail&q.mask()] = msg.Clone()
	q.tail++
	q.published.Add(1)
	q.cond.Signal()
	return true, nil
}

func (q *Queue[ID]) Take(ctx context.Context) (*relq.Message[ID], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, relq.NewQueueError("Take", relq.KindConfiguration, relq.ErrQueueClosed)
	}
	if q.head == q.tail {
		return nil, nil
	}

	idx := q.head & q.mask()
	msg := q.buf[idx]
	q.buf[idx] = nil
	q.head++
	q.consumed.Add(1)
	return msg, nil
}

// TakeWait blocks until a message is available, the ring is closed, or ctx
// is done, instead of Take's immediate (nil, nil) on an empty ring. Useful
// for a dedicated consumer goroutine that would otherwise busy-poll.
func (q *Queue[ID]) TakeWait(ctx context.Context) (*relq.Message[ID], error) {
	done := make(chan struct{})
	defer close(done)
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				q.mu.Lock()
				q.cond.Broadcast()
				q.mu.Unlock()
			case <-done:
			}
		}()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == q.tail && !q.closed {
		if ctx != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		q.cond.Wait()
	}
	if q.closed && q.head == q.tail {
		return nil, relq.NewQueueError("TakeWait", relq.KindConfiguration, relq.ErrQueueClosed)
	}

	idx := q.head & q.mask()
	msg := q.buf[idx]
	q.buf[idx] = nil
	q.head++
	q.consumed.Add(1)
	return msg, nil
}

// Finalize is a no-op: Take already removed the message permanently, this
// adapter keeps no ephemeral holding area.
func (q *Queue[ID]) Finalize(ctx context.Context, id ID) error {
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

	out := msg.Clone()
	if bumpCounters {
		out.Timestamp = time.Now()
		out.NumRequeues++
	}
	return q.Enqueue(ctx, out)
}

// Orphans always returns (nil, nil): there is no ephemeral storage to scan.
func (q *Queue[ID]) Orphans(ctx context.Context, threshold time.Duration) ([]*relq.Message[ID], error) {
	return nil, nil
}

func (q *Queue[ID]) QueueSize(ctx context.Context) (int, error) {
	// Load consumed before published so the difference cannot underflow.
	consumed := q.consumed.Load()
	published := q.published.Load()
	return int(published - consumed), nil
}

// EphemeralSize is always 0: this adapter carries no holding area.
func (q *Queue[ID]) EphemeralSize(ctx context.Context) (int, error) {
	return 0, nil
}

func (q *Queue[ID]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
	return nil
}

var _ relq.Queue[uuid.UUID] = (*Queue[uuid.UUID])(nil)
