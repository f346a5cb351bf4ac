package relq

import (
	"context"
	"slices"
	"sync"
	"time"
)

// memoryEntry pairs a held message with the instant it was taken, so Orphans
// can compare it against a caller-supplied age threshold.
type memoryEntry[ID comparable] struct {
	msg    *Message[ID]
	takeAt time.Time
}

// MemoryQueue is the in-process reference adapter: an ordered slice of ids
// backs queue storage, a map backs ephemeral storage. It requires no
// external dependency and is the behavioural yardstick the other adapters
// are tested against.
type MemoryQueue[ID comparable] struct {
	mu sync.RWMutex

	order []ID              // FIFO order of queue storage
	byID  map[ID]*Message[ID]

	ephemeral map[ID]*memoryEntry[ID]

	policy EphemeralPolicy
	fifo   bool
	closed bool
}

// NewMemoryQueue builds a ready-to-use MemoryQueue with ephemeral storage
// enabled, unbounded, and FIFO ordering.
func NewMemoryQueue[ID comparable](opts ...MemoryOption[ID]) *MemoryQueue[ID] {
	q := &MemoryQueue[ID]{
		byID:      make(map[ID]*Message[ID]),
		ephemeral: make(map[ID]*memoryEntry[ID]),
		fifo:      true,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// MemoryOption configures a MemoryQueue at construction time.
type MemoryOption[ID comparable] func(*MemoryQueue[ID])

// WithEphemeralDisabled turns Take into a pure dequeue: no holding entry,
// Finalize is a no-op, Requeue writes the message straight back to queue
// storage, Orphans always returns empty.
func WithEphemeralDisabled[ID comparable]() MemoryOption[ID] {
	return func(q *MemoryQueue[ID]) { q.policy.Disabled = true }
}

// WithEphemeralMaxSize caps the number of entries ephemeral storage may hold.
func WithEphemeralMaxSize[ID comparable](n int) MemoryOption[ID] {
	return func(q *MemoryQueue[ID]) { q.policy.MaxSize = n }
}

// WithLIFO switches Take to return the most recently enqueued message
// first. Default ordering is FIFO.
func WithLIFO[ID comparable]() MemoryOption[ID] {
	return func(q *MemoryQueue[ID]) { q.fifo = false }
}

func (q *MemoryQueue[ID]) Enqueue(ctx context.Context, msg *Message[ID]) (bool, error) {
	if msg == nil {
		return false, newQueueError("Enqueue", KindConfiguration, ErrPayloadNil)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, newQueueError("Enqueue", KindConfiguration, ErrQueueClosed)
	}
	if _, exists := q.byID[msg.ID]; exists {
		return false, nil
	}

	cp := msg.Clone()
	q.byID[cp.ID] = cp
	q.order = append(q.order, cp.ID)
	return true, nil
}

func (q *MemoryQueue[ID]) Take(ctx context.Context) (*Message[ID], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, newQueueError("Take", KindConfiguration, ErrQueueClosed)
	}
	if len(q.order) == 0 {
		return nil, nil
	}
	if !q.policy.AllowTake(len(q.ephemeral)) {
		return nil, nil
	}

	var id ID
	if q.fifo {
		id = q.order[0]
		q.order = q.order[1:]
	} else {
		last := len(q.order) - 1
		id = q.order[last]
		q.order = q.order[:last]
	}
	msg := q.byID[id]
	delete(q.byID, id)

	out := msg.Clone()

	if !q.policy.Disabled {
		q.ephemeral[id] = &memoryEntry[ID]{msg: out.Clone(), takeAt: time.Now()}
	}
	return out, nil
}

func (q *MemoryQueue[ID]) Finalize(ctx context.Context, id ID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return newQueueError("Finalize", KindConfiguration, ErrQueueClosed)
	}
	delete(q.ephemeral, id)
	return nil
}

func (q *MemoryQueue[ID]) Requeue(ctx context.Context, msg *Message[ID]) (bool, error) {
	return q.requeue(msg, true)
}

func (q *MemoryQueue[ID]) RequeueSilent(ctx context.Context, msg *Message[ID]) (bool, error) {
	return q.requeue(msg, false)
}

func (q *MemoryQueue[ID]) requeue(msg *Message[ID], bumpCounters bool) (bool, error) {
	if msg == nil {
		return false, newQueueError("Requeue", KindConfiguration, ErrPayloadNil)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, newQueueError("Requeue", KindConfiguration, ErrQueueClosed)
	}

	delete(q.ephemeral, msg.ID)

	cp := msg.Clone()
	if bumpCounters {
		cp.Timestamp = time.Now()
		cp.NumRequeues++
	}
	q.byID[cp.ID] = cp
	q.order = append(q.order, cp.ID)
	return true, nil
}

func (q *MemoryQueue[ID]) Orphans(ctx context.Context, threshold time.Duration) ([]*Message[ID], error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, newQueueError("Orphans", KindConfiguration, ErrQueueClosed)
	}
	if q.policy.Disabled {
		return nil, nil
	}

	now := time.Now()
	out := make([]*Message[ID], 0)
	for _, entry := range q.ephemeral {
		if q.policy.IsOrphan(entry.takeAt, now, threshold) {
			out = append(out, entry.msg.Clone())
			if len(out) >= DefaultOrphanBatchSize {
				break
			}
		}
	}
	slices.SortFunc(out, func(a, b *Message[ID]) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}

func (q *MemoryQueue[ID]) QueueSize(ctx context.Context) (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.order), nil
}

func (q *MemoryQueue[ID]) EphemeralSize(ctx context.Context) (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.policy.Disabled {
		return 0, nil
	}
	return len(q.ephemeral), nil
}

func (q *MemoryQueue[ID]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
