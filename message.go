package relq

import "time"

// Message is the value type that flows through a Queue. ID is
// adapter-chosen: callers typically instantiate Queue[uuid.UUID],
// Queue[int64], or Queue[string].
type Message[ID comparable] struct {
	ID ID

	// Content is the opaque payload chosen by the caller.
	Content []byte

	// OriginTimestamp is set once, at first enqueue, and never mutated
	// thereafter.
	OriginTimestamp time.Time

	// Timestamp reflects the most recent enqueue or requeue instant. Take
	// returns it unchanged; adapters track the take instant separately.
	Timestamp time.Time

	// NumRequeues counts calls to Requeue; RequeueSilent never increments it.
	NumRequeues int
}

// NewMessage builds a Message ready for a first Enqueue. OriginTimestamp and
// Timestamp are both set to now.
func NewMessage[ID comparable](id ID, content []byte) *Message[ID] {
	now := time.Now()
	return &Message[ID]{
		ID:              id,
		Content:         content,
		OriginTimestamp: now,
		Timestamp:       now,
	}
}

// Clone returns a deep-enough copy of the message: the Content slice is
// copied so a caller mutating their original buffer cannot corrupt state an
// adapter has retained.
func (m *Message[ID]) Clone() *Message[ID] {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Content != nil {
		cp.Content = make([]byte, len(m.Content))
		copy(cp.Content, m.Content)
	}
	return &cp
}
