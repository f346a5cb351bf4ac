package relq

import (
	"errors"
	"fmt"
)

// Kind classifies the root cause behind a *QueueError.
type Kind string

const (
	// KindTransient marks a backend error the caller may retry: a network
	// blip, a lock timeout, connection-pool exhaustion.
	KindTransient Kind = "transient"

	// KindConfiguration marks a fatal setup error: a missing table, a
	// missing Redis structure name, an unusable serializer. Surfaced from
	// adapter constructors, and from Queue methods given a nil message or
	// called after Close.
	KindConfiguration Kind = "configuration"

	// KindSerialization marks a failure to marshal or unmarshal a message's
	// content; it affects only the failing call.
	KindSerialization Kind = "serialization"
)

// Sentinel errors. Adapters wrap these inside a *QueueError so callers can
// use errors.Is against a stable value regardless of backend.
var (
	// ErrRepositoryNil is returned when an adapter is constructed with a
	// nil pool, client, or repository dependency.
	ErrRepositoryNil = errors.New("relq: repository cannot be nil")

	// ErrPayloadNil is returned when Enqueue is called with a nil message.
	ErrPayloadNil = errors.New("relq: message cannot be nil")

	// ErrQueueClosed is returned after Close by MemoryQueue's Enqueue, Take,
	// Finalize, Requeue, RequeueSilent and Orphans, and by the ring adapter's
	// Enqueue, Take, TakeWait, Requeue and RequeueSilent. Size queries,
	// pgqueue and redisqueue do not return it.
	ErrQueueClosed = errors.New("relq: queue is closed")

	// ErrTransient marks a retriable backend failure. See KindTransient.
	ErrTransient = errors.New("relq: transient backend error")

	// ErrConfiguration marks a fatal setup error. See KindConfiguration.
	ErrConfiguration = errors.New("relq: configuration error")

	// ErrSerialization marks a marshal/unmarshal failure. See KindSerialization.
	ErrSerialization = errors.New("relq: serialization error")

	// ErrInvalidEphemeralMaxSize is returned when a negative cap is configured.
	ErrInvalidEphemeralMaxSize = errors.New("relq: ephemeral max size must be >= 0")
)

// QueueError wraps a root cause with a Kind so callers can branch on failure
// class without parsing strings, while errors.Is still sees through to both
// the Kind sentinel and the wrapped cause.
type QueueError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *QueueError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("relq: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("relq: %s: %v", e.Kind, e.Err)
}

func (e *QueueError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, relq.ErrTransient) succeed for any *QueueError of
// matching Kind, independent of the wrapped root cause.
func (e *QueueError) Is(target error) bool {
	switch {
	case target == ErrTransient:
		return e.Kind == KindTransient
	case target == ErrConfiguration:
		return e.Kind == KindConfiguration
	case target == ErrSerialization:
		return e.Kind == KindSerialization
	default:
		return false
	}
}

// newQueueError wraps err with kind and the operation name that failed.
func newQueueError(op string, kind Kind, err error) *QueueError {
	return &QueueError{Op: op, Kind: kind, Err: err}
}

// NewQueueError builds a *QueueError, for use by adapter subpackages
// (pgqueue, redisqueue, ring) that need the same Op/Kind/Err wrapping this
// package uses internally.
func NewQueueError(op string, kind Kind, err error) *QueueError {
	return newQueueError(op, kind, err)
}
