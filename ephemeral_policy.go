package relq

import "time"

// EphemeralPolicy holds the ephemeral-storage rules of the
// reliability-offering adapters: whether ephemeral storage is kept, its cap,
// and the three checks below. MemoryQueue holds one; pgqueue builds one for
// its Take cap check; redisqueue applies the same rules inline.
//
// The original design modelled this as a base class every backend queue
// extended; a plain struct keeps the same rules without forcing a shared
// concrete supertype.
type EphemeralPolicy struct {
	// Disabled turns Take into a pure dequeue: no holding entry is written,
	// Finalize becomes a no-op, Requeue writes the message straight back to
	// queue storage, and Orphans always returns empty.
	Disabled bool

	// MaxSize caps the number of entries ephemeral storage may hold at
	// once. Zero means unbounded. Validate, pgqueue.New and redisqueue.New
	// reject a negative value; NewMemoryQueue does not check it.
	MaxSize int
}

// Validate rejects a negative MaxSize.
func (p EphemeralPolicy) Validate() error {
	if p.MaxSize < 0 {
		return ErrInvalidEphemeralMaxSize
	}
	return nil
}

// AllowTake reports whether Take may move an entry into ephemeral storage
// given the current ephemeral size. When the policy is disabled this is
// always true, since no entry is actually written.
func (p EphemeralPolicy) AllowTake(currentSize int) bool {
	if p.Disabled || p.MaxSize == 0 {
		return true
	}
	return currentSize < p.MaxSize
}

// IsOrphan reports whether an entry taken at takenAt is old enough, relative
// to now, to be reclaimed under threshold.
func (p EphemeralPolicy) IsOrphan(takenAt, now time.Time, threshold time.Duration) bool {
	if p.Disabled {
		return false
	}
	return now.Sub(takenAt) >= threshold
}
