package ringbuf

import (
	"runtime"

	"github.com/ringforge/ringpool/pkg/ringpoolerrors"
)

// Ring is a fixed-capacity power-of-two slot array with per-slot availability
// sequences. Sequences map to slots via a bitmask, and a slot's availability
// sequence encodes which lap of the ring it was last published on, so a
// publisher can never observe a stale lap as available.
//
// The availability protocol for a slot at index i = seq & mask:
//
//	seq == availability        slot is owned by the publisher of seq
//	seq+1 == availability      seq is published and readable
//	seq+capacity == avail...   slot consumed, owned by publisher of seq+capacity
//
// The ring performs no cursor coordination of its own; callers claim
// sequences on their own cursors and hand them to Publish/Take.
type Ring[T any] struct {
	slots    []ringSlot[T]
	mask     int64
	capacity int64
}

// ringSlot holds at most one pooled reference. The availability sequence is
// the only field accessed atomically; ref and occupied are protected by the
// acquire/release ordering of avail.
type ringSlot[T any] struct {
	avail    Sequence
	ref      T
	occupied bool
}

// NewRing creates a ring with the given capacity. Capacity must be at least 1
// and a power of two so sequences map to indices with a mask instead of a
// modulo.
func NewRing[T any](capacity int) (*Ring[T], error) {
	if capacity < 1 {
		return nil, ringpoolerrors.New(ringpoolerrors.ErrorTypeInvalidCapacity,
			"ring capacity must be at least 1").
			WithDetail("capacity", capacity)
	}
	if capacity&(capacity-1) != 0 {
		return nil, ringpoolerrors.New(ringpoolerrors.ErrorTypeInvalidCapacity,
			"ring capacity must be a power of two").
			WithDetail("capacity", capacity)
	}

	r := &Ring[T]{
		slots:    make([]ringSlot[T], capacity),
		mask:     int64(capacity) - 1,
		capacity: int64(capacity),
	}
	// Slot i is first publishable at sequence i.
	for i := range r.slots {
		r.slots[i].avail.Store(int64(i))
	}
	return r, nil
}

// Capacity returns the fixed number of slots.
func (r *Ring[T]) Capacity() int64 {
	return r.capacity
}

// IsPublished reports whether the given sequence has been published and not
// yet consumed.
func (r *Ring[T]) IsPublished(seq int64) bool {
	return r.slots[seq&r.mask].avail.Load() == seq+1
}

// HighestPublished returns the highest sequence in [lo, hi] for which every
// sequence from lo upward is published, or lo-1 when lo itself is not yet
// published. Scanning stops at the first gap so the single claimant never
// reads past an in-flight publish.
func (r *Ring[T]) HighestPublished(lo, hi int64) int64 {
	for seq := lo; seq <= hi; seq++ {
		if !r.IsPublished(seq) {
			return seq - 1
		}
	}
	return hi
}

// Publish stores ref into the slot for seq and makes it visible to readers.
// The caller must have claimed seq on the shared publish cursor. If the slot
// is still owned by a previous lap's reader the publisher spins briefly; the
// retry is lock-free and, under the pool contract that at most capacity
// objects circulate, resolves immediately.
//
// Unless startup is set, an occupied slot is a bookkeeping violation and
// fails with a corruption error. At startup every slot is empty by
// definition and the check is skipped.
func (r *Ring[T]) Publish(seq int64, ref T, startup bool) error {
	slot := &r.slots[seq&r.mask]

	for slot.avail.Load() != seq {
		runtime.Gosched()
	}

	if !startup && slot.occupied {
		return ringpoolerrors.New(ringpoolerrors.ErrorTypeCorruption,
			"slot already holds an object at publish").
			WithDetail("sequence", seq).
			WithDetail("index", seq&r.mask)
	}

	slot.ref = ref
	slot.occupied = true
	slot.avail.Store(seq + 1)
	return nil
}

// Take extracts the reference published at seq, clearing the slot immediately
// so no stale ownership survives, and frees the slot for the next lap. The
// returned bool reports whether the slot actually held an object; a published
// slot with no object is the pool-leak signature and is left to the caller to
// classify.
//
// Only the single claimant may call Take, and only for sequences confirmed
// published.
func (r *Ring[T]) Take(seq int64) (T, bool) {
	slot := &r.slots[seq&r.mask]

	ref := slot.ref
	ok := slot.occupied

	var zero T
	slot.ref = zero
	slot.occupied = false
	slot.avail.Store(seq + r.capacity)

	return ref, ok
}
