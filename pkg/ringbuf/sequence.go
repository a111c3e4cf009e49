// Package ringbuf provides the lock-free ring buffer machinery backing the
// ringpool object pool: padded atomic sequences, a power-of-two slot array
// with per-slot availability, pluggable wait strategies, and a sequence
// barrier with external cancellation.
package ringbuf

import "sync/atomic"

// InitialSequence is the "before first element" sentinel every cursor starts
// at. The first claimed sequence is therefore 0.
const InitialSequence int64 = -1

// Sequence is a monotonically increasing atomic 64-bit counter padded to its
// own cache line so that hot cursors do not false-share with neighbours.
// All operations have the usual acquire/release semantics of Go atomics: a
// Load observes every write that happened before the corresponding Store.
type Sequence struct {
	value atomic.Int64
	_pad  [7]int64 //nolint:unused // padding to fill the cache line
}

// NewSequence creates a sequence starting at the given value.
func NewSequence(initial int64) *Sequence {
	s := &Sequence{}
	s.value.Store(initial)
	return s
}

// Load returns the current value.
func (s *Sequence) Load() int64 {
	return s.value.Load()
}

// Store sets the current value.
func (s *Sequence) Store(v int64) {
	s.value.Store(v)
}

// IncrementAndGet atomically increments the sequence and returns the new
// value. Safe for any number of concurrent callers.
func (s *Sequence) IncrementAndGet() int64 {
	return s.value.Add(1)
}

// AddAndGet atomically adds delta and returns the new value.
func (s *Sequence) AddAndGet(delta int64) int64 {
	return s.value.Add(delta)
}

// CompareAndSwap atomically swaps old for new, reporting success.
func (s *Sequence) CompareAndSwap(old, new int64) bool {
	return s.value.CompareAndSwap(old, new)
}

// Counter is a lock-free counter for statistics. Unlike Sequence it is not
// padded; counters are read rarely and written from a single goroutine in
// the pool's hot path.
type Counter struct {
	value atomic.Int64
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds delta to the counter.
func (c *Counter) Add(delta int64) {
	c.value.Add(delta)
}

// Load returns the current value.
func (c *Counter) Load() int64 {
	return c.value.Load()
}

// Reset sets the counter back to zero.
func (c *Counter) Reset() {
	c.value.Store(0)
}
