package ringbuf

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ringforge/ringpool/pkg/ringpoolerrors"
)

// Availability is the read-side view a barrier needs over a slot array:
// which sequences have actually been published, as opposed to merely claimed
// on the cursor.
type Availability interface {
	IsPublished(seq int64) bool
	HighestPublished(lo, hi int64) int64
}

// Barrier coordinates the single claimant with the shared publish cursor. It
// waits, per the configured strategy, until a target sequence has been
// claimed, then resolves the highest sequence that is safely published.
//
// A barrier can be alerted out of band, which fails any in-progress or
// subsequent wait fast with a cancelled error instead of hanging. The pool
// never alerts its own barrier; the facility exists for external shutdown.
type Barrier struct {
	cursor   *Sequence
	avail    Availability
	strategy WaitStrategy

	mu      sync.Mutex
	alertC  chan struct{}
	alerted atomic.Bool
}

// NewBarrier creates a barrier over the given publish cursor, availability
// view, and wait strategy.
func NewBarrier(cursor *Sequence, avail Availability, strategy WaitStrategy) *Barrier {
	return &Barrier{
		cursor:   cursor,
		avail:    avail,
		strategy: strategy,
		alertC:   make(chan struct{}),
	}
}

// WaitFor blocks until the publish cursor has advanced to at least target,
// then returns the highest sequence known to be safely published, which may
// be below target while a publish is still in flight. The expire channel is
// optional; when it fires the wait fails with ErrWaitExpired.
//
// Fails with a cancelled error if the barrier is or becomes alerted.
func (b *Barrier) WaitFor(target int64, expire <-chan time.Time) (int64, error) {
	if err := b.checkAlert(target); err != nil {
		return InitialSequence, err
	}

	b.mu.Lock()
	alertC := b.alertC
	b.mu.Unlock()

	claimed, err := b.strategy.WaitFor(target, b.cursor, alertC, expire)
	if err != nil {
		return InitialSequence, err
	}
	if claimed < target {
		return claimed, nil
	}

	return b.avail.HighestPublished(target, claimed), nil
}

// SignalAll wakes every waiter parked on the barrier's strategy. Publishers
// call it after publishing a sequence.
func (b *Barrier) SignalAll() {
	b.strategy.SignalAllWhenBlocking()
}

// Alert cancels any in-progress wait and causes subsequent waits to fail
// until ClearAlert is called.
func (b *Barrier) Alert() {
	if b.alerted.CompareAndSwap(false, true) {
		b.mu.Lock()
		close(b.alertC)
		b.mu.Unlock()
	}
	b.strategy.SignalAllWhenBlocking()
}

// ClearAlert re-arms the barrier after an alert.
func (b *Barrier) ClearAlert() {
	b.mu.Lock()
	if b.alerted.Load() {
		b.alertC = make(chan struct{})
		b.alerted.Store(false)
	}
	b.mu.Unlock()
}

// IsAlerted reports whether the barrier is currently alerted.
func (b *Barrier) IsAlerted() bool {
	return b.alerted.Load()
}

func (b *Barrier) checkAlert(target int64) error {
	if b.alerted.Load() {
		return ringpoolerrors.New(ringpoolerrors.ErrorTypeCancelled,
			"sequence barrier alerted").
			WithDetail("sequence", target)
	}
	return nil
}
