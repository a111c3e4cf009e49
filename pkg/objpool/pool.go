// Package objpool provides a fixed-capacity object pool built on a lock-free
// ring buffer. One claimant goroutine repeatedly borrows pre-built objects
// while any number of returner goroutines hand objects back, with no shared
// mutual-exclusion lock on the data path.
//
// The pool targets latency-sensitive pipelines where allocator and GC
// pressure from short-lived objects is unacceptable. Hand-off of ownership is
// coordinated entirely through atomic sequence counters: the claimant owns a
// private claim cursor, returners share a publish cursor advanced by atomic
// increment, and per-slot availability sequences give the claimant a
// happens-before edge on every published reference.
//
// Two exhaustion policies are supported. In blocking mode the claimant parks
// on the configured wait strategy until a return publishes. In
// allocate-on-empty mode Borrow never blocks: exhaustion is resolved by
// constructing a fresh, pool-external object, deliberately trading garbage
// for latency.
//
// Usage contract:
//   - Exactly one goroutine ever calls Borrow on a given pool.
//   - Every pooled object is created by the pool's factory.
//   - A returner must drop all use of an object after returning it.
//   - In blocking mode, objects must be returned in a timely fashion; a
//     starved pool surfaces a pool-leak fault rather than hanging forever.
//
// Example:
//
//	pool, err := objpool.New(1024, func(p *objpool.Pool[*Frame]) *Frame {
//	    return &Frame{pool: p}
//	})
//	if err != nil {
//	    return err
//	}
//	frame, err := pool.Borrow()
//	...
//	frame.ReturnToPool()
package objpool

import (
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ringforge/ringpool/pkg/logger"
	"github.com/ringforge/ringpool/pkg/ringbuf"
	"github.com/ringforge/ringpool/pkg/ringpoolerrors"
)

// DefaultLeakTimeout bounds how long a blocking Borrow waits while no return
// is in flight before declaring the pool leaked. Configurable per pool with
// WithLeakTimeout; zero disables detection.
const DefaultLeakTimeout = 10 * time.Second

// Poolable is the capability every pooled type must expose. Implementations
// delegate to the owning pool:
//
//	func (f *Frame) ReturnToPool() error { return f.pool.ReturnObject(f) }
//
// The pool never inspects object internals beyond this capability.
type Poolable interface {
	ReturnToPool() error
}

// Factory creates a new instance of the pooled type owned by the given pool.
// It is invoked capacity times at construction and again on every
// allocate-on-empty fallback. It must not reenter Borrow or ReturnObject.
type Factory[T Poolable] func(owner *Pool[T]) T

// Pool is a fixed-capacity object pool over a lock-free ring buffer.
// Capacity and policy are fixed at construction.
type Pool[T Poolable] struct {
	buf      *ringbuf.Ring[T]
	capacity int64

	// publishClaim is the shared cursor returners advance by atomic
	// increment to claim the next publish slot.
	publishClaim *ringbuf.Sequence
	// claimSeq is the claimant's private cursor and the gating value
	// returners must not overrun: publishClaim - claimSeq never exceeds
	// capacity.
	claimSeq *ringbuf.Sequence

	barrier  *ringbuf.Barrier
	strategy ringbuf.WaitStrategy
	factory  Factory[T]

	allocateOnEmpty bool
	leakTimeout     time.Duration

	objectsCreated ringbuf.Counter
	waitCount      ringbuf.Counter

	name        string
	log         *zap.Logger
	debugChecks bool
	borrowing   atomic.Bool
}

// Option configures a pool at construction time.
type Option[T Poolable] func(*Pool[T])

// WithAllocateOnEmpty makes Borrow allocate a fresh object instead of
// blocking when the pool is exhausted, and makes returns to a full pool a
// silent no-op.
func WithAllocateOnEmpty[T Poolable]() Option[T] {
	return func(p *Pool[T]) { p.allocateOnEmpty = true }
}

// WithWaitStrategy selects the claimant's wait strategy. Defaults to a
// blocking strategy. Ignored (never invoked) when allocate-on-empty is set.
func WithWaitStrategy[T Poolable](s ringbuf.WaitStrategy) Option[T] {
	return func(p *Pool[T]) { p.strategy = s }
}

// WithLeakTimeout sets how long a blocking Borrow waits with no return in
// flight before failing with a pool-leak fault. Zero disables the detector,
// restoring an unbounded wait.
func WithLeakTimeout[T Poolable](d time.Duration) Option[T] {
	return func(p *Pool[T]) { p.leakTimeout = d }
}

// WithName labels the pool in logs and metrics.
func WithName[T Poolable](name string) Option[T] {
	return func(p *Pool[T]) { p.name = name }
}

// WithLogger sets the pool's logger. Defaults to the global logger.
func WithLogger[T Poolable](log *zap.Logger) Option[T] {
	return func(p *Pool[T]) { p.log = log }
}

// WithDebugChecks enables a cheap assertion that only one goroutine calls
// Borrow. Intended for tests and staging; the production path stays free of
// the extra atomic traffic.
func WithDebugChecks[T Poolable]() Option[T] {
	return func(p *Pool[T]) { p.debugChecks = true }
}

// New creates a pool of the given capacity and pre-fills it by invoking the
// factory exactly capacity times, returning each object through the internal
// return path.
//
// Fails with an invalid-capacity error when capacity is not >= 1 or not a
// power of two, and with an invalid-configuration error when blocking mode
// is requested with a nil wait strategy.
func New[T Poolable](capacity int, factory Factory[T], opts ...Option[T]) (*Pool[T], error) {
	if factory == nil {
		return nil, ringpoolerrors.New(ringpoolerrors.ErrorTypeInvalidConfiguration,
			"factory must not be nil")
	}

	p := &Pool[T]{
		capacity:     int64(capacity),
		publishClaim: ringbuf.NewSequence(ringbuf.InitialSequence),
		claimSeq:     ringbuf.NewSequence(ringbuf.InitialSequence),
		factory:      factory,
		strategy:     ringbuf.NewBlockingStrategy(),
		leakTimeout:  DefaultLeakTimeout,
		name:         "ringpool",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get()
	}
	p.log = p.log.With(zap.String("pool", p.name))

	if !p.allocateOnEmpty && p.strategy == nil {
		return nil, ringpoolerrors.New(ringpoolerrors.ErrorTypeInvalidConfiguration,
			"blocking mode requires a wait strategy")
	}

	buf, err := ringbuf.NewRing[T](capacity)
	if err != nil {
		return nil, err
	}
	p.buf = buf
	p.barrier = ringbuf.NewBarrier(p.publishClaim, buf, p.strategy)

	// Pre-fill through the regular return path. Every insertion must shrink
	// remaining capacity by exactly one; a mismatch means the storage and
	// cursor bookkeeping disagree.
	for i := 0; i < capacity; i++ {
		before := p.Remaining()
		if err := p.returnObject(factory(p), true); err != nil {
			return nil, err
		}
		if after := p.Remaining(); after != before-1 {
			return nil, ringpoolerrors.New(ringpoolerrors.ErrorTypeCorruption,
				"remaining capacity did not decrease by one during pre-fill").
				WithDetail("before", before).
				WithDetail("after", after).
				WithDetail("insertion", i)
		}
	}

	p.log.Debug("pool created",
		zap.Int("capacity", capacity),
		zap.Bool("allocate_on_empty", p.allocateOnEmpty),
		zap.Duration("leak_timeout", p.leakTimeout))

	return p, nil
}

// Borrow acquires an object from the pool. Only one goroutine may ever call
// Borrow on a given pool instance.
//
// In blocking mode Borrow parks on the wait strategy until a return
// publishes, failing with a timeout error if a bounded strategy expires, a
// cancelled error if the barrier is alerted externally, or a pool-leak fault
// if the pool is starved of returns for longer than the leak timeout. In
// allocate-on-empty mode Borrow never blocks.
func (p *Pool[T]) Borrow() (T, error) {
	var zero T

	if p.debugChecks {
		if !p.borrowing.CompareAndSwap(false, true) {
			return zero, ringpoolerrors.New(ringpoolerrors.ErrorTypeCorruption,
				"concurrent Borrow detected; the pool has a single-claimant contract")
		}
		defer p.borrowing.Store(false)
	}

	next := p.claimSeq.Load() + 1

	if !p.buf.IsPublished(next) {
		if p.allocateOnEmpty {
			p.objectsCreated.Inc()
			return p.factory(p), nil
		}
		p.waitCount.Inc()
	}

	if err := p.awaitPublished(next); err != nil {
		return zero, err
	}

	obj, ok := p.buf.Take(next)
	p.claimSeq.Store(next)

	if !ok {
		if p.allocateOnEmpty {
			// An empty-but-published slot under allocate-on-empty is treated
			// as ordinary exhaustion, matching the drop that produced it.
			p.objectsCreated.Inc()
			return p.factory(p), nil
		}
		err := ringpoolerrors.New(ringpoolerrors.ErrorTypeLeak,
			"published slot held no object; a borrower failed to return it").
			WithDetail("sequence", next)
		p.log.Error("pool leak detected", zap.Int64("sequence", next))
		return zero, err
	}

	return obj, nil
}

// awaitPublished blocks until sequence next is published, arming the leak
// deadline whenever the wait starts with nothing in flight: in that state
// only a future ReturnObject call can ever satisfy the wait, so a deadline
// expiry with the ring still drained means the callers leaked.
func (p *Pool[T]) awaitPublished(next int64) error {
	var expire <-chan time.Time
	var leakTimer *time.Timer

	if !p.allocateOnEmpty && p.leakTimeout > 0 && !p.buf.IsPublished(next) && p.inFlight() == 0 {
		leakTimer = time.NewTimer(p.leakTimeout)
		defer leakTimer.Stop()
		expire = leakTimer.C
	}

	for {
		avail, err := p.barrier.WaitFor(next, expire)
		if errors.Is(err, ringbuf.ErrWaitExpired) {
			if p.inFlight() == 0 {
				leakErr := ringpoolerrors.New(ringpoolerrors.ErrorTypeLeak,
					"no object returned within the leak timeout; borrowers are not returning objects").
					WithDetail("sequence", next).
					WithDetail("leak_timeout", p.leakTimeout)
				p.log.Error("pool starved of returns",
					zap.Int64("sequence", next),
					zap.Duration("leak_timeout", p.leakTimeout))
				return leakErr
			}
			// A return claimed a slot while we waited; its publish is
			// imminent, keep waiting without the deadline.
			expire = nil
			continue
		}
		if err != nil {
			return err
		}
		if avail >= next {
			return nil
		}
		// The cursor advanced but the publish itself is still in flight.
		runtime.Gosched()
	}
}

// ReturnObject hands an object back to the pool. Any number of goroutines
// may call it concurrently; the claim-and-publish step is lock-free.
//
// When the pool is full and configured to allocate on empty, the object is
// silently discarded. A non-empty slot at publish time is a bookkeeping
// violation and fails with a corruption error.
func (p *Pool[T]) ReturnObject(obj T) error {
	return p.returnObject(obj, false)
}

func (p *Pool[T]) returnObject(obj T, startup bool) error {
	if p.allocateOnEmpty && p.Remaining() == 0 {
		// Deliberate garbage: dropping beats stalling a returner.
		return nil
	}

	seq := p.publishClaim.IncrementAndGet()

	if err := p.buf.Publish(seq, obj, startup); err != nil {
		p.log.Error("slot corruption on return", zap.Int64("sequence", seq), zap.Error(err))
		return err
	}

	p.barrier.SignalAll()
	return nil
}

// Alert cancels any in-progress Borrow wait with a cancelled error and makes
// subsequent blocking borrows fail fast. Reserved for external shutdown; the
// pool never alerts itself.
func (p *Pool[T]) Alert() {
	p.barrier.Alert()
}

// ClearAlert re-arms the pool's barrier after an Alert.
func (p *Pool[T]) ClearAlert() {
	p.barrier.ClearAlert()
}

// Name returns the pool's label used in logs and metrics.
func (p *Pool[T]) Name() string {
	return p.name
}

// Capacity returns the fixed pool capacity.
func (p *Pool[T]) Capacity() int64 {
	return p.capacity
}

// Remaining returns how many more objects can currently be returned before
// the pool is full. Approximate under concurrent returns.
func (p *Pool[T]) Remaining() int64 {
	return p.capacity - p.inFlight()
}

// ObjectsCreated returns the cumulative count of objects allocated outside
// the pre-filled set. Read-only observability; zero unless allocate-on-empty
// fallbacks occurred.
func (p *Pool[T]) ObjectsCreated() int64 {
	return p.objectsCreated.Load()
}

// WaitCount returns the cumulative number of times the claimant found the
// pool empty and had to wait. Useful for capacity tuning.
func (p *Pool[T]) WaitCount() int64 {
	return p.waitCount.Load()
}

// inFlight is the number of returns claimed on the publish cursor that the
// claimant has not yet consumed. Zero means the ring is drained: every pool
// object is checked out and no return is in progress.
func (p *Pool[T]) inFlight() int64 {
	return p.publishClaim.Load() - p.claimSeq.Load()
}
