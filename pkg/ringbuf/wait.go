package ringbuf

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/ringforge/ringpool/pkg/ringpoolerrors"
)

// ErrWaitExpired reports that the caller-supplied expire channel fired before
// the cursor reached the target. It is distinct from a strategy's own
// timeout: the expire channel belongs to the caller (the pool's leak
// detector), so only the caller can decide what its firing means.
var ErrWaitExpired = errors.New("ringbuf: wait expired")

// WaitStrategy decides how the claimant blocks when the next sequence is not
// yet available.
//
// WaitFor blocks until cursor reaches at least target, then returns the
// cursor value it observed. It returns a cancelled error when the alert
// channel closes, ErrWaitExpired when the expire channel fires, and a timeout
// error when the strategy's own bound (if any) elapses. Either channel may be
// nil.
//
// SignalAllWhenBlocking wakes every parked waiter; publishers call it after
// each publish.
type WaitStrategy interface {
	WaitFor(target int64, cursor *Sequence, alert <-chan struct{}, expire <-chan time.Time) (int64, error)
	SignalAllWhenBlocking()
}

// BlockingStrategy parks the claimant on a broadcast channel until a publish
// signals. Cheapest on CPU, highest wake-up latency.
type BlockingStrategy struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewBlockingStrategy creates a blocking wait strategy.
func NewBlockingStrategy() *BlockingStrategy {
	return &BlockingStrategy{ch: make(chan struct{})}
}

// WaitFor implements WaitStrategy.
func (s *BlockingStrategy) WaitFor(target int64, cursor *Sequence, alert <-chan struct{}, expire <-chan time.Time) (int64, error) {
	for {
		// Grab the broadcast channel before re-checking the cursor so a
		// signal racing the check cannot be missed: a publish that lands
		// after the check closes the channel we are about to park on.
		s.mu.Lock()
		ch := s.ch
		s.mu.Unlock()

		if c := cursor.Load(); c >= target {
			return c, nil
		}

		select {
		case <-ch:
		case <-alert:
			return cursor.Load(), errAlerted(target)
		case <-expire:
			return cursor.Load(), ErrWaitExpired
		}
	}
}

// SignalAllWhenBlocking implements WaitStrategy by closing the current
// broadcast channel and installing a fresh one.
func (s *BlockingStrategy) SignalAllWhenBlocking() {
	s.mu.Lock()
	close(s.ch)
	s.ch = make(chan struct{})
	s.mu.Unlock()
}

// TimeoutBlockingStrategy behaves like BlockingStrategy but bounds each wait.
// When the bound elapses WaitFor fails with a timeout error the caller may
// retry or escalate.
type TimeoutBlockingStrategy struct {
	blocking BlockingStrategy
	timeout  time.Duration
}

// NewTimeoutBlockingStrategy creates a bounded blocking wait strategy.
func NewTimeoutBlockingStrategy(timeout time.Duration) *TimeoutBlockingStrategy {
	return &TimeoutBlockingStrategy{
		blocking: BlockingStrategy{ch: make(chan struct{})},
		timeout:  timeout,
	}
}

// WaitFor implements WaitStrategy.
func (s *TimeoutBlockingStrategy) WaitFor(target int64, cursor *Sequence, alert <-chan struct{}, expire <-chan time.Time) (int64, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		s.blocking.mu.Lock()
		ch := s.blocking.ch
		s.blocking.mu.Unlock()

		if c := cursor.Load(); c >= target {
			return c, nil
		}

		select {
		case <-ch:
		case <-alert:
			return cursor.Load(), errAlerted(target)
		case <-expire:
			return cursor.Load(), ErrWaitExpired
		case <-timer.C:
			return cursor.Load(), ringpoolerrors.New(ringpoolerrors.ErrorTypeTimeout,
				"wait for sequence timed out").
				WithDetail("sequence", target).
				WithDetail("timeout", s.timeout)
		}
	}
}

// SignalAllWhenBlocking implements WaitStrategy.
func (s *TimeoutBlockingStrategy) SignalAllWhenBlocking() {
	s.blocking.SignalAllWhenBlocking()
}

// YieldingStrategy busy-spins a bounded number of times and then yields the
// processor between checks. Lowest latency at the cost of CPU; suited to
// pipelines where a return is almost always imminent.
type YieldingStrategy struct {
	spinTries int
}

// NewYieldingStrategy creates a spin-then-yield wait strategy.
func NewYieldingStrategy() *YieldingStrategy {
	return &YieldingStrategy{spinTries: 100}
}

// WaitFor implements WaitStrategy.
func (s *YieldingStrategy) WaitFor(target int64, cursor *Sequence, alert <-chan struct{}, expire <-chan time.Time) (int64, error) {
	for tries := 0; ; tries++ {
		if c := cursor.Load(); c >= target {
			return c, nil
		}

		select {
		case <-alert:
			return cursor.Load(), errAlerted(target)
		case <-expire:
			return cursor.Load(), ErrWaitExpired
		default:
		}

		if tries >= s.spinTries {
			runtime.Gosched()
		}
	}
}

// SignalAllWhenBlocking implements WaitStrategy; yielding waiters never park,
// so there is nothing to signal.
func (s *YieldingStrategy) SignalAllWhenBlocking() {}

func errAlerted(target int64) error {
	return ringpoolerrors.New(ringpoolerrors.ErrorTypeCancelled,
		"wait cancelled by barrier alert").
		WithDetail("sequence", target)
}
