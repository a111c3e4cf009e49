package ringbuf_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringforge/ringpool/pkg/ringbuf"
)

func TestSequence_InitialValue(t *testing.T) {
	s := ringbuf.NewSequence(ringbuf.InitialSequence)
	assert.Equal(t, int64(-1), s.Load())
}

func TestSequence_StoreLoad(t *testing.T) {
	s := ringbuf.NewSequence(0)
	s.Store(42)
	assert.Equal(t, int64(42), s.Load())
}

func TestSequence_IncrementAndGet(t *testing.T) {
	s := ringbuf.NewSequence(ringbuf.InitialSequence)
	assert.Equal(t, int64(0), s.IncrementAndGet())
	assert.Equal(t, int64(1), s.IncrementAndGet())
	assert.Equal(t, int64(1), s.Load())
}

func TestSequence_CompareAndSwap(t *testing.T) {
	s := ringbuf.NewSequence(5)
	require.True(t, s.CompareAndSwap(5, 6))
	require.False(t, s.CompareAndSwap(5, 7))
	assert.Equal(t, int64(6), s.Load())
}

func TestSequence_ConcurrentIncrement(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 10000

	s := ringbuf.NewSequence(ringbuf.InitialSequence)
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				s.IncrementAndGet()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*perGoroutine-1), s.Load())
}

func TestCounter(t *testing.T) {
	var c ringbuf.Counter
	c.Inc()
	c.Add(4)
	assert.Equal(t, int64(5), c.Load())
	c.Reset()
	assert.Equal(t, int64(0), c.Load())
}
