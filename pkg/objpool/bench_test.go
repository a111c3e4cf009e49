package objpool_test

import (
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/ringforge/ringpool/pkg/objpool"
	"github.com/ringforge/ringpool/pkg/ringbuf"
)

func benchPool(b *testing.B, capacity int, opts ...objpool.Option[*widget]) *objpool.Pool[*widget] {
	b.Helper()
	var counter atomic.Int64
	opts = append(opts, objpool.WithLogger[*widget](zap.NewNop()))
	p, err := objpool.New(capacity, widgetFactory(&counter), opts...)
	if err != nil {
		b.Fatal(err)
	}
	return p
}

func BenchmarkBorrowReturn(b *testing.B) {
	p := benchPool(b, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := p.Borrow()
		if err != nil {
			b.Fatal(err)
		}
		if err := w.ReturnToPool(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBorrowReturn_Yielding(b *testing.B) {
	p := benchPool(b, 1024,
		objpool.WithWaitStrategy[*widget](ringbuf.NewYieldingStrategy()))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := p.Borrow()
		if err != nil {
			b.Fatal(err)
		}
		if err := w.ReturnToPool(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBorrowReturn_AllocateOnEmpty(b *testing.B) {
	p := benchPool(b, 1024, objpool.WithAllocateOnEmpty[*widget]())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := p.Borrow()
		if err != nil {
			b.Fatal(err)
		}
		if err := w.ReturnToPool(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkBorrowAsyncReturn measures the claimant's throughput when returns
// happen on a separate goroutine, the intended production shape.
func BenchmarkBorrowAsyncReturn(b *testing.B) {
	p := benchPool(b, 1024)

	queue := make(chan *widget, 1024)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for w := range queue {
			_ = w.ReturnToPool()
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := p.Borrow()
		if err != nil {
			b.Fatal(err)
		}
		queue <- w
	}
	b.StopTimer()
	close(queue)
	<-done
}
