package objpool_test

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ringforge/ringpool/pkg/objpool"
)

type frame struct {
	pool *objpool.Pool[*frame]
	data []byte
}

func (f *frame) ReturnToPool() error {
	f.data = f.data[:0]
	return f.pool.ReturnObject(f)
}

func Example() {
	pool, err := objpool.New(4, func(p *objpool.Pool[*frame]) *frame {
		return &frame{pool: p, data: make([]byte, 0, 1500)}
	}, objpool.WithLogger[*frame](zap.NewNop()))
	if err != nil {
		panic(err)
	}

	f, err := pool.Borrow()
	if err != nil {
		panic(err)
	}
	f.data = append(f.data, "payload"...)
	fmt.Println(string(f.data))

	if err := f.ReturnToPool(); err != nil {
		panic(err)
	}
	fmt.Println(pool.Remaining())

	// Output:
	// payload
	// 0
}
