// Package ringpool provides a fixed-capacity, lock-free object pool modeled
// on a single-writer ring buffer: one claimant goroutine borrows pre-built
// objects while any number of returner goroutines hand them back, with all
// coordination done through atomic sequence counters.
//
// # Architecture
//
// The pool is split into two layers:
//
// 1. pkg/ringbuf holds the coordination machinery: padded atomic sequences,
// a power-of-two ring with per-slot availability sequences, pluggable wait
// strategies, and a sequence barrier with external alerting.
//
// 2. pkg/objpool composes those pieces into the pool itself: pre-fill at
// construction, a single-claimant Borrow path, a multi-returner publish path,
// and two exhaustion policies (block on a wait strategy, or allocate a fresh
// object and accept the garbage).
//
// # Quick Start
//
//	type Frame struct {
//	    pool *objpool.Pool[*Frame]
//	    data []byte
//	}
//
//	func (f *Frame) ReturnToPool() error { return f.pool.ReturnObject(f) }
//
//	pool, err := objpool.New(1024, func(p *objpool.Pool[*Frame]) *Frame {
//	    return &Frame{pool: p, data: make([]byte, 0, 1500)}
//	})
//	if err != nil {
//	    return err
//	}
//	frame, err := pool.Borrow()
//	if err != nil {
//	    return err
//	}
//	// ... use frame, then on any goroutine:
//	frame.ReturnToPool()
//
// # Key Packages
//
//	pkg/objpool        - The object pool: Borrow, ReturnObject, policies
//	pkg/ringbuf        - Sequences, ring storage, wait strategies, barrier
//	pkg/ringpoolerrors - Structured error handling with typed categories
//	pkg/metrics        - Prometheus collectors sampling pool counters
//	pkg/logger         - Structured logging
//	pkg/config         - Configuration for the poolbench harness
//	cmd/poolbench      - Load-generation harness exercising a pool end to end
//
// Environment variables are supported in config files with ${VAR_NAME}
// syntax.
package ringpool
