package stencil

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool manages a fixed set of worker goroutines for pass execution.
// Workers live for the lifetime of the pool so a pass pays no goroutine
// start-up cost.
type WorkerPool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a new worker pool. A non-positive count uses one
// worker per CPU.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		workers: workers,
		tasks:   make(chan func(), workers*2),
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

// Workers returns the pool size
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Submit adds a task to the pool
func (wp *WorkerPool) Submit(task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolClosed
	}
	wp.tasks <- task
	return nil
}

// Close shuts down the worker pool and waits for the workers to exit.
// Closing twice is a no-op.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.tasks)
	wp.mu.Unlock()
	wp.wg.Wait()
}

// ParallelFor runs body(i) for every i in [0, n) on the pool and returns once
// all of them have finished. Indices are handed out one at a time from a
// shared cursor, so a worker that finishes early keeps taking work.
// A panic in body is recovered and reported as an execution error after the
// join.
func (wp *WorkerPool) ParallelFor(n int, body func(i int)) error {
	if n <= 0 {
		return nil
	}

	var (
		next     atomic.Int64
		wg       sync.WaitGroup
		panicMu  sync.Mutex
		panicked any
	)

	run := func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				panicMu.Lock()
				if panicked == nil {
					panicked = r
				}
				panicMu.Unlock()
				// drain the cursor so the other workers stop early
				next.Store(int64(n))
			}
		}()
		for {
			i := int(next.Add(1) - 1)
			if i >= n {
				return
			}
			body(i)
		}
	}

	workers := min(wp.workers, n)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		if err := wp.Submit(run); err != nil {
			// undo the slots of the tasks that never started
			wg.Add(-(workers - w))
			wg.Wait()
			return err
		}
	}
	wg.Wait()

	if panicked != nil {
		return NewExecutionError("ParallelFor", fmt.Sprintf("worker panic: %v", panicked), nil)
	}
	return nil
}
