package stencil

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWorkerPoolDefaultsToNumCPU(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()
	assert.Positive(t, pool.Workers())
}

func TestParallelForVisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 16} {
		for _, n := range []int{0, 1, 3, 100, 1001} {
			pool := NewWorkerPool(workers)
			hits := make([]int32, n)
			err := pool.ParallelFor(n, func(i int) {
				atomic.AddInt32(&hits[i], 1)
			})
			pool.Close()

			require.NoError(t, err)
			for i, h := range hits {
				require.Equal(t, int32(1), h, "workers=%d n=%d index %d", workers, n, i)
			}
		}
	}
}

func TestParallelForUsesAllWorkers(t *testing.T) {
	const workers = 4
	pool := NewWorkerPool(workers)
	defer pool.Close()

	// every worker blocks until all of them have taken an index
	var barrier sync.WaitGroup
	barrier.Add(workers)
	err := pool.ParallelFor(workers, func(int) {
		barrier.Done()
		barrier.Wait()
	})
	require.NoError(t, err)
}

func TestParallelForRecoversPanics(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	var ran atomic.Int32
	err := pool.ParallelFor(50, func(i int) {
		ran.Add(1)
		if i == 7 {
			panic("boom")
		}
	})
	require.Error(t, err)
	assert.True(t, IsExecutionError(err))
	assert.Contains(t, err.Error(), "boom")
	assert.LessOrEqual(t, ran.Load(), int32(50))

	// the pool survives a panicking pass
	require.NoError(t, pool.ParallelFor(10, func(int) {}))
}

func TestWorkerPoolClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	assert.ErrorIs(t, pool.Submit(func() {}), ErrPoolClosed)
	assert.ErrorIs(t, pool.ParallelFor(5, func(int) {}), ErrPoolClosed)
}
