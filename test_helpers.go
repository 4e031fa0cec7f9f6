package stencil

import (
	"math/rand"
	"testing"
)

// NewGridOrFail allocates a grid and fails the test if unsuccessful
func NewGridOrFail(t testing.TB, rows, cols int) *Grid {
	t.Helper()
	g, err := NewGrid(rows, cols)
	if err != nil {
		t.Fatalf("Failed to allocate %dx%d grid: %v", rows, cols, err)
	}
	return g
}

// RandomGridOrFail returns a grid of values in [0, 100) from a fixed seed
func RandomGridOrFail(t testing.TB, rows, cols int, seed int64) *Grid {
	t.Helper()
	g := NewGridOrFail(t, rows, cols)
	rng := rand.New(rand.NewSource(seed))
	for i := range g.data {
		g.data[i] = rng.Float32() * 100
	}
	return g
}

// ExecutorOrFail builds an executor, fails the test on error and closes it
// when the test ends
func ExecutorOrFail(t testing.TB, opts Options) *Executor {
	t.Helper()
	e, err := NewExecutor(opts)
	if err != nil {
		t.Fatalf("NewExecutor(%v) failed: %v", opts.Strategy, err)
	}
	t.Cleanup(e.Close)
	return e
}

// ApplyOrFail runs a single pass and fails the test on error
func ApplyOrFail(t testing.TB, s Strategy, in, out *Grid) {
	t.Helper()
	if err := s.Apply(in, out); err != nil {
		t.Fatalf("%s Apply failed: %v", s.Name(), err)
	}
}
