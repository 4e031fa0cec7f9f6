// Package stencil configuration constants
package stencil

import (
	"fmt"

	"go.uber.org/zap"
)

// Cache sizes for different levels (in bytes)
const (
	// L1 cache size per core (typical for modern CPUs)
	L1CacheSize = 32 * 1024 // 32KB

	// L2 cache size per core (typical for modern CPUs)
	L2CacheSize = 256 * 1024 // 256KB
)

// Execution defaults
const (
	// DefaultTileSize is the edge length of a square tile for the tiled strategy.
	// 128x128 float32 is 64KB per tile, two rows of tiles stay resident in L2.
	DefaultTileSize = 128

	// DefaultWorkers is the worker pool size for the parallel strategies
	DefaultWorkers = 4

	// DefaultIterations is the pass count used when none is configured
	DefaultIterations = 100

	// DefaultBoundary is the sentinel substituted for out-of-grid neighbours,
	// a fixed-temperature (Dirichlet) edge for the heat diffusion demo.
	DefaultBoundary float32 = 30

	// MaxGridCells bounds a single grid allocation (4 GiB of float32)
	MaxGridCells = 1 << 30

	// TraceCorner is the edge of the top-left window logged by the debug trace
	TraceCorner = 10

	// ColdCacheBytes is touched by FlushCaches, well above common L3 sizes
	ColdCacheBytes = 64 * 1024 * 1024
)

// Default file locations
const (
	DefaultInputPath  = "input/heat_matrix.csv"
	DefaultOutputPath = "output/output.csv"
	DefaultFlagPath   = "iteration_ready.flag"
)

// Options selects the execution strategy and its tuning. It is fixed once an
// Executor is built.
type Options struct {
	Strategy   Kind
	TileSize   int
	Workers    int
	DebugTrace bool
	Boundary   float32

	// ColdCache flushes the CPU caches before each strategy in
	// BenchmarkStrategies. Single runs ignore it.
	ColdCache bool

	Logger *zap.Logger
}

// DefaultOptions returns the tiled strategy with the default tuning
func DefaultOptions() Options {
	return Options{
		Strategy: TiledParallel,
		TileSize: DefaultTileSize,
		Workers:  DefaultWorkers,
		Boundary: DefaultBoundary,
	}
}

// Validate checks option ranges
func (o *Options) Validate() error {
	switch o.Strategy {
	case Sequential, NaiveParallel, TiledParallel:
	default:
		return NewInvalidArgError("Options", fmt.Sprintf("unknown strategy %d", int(o.Strategy)))
	}
	if o.Workers <= 0 {
		return NewInvalidArgError("Options", fmt.Sprintf("workers must be positive, got %d", o.Workers))
	}
	if o.Strategy == TiledParallel && o.TileSize <= 0 {
		return NewInvalidArgError("Options", fmt.Sprintf("tile size must be positive, got %d", o.TileSize))
	}
	return nil
}

func (o *Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
