package stencil

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Kind tags the scheduling policy of an Executor.
type Kind int

const (
	// Sequential runs the pass on the calling goroutine in row-major order
	Sequential Kind = iota
	// NaiveParallel hands out rows dynamically to the worker pool
	NaiveParallel
	// TiledParallel hands out square tiles dynamically to the worker pool
	TiledParallel
)

var kindNames = map[Kind]string{
	Sequential:    "sequential",
	NaiveParallel: "naive_parallel",
	TiledParallel: "tiled_parallel",
}

// Kinds lists every strategy in benchmark order.
func Kinds() []Kind {
	return []Kind{Sequential, NaiveParallel, TiledParallel}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the canonical names plus the short forms used by the
// original build variants (seq, v1, v2).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "seq", "sequence":
		return Sequential, nil
	case "naive_parallel", "naive", "parallel_v1", "v1":
		return NaiveParallel, nil
	case "tiled_parallel", "tiled", "parallel_v2", "v2":
		return TiledParallel, nil
	}
	return 0, NewInvalidArgError("ParseKind", fmt.Sprintf("unknown strategy %q", s))
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Strategy applies the stencil kernel to every cell of in, writing out.
// in and out must have the same shape and must not share storage.
type Strategy interface {
	Name() string
	Apply(in, out *Grid) error
}

// Executor is the single Strategy implementation. The Kind selects how cells
// are scheduled; the per-cell arithmetic is always Kernel.Cell.
type Executor struct {
	kind     Kind
	kernel   Kernel
	boundary float32
	tileSize int
	pool     *WorkerPool
	logger   *zap.Logger
}

// NewExecutor builds an executor for opts. Parallel kinds start their worker
// pool immediately; call Close to release it.
func NewExecutor(opts Options) (*Executor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{
		kind:     opts.Strategy,
		kernel:   DefaultKernel,
		boundary: opts.Boundary,
		tileSize: opts.TileSize,
		logger:   opts.logger(),
	}
	if e.kind != Sequential {
		e.pool = NewWorkerPool(opts.Workers)
	}
	e.logger.Debug("executor ready",
		zap.Stringer("strategy", e.kind),
		zap.Int("workers", opts.Workers),
		zap.Int("tile_size", e.tileSize),
		zap.Float32("boundary", e.boundary))
	return e, nil
}

// Name implements Strategy
func (e *Executor) Name() string {
	return e.kind.String()
}

// Kind returns the scheduling policy
func (e *Executor) Kind() Kind {
	return e.kind
}

// Close releases the worker pool, if any.
func (e *Executor) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// Apply implements Strategy.
func (e *Executor) Apply(in, out *Grid) error {
	if in == nil || out == nil {
		return ErrNilGrid
	}
	if !in.SameShape(out) {
		return ErrShapeMismatch
	}
	if in.overlaps(out) {
		return ErrAliasedGrids
	}

	switch e.kind {
	case Sequential:
		e.applySequential(in, out)
		return nil
	case NaiveParallel:
		return e.applyRows(in, out)
	case TiledParallel:
		return e.applyTiles(in, out)
	}
	return NewInvalidArgError("Apply", fmt.Sprintf("unknown strategy %v", e.kind))
}

func (e *Executor) applySequential(in, out *Grid) {
	for r := 0; r < in.rows; r++ {
		e.kernel.row(in, out, r, 0, in.cols, e.boundary)
	}
}

// applyRows gives each worker whole rows. Rows are disjoint in out, so the
// workers never write the same cell.
func (e *Executor) applyRows(in, out *Grid) error {
	return e.pool.ParallelFor(in.rows, func(r int) {
		e.kernel.row(in, out, r, 0, in.cols, e.boundary)
	})
}

// applyTiles numbers tiles in tile-row major order and gives each worker whole
// tiles. Tiles on the bottom and right edges are clipped to the grid.
func (e *Executor) applyTiles(in, out *Grid) error {
	t := e.tileSize
	tileRows := (in.rows + t - 1) / t
	tileCols := (in.cols + t - 1) / t
	return e.pool.ParallelFor(tileRows*tileCols, func(idx int) {
		r0 := (idx / tileCols) * t
		c0 := (idx % tileCols) * t
		r1 := min(r0+t, in.rows)
		c1 := min(c0+t, in.cols)
		for r := r0; r < r1; r++ {
			e.kernel.row(in, out, r, c0, c1, e.boundary)
		}
	})
}
