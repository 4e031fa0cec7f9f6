package stencil

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BenchmarkStrategies runs every kind in Kinds() for the given number of
// iterations on a private copy of input. Sequential runs first and serves as
// the oracle: the other results record whether they are bit-identical to it
// and their speedup over it. Failures are reported in the result instead of
// aborting the session; only context cancellation stops early.
func BenchmarkStrategies(ctx context.Context, input *Grid, iterations int, opts Options) ([]BenchmarkResult, error) {
	if input == nil {
		return nil, ErrNilGrid
	}
	if iterations <= 0 {
		return nil, NewInvalidArgError("BenchmarkStrategies",
			fmt.Sprintf("iterations must be positive, got %d", iterations))
	}
	logger := opts.logger()
	host := DetectHost().String()

	var oracle *Grid
	var baseline float64
	results := make([]BenchmarkResult, 0, len(Kinds()))

	for _, kind := range Kinds() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		o := opts
		o.Strategy = kind
		res := BenchmarkResult{
			Name:       kind.String(),
			Rows:       input.rows,
			Cols:       input.cols,
			Iterations: iterations,
			Host:       host,
		}
		if kind != Sequential {
			res.Workers = o.Workers
		}
		if kind == TiledParallel {
			res.TileSize = o.TileSize
		}

		if o.ColdCache {
			logger.Debug("caches flushed", zap.String("strategy", res.Name), zap.Duration("took", FlushCaches(ColdCacheBytes)))
		}
		out, stats, counters, err := runOnce(ctx, input, iterations, o)
		if err != nil {
			res.Status = "fail"
			res.Error = err.Error()
			logger.Warn("benchmark run failed", zap.String("strategy", res.Name), zap.Error(err))
			results = append(results, res)
			continue
		}

		res.Status = "pass"
		res.Counters = counters
		res.Duration = stats.Total
		res.NsPerCell = float64(stats.Total.Nanoseconds()) / float64(input.Len()*iterations)
		res.Checksum = Summarize(out).Checksum

		if kind == Sequential {
			oracle = out
			baseline = float64(stats.Total)
			res.BitIdentical = true
			res.Speedup = 1
		} else if oracle != nil {
			res.BitIdentical = oracle.Equal(out)
			if !res.BitIdentical {
				res.Status = "mismatch"
				res.Error = CompareGrids(oracle, out, 0).String()
			}
			if stats.Total > 0 {
				res.Speedup = baseline / float64(stats.Total)
			}
		}

		logger.Info("benchmark run",
			zap.String("strategy", res.Name),
			zap.Duration("total", res.Duration),
			zap.Float64("ns_per_cell", res.NsPerCell),
			zap.Float64("speedup", res.Speedup),
			zap.Bool("bit_identical", res.BitIdentical))
		results = append(results, res)
	}
	return results, nil
}

func runOnce(ctx context.Context, input *Grid, iterations int, opts Options) (*Grid, *RunStats, *HWCounters, error) {
	exec, err := NewExecutor(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	defer exec.Close()

	a := input.Clone()
	b, err := NewGrid(input.rows, input.cols)
	if err != nil {
		return nil, nil, nil, err
	}
	drv, err := NewDriver(exec, iterations, WithLogger(opts.Logger))
	if err != nil {
		return nil, nil, nil, err
	}

	// counters only see threads that already exist, so they start after the
	// pool is up
	var counters *HWCounters
	session, cerr := StartCounters()
	if cerr != nil {
		opts.logger().Debug("hardware counters disabled", zap.Error(cerr))
	}
	out, stats, err := drv.Run(ctx, a, b)
	if session != nil {
		c := session.Stop()
		counters = &c
	}
	return out, stats, counters, err
}
