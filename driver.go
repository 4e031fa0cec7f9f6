package stencil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the lifecycle of a Driver.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RunStats records the timing of a driver run.
type RunStats struct {
	Strategy   string
	Iterations int
	Passes     []time.Duration
	Total      time.Duration
}

// MeanPass returns the average pass duration.
func (s *RunStats) MeanPass() time.Duration {
	if len(s.Passes) == 0 {
		return 0
	}
	return s.Total / time.Duration(len(s.Passes))
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithNotifier installs a post-pass notifier
func WithNotifier(n Notifier) DriverOption {
	return func(d *Driver) { d.notifier = n }
}

// WithLogger sets the driver logger
func WithLogger(l *zap.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithDebugTrace logs the top-left corner of the output after every pass
func WithDebugTrace(on bool) DriverOption {
	return func(d *Driver) { d.trace = on }
}

// Driver applies a Strategy for a fixed number of passes, alternating two
// buffers between the input and output roles.
type Driver struct {
	strategy   Strategy
	iterations int
	notifier   Notifier
	logger     *zap.Logger
	trace      bool

	mu    sync.Mutex
	state State
	pass  int
}

// NewDriver validates the iteration count and returns a driver in the
// NotStarted state.
func NewDriver(strategy Strategy, iterations int, opts ...DriverOption) (*Driver, error) {
	if strategy == nil {
		return nil, NewInvalidArgError("NewDriver", "nil strategy")
	}
	if iterations <= 0 {
		return nil, NewInvalidArgError("NewDriver",
			fmt.Sprintf("iterations must be positive, got %d", iterations))
	}
	d := &Driver{
		strategy:   strategy,
		iterations: iterations,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// State returns the current lifecycle state and the last finished pass.
func (d *Driver) State() (State, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.pass
}

func (d *Driver) setState(s State, pass int) {
	d.mu.Lock()
	d.state = s
	d.pass = pass
	d.mu.Unlock()
}

// Run performs the passes. Pass k reads one buffer and writes the other; the
// roles are swapped afterwards without copying. The returned grid is the
// buffer holding the most recent output (a or b).
//
// ctx is only consulted between passes: a started pass always finishes. On
// cancellation Run returns the latest complete result together with an
// execution error wrapping ctx.Err().
func (d *Driver) Run(ctx context.Context, a, b *Grid) (*Grid, *RunStats, error) {
	d.mu.Lock()
	if d.state != NotStarted {
		d.mu.Unlock()
		return nil, nil, NewInvalidArgError("Run", fmt.Sprintf("driver is %v", d.state))
	}
	d.state = Running
	d.mu.Unlock()

	stats := &RunStats{
		Strategy:   d.strategy.Name(),
		Iterations: d.iterations,
		Passes:     make([]time.Duration, 0, d.iterations),
	}

	in, out := a, b
	start := time.Now()
	for pass := 1; pass <= d.iterations; pass++ {
		if err := ctx.Err(); err != nil {
			stats.Total = time.Since(start)
			d.setState(Stopped, pass-1)
			d.logger.Info("run stopped", zap.Int("completed_passes", pass-1), zap.Error(err))
			return in, stats, NewExecutionError("Run",
				fmt.Sprintf("stopped after %d of %d passes", pass-1, d.iterations), err)
		}

		passStart := time.Now()
		if err := d.strategy.Apply(in, out); err != nil {
			stats.Total = time.Since(start)
			d.setState(Stopped, pass-1)
			return in, stats, fmt.Errorf("pass %d: %w", pass, err)
		}
		elapsed := time.Since(passStart)
		stats.Passes = append(stats.Passes, elapsed)

		in, out = out, in
		d.setState(Running, pass)

		d.logger.Debug("pass completed",
			zap.String("strategy", stats.Strategy),
			zap.Int("pass", pass),
			zap.Duration("elapsed", elapsed))
		if d.trace {
			d.logger.Debug("pass corner", zap.Int("pass", pass), zap.String("corner", in.Corner(TraceCorner)))
		}
		d.notify(pass)
	}
	stats.Total = time.Since(start)
	d.setState(Completed, d.iterations)

	return in, stats, nil
}

// notify never fails the run: errors and panics from the notifier are logged.
func (d *Driver) notify(pass int) {
	if d.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("pass notifier panicked", zap.Int("pass", pass), zap.Any("panic", r))
		}
	}()
	if err := d.notifier.PassCompleted(pass, d.iterations); err != nil {
		d.logger.Warn("pass notification failed", zap.Int("pass", pass), zap.Error(err))
	}
}
