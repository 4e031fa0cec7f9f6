// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command stencil runs the iterative 3x3 heat stencil over a CSV grid.
//
//	stencil <rows> <cols> <iterations> [output_path] [input_path]
//
// Subcommands benchmark the strategies against each other, compare and plot
// result files, and follow the per-pass flag file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LynnColeArt/stencil"
	"github.com/LynnColeArt/stencil/internal/config"
	"github.com/LynnColeArt/stencil/internal/logging"
	"github.com/LynnColeArt/stencil/matrixio"
)

// app carries flag values and the state built in PersistentPreRunE
type app struct {
	configPath string
	strategy   string
	workers    int
	tileSize   int
	debugTrace bool
	flagFile   string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "stencil <rows> <cols> <iterations> [output_path] [input_path]",
		Short: "Iterative 3x3 heat stencil over a CSV grid",
		Long: `Reads a rows x cols grid from input_path, applies the 3x3 heat kernel
iterations times and writes the final grid to output_path.

Cells outside the grid read as the boundary temperature (30 by default).
The strategy is chosen at startup and all strategies give bit-identical
results:
  sequential      one goroutine, row-major
  naive_parallel  rows handed out to a worker pool
  tiled_parallel  square tiles handed out to a worker pool (default)`,
		Args:              cobra.MatchAll(cobra.RangeArgs(3, 5), extentArgs(3)),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runSimulation,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.strategy, "strategy", "", "sequential, naive_parallel or tiled_parallel")
	pf.IntVar(&a.workers, "workers", 0, "worker pool size for the parallel strategies")
	pf.IntVar(&a.tileSize, "tile-size", 0, "tile edge length for tiled_parallel")
	pf.BoolVar(&a.debugTrace, "debug-trace", false, "log the top-left 10x10 corner after every pass")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "console or json")
	root.Flags().StringVar(&a.flagFile, "flag-file", "", "write \"Iteration N completed\" here after every pass")

	root.AddCommand(
		a.newBenchCmd(),
		a.newCompareCmd(),
		a.newPlotCmd(),
		a.newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

// extentArgs checks that the first n arguments are positive integers. It
// runs before any file is touched.
func extentArgs(n int) cobra.PositionalArgs {
	names := []string{"rows", "cols", "iterations"}
	return func(_ *cobra.Command, args []string) error {
		for i := 0; i < n && i < len(args); i++ {
			if _, err := positiveInt(names[i], args[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

func positiveInt(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, stencil.NewInvalidArgError("stencil",
			fmt.Sprintf("%s must be a positive integer, got %q", name, s))
	}
	return v, nil
}

func parseExtents(args []string) (rows, cols, iterations int, err error) {
	if rows, err = positiveInt("rows", args[0]); err != nil {
		return
	}
	if cols, err = positiveInt("cols", args[1]); err != nil {
		return
	}
	iterations, err = positiveInt("iterations", args[2])
	return
}

// setup loads the configuration, applies command line overrides and builds
// the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("strategy") {
		k, err := stencil.ParseKind(a.strategy)
		if err != nil {
			return err
		}
		cfg.Stencil.Strategy = k
	}
	if flags.Changed("workers") {
		cfg.Stencil.Workers = a.workers
	}
	if flags.Changed("tile-size") {
		cfg.Stencil.TileSize = a.tileSize
	}
	if flags.Changed("debug-trace") {
		cfg.Stencil.DebugTrace = a.debugTrace
	}
	if flags.Changed("flag-file") {
		cfg.IO.FlagFile = a.flagFile
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return stencil.NewInvalidArgError("stencil", err.Error())
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) options() stencil.Options {
	opts := a.cfg.Options()
	opts.Logger = a.logger
	return opts
}

func (a *app) runSimulation(cmd *cobra.Command, args []string) error {
	rows, cols, iterations, err := parseExtents(args)
	if err != nil {
		return err
	}
	output, input := a.cfg.IO.Output, a.cfg.IO.Input
	if len(args) > 3 {
		output = args[3]
	}
	if len(args) > 4 {
		input = args[4]
	}

	grid, err := matrixio.Load(input, rows, cols)
	if err != nil {
		return err
	}
	scratch, err := stencil.NewGrid(rows, cols)
	if err != nil {
		return err
	}

	opts := a.options()
	exec, err := stencil.NewExecutor(opts)
	if err != nil {
		return err
	}
	defer exec.Close()

	driverOpts := []stencil.DriverOption{
		stencil.WithLogger(a.logger),
		stencil.WithDebugTrace(opts.DebugTrace),
	}
	if a.cfg.IO.FlagFile != "" {
		driverOpts = append(driverOpts, stencil.WithNotifier(stencil.NewFlagFileNotifier(a.cfg.IO.FlagFile)))
	}
	drv, err := stencil.NewDriver(exec, iterations, driverOpts...)
	if err != nil {
		return err
	}

	a.logger.Info("starting simulation",
		zap.String("strategy", exec.Name()),
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("iterations", iterations),
		zap.String("input", input),
		zap.String("output", output))

	ctx := cmd.Context()
	result, stats, runErr := drv.Run(ctx, grid, scratch)
	if runErr != nil && (ctx.Err() == nil || !errors.Is(runErr, ctx.Err())) {
		return runErr
	}
	if runErr != nil {
		// interrupted between passes: keep the latest complete grid
		a.logger.Warn("simulation stopped early", zap.Int("passes", len(stats.Passes)), zap.Error(runErr))
	}

	if err := matrixio.Write(output, result); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d, %d/%d iterations in %v (mean pass %v), wrote %s\n",
		exec.Name(), rows, cols, len(stats.Passes), iterations,
		stats.Total, stats.MeanPass(), output)
	return runErr
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
