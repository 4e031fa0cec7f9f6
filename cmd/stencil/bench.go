// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LynnColeArt/stencil"
	"github.com/LynnColeArt/stencil/matrixio"
	"github.com/LynnColeArt/stencil/resultdb"
)

type benchFlags struct {
	logDir  string
	dbPath  string
	session string
	seed    int64
	cold    bool
}

func (a *app) newBenchCmd() *cobra.Command {
	f := &benchFlags{}
	cmd := &cobra.Command{
		Use:   "bench <rows> <cols> <iterations> [input_path]",
		Short: "Run every strategy on the same input and compare them",
		Long: `Runs sequential, naive_parallel and tiled_parallel on private copies of
the same input. Sequential is the oracle: the parallel results must be
bit-identical to it. Results are written to a JSON session log and, unless
--db is empty, recorded in the results database.

With --seed the input is a random grid instead of a file.`,
		Args: cobra.MatchAll(cobra.RangeArgs(3, 4), extentArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBench(cmd, args, f)
		},
	}
	cmd.Flags().StringVar(&f.logDir, "log-dir", "", "directory for JSON session logs (default from config)")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "results database path (default from config, empty disables)")
	cmd.Flags().StringVar(&f.session, "session", "stencil_bench", "session name used in the log file name")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "benchmark a random grid from this seed")
	cmd.Flags().BoolVar(&f.cold, "cold-cache", false, "flush CPU caches before each strategy")
	return cmd
}

func (a *app) runBench(cmd *cobra.Command, args []string, f *benchFlags) error {
	rows, cols, iterations, err := parseExtents(args)
	if err != nil {
		return err
	}
	logDir := a.cfg.Bench.LogDir
	if cmd.Flags().Changed("log-dir") {
		logDir = f.logDir
	}
	dbPath := a.cfg.Bench.Database
	if cmd.Flags().Changed("db") {
		dbPath = f.dbPath
	}

	var input *stencil.Grid
	if cmd.Flags().Changed("seed") {
		input, err = randomGrid(rows, cols, f.seed)
	} else {
		path := a.cfg.IO.Input
		if len(args) > 3 {
			path = args[3]
		}
		input, err = matrixio.Load(path, rows, cols)
	}
	if err != nil {
		return err
	}

	opts := a.options()
	opts.ColdCache = a.cfg.Bench.ColdCache
	if cmd.Flags().Changed("cold-cache") {
		opts.ColdCache = f.cold
	}
	ctx := cmd.Context()
	results, runErr := stencil.BenchmarkStrategies(ctx, input, iterations, opts)

	bl, err := stencil.NewBenchmarkLogger(logDir, f.session)
	if err != nil {
		return err
	}
	logged := make([]stencil.BenchmarkResult, 0, len(results))
	for _, r := range results {
		r, err := bl.Log(r)
		if err != nil {
			return err
		}
		logged = append(logged, r)
	}
	a.logger.Info("benchmark session written",
		zap.String("session", bl.SessionID()),
		zap.String("file", bl.SessionFile()))

	if dbPath != "" {
		if err := a.recordSession(cmd, dbPath, f.session, bl, logged); err != nil {
			return err
		}
	}

	stencil.PrintBenchmarkSummary(cmd.OutOrStdout(), logged)
	if runErr != nil {
		return runErr
	}
	for _, r := range logged {
		if r.Status != "pass" {
			return stencil.NewExecutionError("bench", fmt.Sprintf("%s: %s", r.Name, r.Status), nil)
		}
	}
	return nil
}

func (a *app) recordSession(cmd *cobra.Command, dbPath, name string, bl *stencil.BenchmarkLogger, results []stencil.BenchmarkResult) error {
	ctx := cmd.Context()
	db, err := resultdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.RecordSession(ctx, resultdb.Session{
		ID:      bl.SessionID(),
		Name:    name,
		LogFile: bl.SessionFile(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		// look up the previous best before this run joins the table
		best, ok, err := db.FastestRun(ctx, r.Name, r.Rows, r.Cols, r.Iterations)
		if err != nil {
			return err
		}
		if err := db.InsertRun(ctx, r); err != nil {
			return err
		}
		if ok && r.Status == "pass" {
			fmt.Fprintf(out, "%-16s previous best %v (%s)\n", r.Name, best.Duration, best.Timestamp.Format("2006-01-02 15:04"))
		}
	}
	a.logger.Debug("benchmark session recorded", zap.String("db", db.Path()), zap.Int("runs", len(results)))
	return nil
}

func randomGrid(rows, cols int, seed int64) (*stencil.Grid, error) {
	g, err := stencil.NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	data := g.Data()
	for i := range data {
		data[i] = rng.Float32() * 100
	}
	return g, nil
}
