// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LynnColeArt/stencil"
	"github.com/LynnColeArt/stencil/matrixio"
)

func (a *app) newCompareCmd() *cobra.Command {
	var tol float64
	cmd := &cobra.Command{
		Use:   "compare <a.csv> <b.csv>",
		Short: "Compare two grid files value by value",
		Long: `Loads both files, sized from their contents, and reports how many values
differ by more than --tol, the first few mismatches and both checksums.
Exits non-zero when the grids differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tol < 0 {
				return stencil.NewInvalidArgError("compare", fmt.Sprintf("tolerance must not be negative, got %g", tol))
			}
			ga, gb, err := loadPair(args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			c := stencil.CompareGrids(ga, gb, tol)
			fmt.Fprintf(out, "%s: %dx%d\n", args[0], ga.Rows(), ga.Cols())
			fmt.Fprintf(out, "%s: %dx%d\n", args[1], gb.Rows(), gb.Cols())
			fmt.Fprintln(out, c)
			for _, m := range c.First {
				fmt.Fprintf(out, "  (%d,%d): %.6f vs %.6f (diff %.3g)\n", m.Row, m.Col, m.A, m.B, m.Diff)
			}
			if !c.ShapeMismatch {
				fmt.Fprintf(out, "checksum: %.4f vs %.4f\n", c.ChecksumA, c.ChecksumB)
			}
			if !c.Match() {
				return stencil.NewExecutionError("compare", "grids differ", nil)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&tol, "tol", 1e-6, "absolute tolerance per value")
	return cmd
}

// loadPair reads two grid files concurrently.
func loadPair(pathA, pathB string) (a, b *stencil.Grid, err error) {
	var g errgroup.Group
	g.Go(func() error {
		var err error
		a, err = matrixio.LoadShaped(pathA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = matrixio.LoadShaped(pathB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
