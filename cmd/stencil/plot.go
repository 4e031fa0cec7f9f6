// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LynnColeArt/stencil"
	"github.com/LynnColeArt/stencil/heatmap"
)

func (a *app) newPlotCmd() *cobra.Command {
	var (
		view   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "plot <input.csv> <output.csv>",
		Short: "Render input and output grids as side by side heat maps",
		Long: `Writes a PNG with the initial and final grids next to each other on a
shared colour scale. --view RxC shows only an R x C window from the centre
of the grid; axis ticks keep the original row and column indices.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var vr, vc int
			if view != "" {
				var err error
				if vr, vc, err = parseView(view); err != nil {
					return err
				}
			}

			in, out, err := loadPair(args[0], args[1])
			if err != nil {
				return err
			}
			if !in.SameShape(out) {
				return stencil.ErrShapeMismatch
			}

			win := heatmap.FullWindow(in)
			if view != "" {
				if win, err = heatmap.CenterWindow(in.Rows(), in.Cols(), vr, vc); err != nil {
					return err
				}
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return stencil.NewIOError("plot", "cannot create "+dir, err)
				}
			}
			f, err := os.Create(output)
			if err != nil {
				return stencil.NewIOError("plot", "cannot create "+output, err)
			}
			if err := heatmap.RenderPair(f, in, out, win); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return stencil.NewIOError("plot", "cannot close "+output, err)
			}

			a.logger.Info("heat map written", zap.String("file", output), zap.Stringer("window", win))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d window: %s)\n", output, win.Rows, win.Cols, win)
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "centre window size as RxC, e.g. 400x400")
	cmd.Flags().StringVarP(&output, "output", "o", "heatmap.png", "PNG file to write")
	return cmd
}

// parseView parses "RxC" into positive extents.
func parseView(s string) (rows, cols int, err error) {
	r, c, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		rows, err = strconv.Atoi(r)
		if err == nil {
			cols, err = strconv.Atoi(c)
		}
	}
	if !ok || err != nil || rows <= 0 || cols <= 0 {
		return 0, 0, stencil.NewInvalidArgError("plot", fmt.Sprintf("view must look like 400x400, got %q", s))
	}
	return rows, cols, nil
}
