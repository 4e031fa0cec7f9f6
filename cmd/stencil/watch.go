// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LynnColeArt/stencil"
)

func (a *app) newWatchCmd() *cobra.Command {
	var until int
	cmd := &cobra.Command{
		Use:   "watch [flag_path]",
		Short: "Follow the per-pass flag file of a running simulation",
		Long: `Prints a line every time a simulation started with --flag-file finishes a
pass. Stops on interrupt, or once pass --until has been seen.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.IO.FlagFile
			if len(args) == 1 {
				path = args[0]
			}
			fw, err := stencil.NewFlagWatcher(path, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("watching flag file", zap.String("path", fw.Path()))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			out := cmd.OutOrStdout()
			return fw.Run(ctx, func(pass int) {
				fmt.Fprintf(out, "Iteration %d ready\n", pass)
				if until > 0 && pass >= until {
					cancel()
				}
			})
		},
	}
	cmd.Flags().IntVar(&until, "until", 0, "exit after this pass has been reported")
	return cmd
}
