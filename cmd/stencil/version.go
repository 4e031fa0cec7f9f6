// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/stencil"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the module version and host capabilities",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version, sum := stencil.Version()
			if version == "" {
				version = "(devel)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stencil %s", version)
			if sum != "" {
				fmt.Fprintf(out, " (%s)", sum)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, stencil.DetectHost())
		},
	}
}
