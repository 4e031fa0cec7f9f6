// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stencil runs an iterative 3x3 stencil over a float32 grid and
// benchmarks three ways of scheduling the same arithmetic:
//
//   - Sequential: one goroutine, row-major order. This is the oracle.
//   - NaiveParallel: rows handed out dynamically to a fixed worker pool.
//   - TiledParallel: square tiles handed out dynamically to the pool.
//
// Every strategy evaluates cells through Kernel.Cell, so results are
// bit-identical. Neighbours outside the grid read as a fixed boundary value
// (30 by default), modelling a Dirichlet edge in a heat diffusion demo.
//
// Example usage:
//
//	exec, _ := stencil.NewExecutor(stencil.DefaultOptions())
//	defer exec.Close()
//
//	a, _ := stencil.NewGrid(rows, cols) // filled from a file
//	b, _ := stencil.NewGrid(rows, cols) // zeroed companion buffer
//
//	drv, _ := stencil.NewDriver(exec, 100)
//	result, stats, err := drv.Run(ctx, a, b)
package stencil
