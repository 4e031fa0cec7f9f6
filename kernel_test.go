package stencil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceCell evaluates the stencil in float64 with an explicit neighbour
// list, independent of Kernel.Cell.
func referenceCell(g *Grid, r, c int, boundary float64) float64 {
	weights := [3][3]float64{
		{0.05, 0.10, 0.05},
		{0.10, 0.40, 0.10},
		{0.05, 0.10, 0.05},
	}
	sum := 0.0
	for ki := -1; ki <= 1; ki++ {
		for kj := -1; kj <= 1; kj++ {
			v := boundary
			if g.InBounds(r+ki, c+kj) {
				v = float64(g.At(r+ki, c+kj))
			}
			sum += weights[ki+1][kj+1] * v
		}
	}
	return sum
}

func TestDefaultKernelSumsToOne(t *testing.T) {
	assert.InDelta(t, 1.0, float64(DefaultKernel.Sum()), 1e-6)
}

func TestCellSingleCellGrid(t *testing.T) {
	// all eight neighbours are outside: 0.6*30 + 0.4*x
	for _, x := range []float32{0, 1, 42.5, -7, 1000} {
		g := NewGridOrFail(t, 1, 1)
		g.Set(0, 0, x)
		got := DefaultKernel.Cell(g, 0, 0, DefaultBoundary)
		want := 0.4*float64(x) + 18.0
		assert.InDelta(t, want, float64(got), 1e-4, "x=%v", x)
	}
}

func TestCellCornerUsesSentinel(t *testing.T) {
	g, err := NewGridFrom(3, 3, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	require.NoError(t, err)

	// (0,0): five outside neighbours with weights 0.05+0.1+0.05+0.1+0.05
	want := 0.35*30 + 0.4*1 + 0.1*2 + 0.1*4 + 0.05*5
	assert.InDelta(t, want, float64(DefaultKernel.Cell(g, 0, 0, 30)), 1e-4)

	// centre cell sees no boundary at all
	interior := 0.05*(1+3+7+9) + 0.1*(2+4+6+8) + 0.4*5
	assert.InDelta(t, interior, float64(DefaultKernel.Cell(g, 1, 1, 30)), 1e-4)
	assert.Equal(t, DefaultKernel.Cell(g, 1, 1, 30), DefaultKernel.Cell(g, 1, 1, -999),
		"interior cells must not depend on the boundary value")
}

func TestCellBorderMatchesReference(t *testing.T) {
	g := RandomGridOrFail(t, 5, 7, 3)
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			got := DefaultKernel.Cell(g, r, c, DefaultBoundary)
			assert.InDelta(t, referenceCell(g, r, c, 30), float64(got), 1e-3, "cell (%d,%d)", r, c)
		}
	}
}

func TestCellBoundaryFixedPoint(t *testing.T) {
	// a field already at the boundary temperature does not move
	g := NewGridOrFail(t, 4, 6)
	g.Fill(DefaultBoundary)
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			assert.InDelta(t, 30.0, float64(DefaultKernel.Cell(g, r, c, DefaultBoundary)), 1e-4)
		}
	}

	// with a zero boundary a zero field stays exactly zero
	z := NewGridOrFail(t, 3, 3)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.Zero(t, DefaultKernel.Cell(z, r, c, 0))
		}
	}
}

func TestCellIsDeterministic(t *testing.T) {
	g := RandomGridOrFail(t, 8, 8, 11)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			a := DefaultKernel.Cell(g, r, c, DefaultBoundary)
			b := DefaultKernel.Cell(g, r, c, DefaultBoundary)
			if math.Float32bits(a) != math.Float32bits(b) {
				t.Fatalf("cell (%d,%d) not reproducible: %v vs %v", r, c, a, b)
			}
		}
	}
}
