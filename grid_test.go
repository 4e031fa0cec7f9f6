package stencil

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridValidation(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		check      func(error) bool
	}{
		{"zero rows", 0, 4, IsInvalidArgError},
		{"negative cols", 4, -5, IsInvalidArgError},
		{"over cell limit", MaxGridCells, 2, IsAllocationError},
		{"overflow", math.MaxInt32, math.MaxInt32, IsAllocationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.rows, tt.cols)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, tt.check(err), "unexpected error class: %v", err)
		})
	}
}

func TestNewGridIsZeroed(t *testing.T) {
	g := NewGridOrFail(t, 3, 5)
	assert.Equal(t, 3, g.Rows())
	assert.Equal(t, 5, g.Cols())
	assert.Equal(t, 15, g.Len())
	for _, v := range g.Data() {
		assert.Zero(t, v)
	}
}

func TestNewGridFromLength(t *testing.T) {
	_, err := NewGridFrom(2, 2, make([]float32, 3))
	require.Error(t, err)
	assert.True(t, IsInvalidArgError(err))

	g, err := NewGridFrom(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, float32(3), g.At(1, 0))
}

func TestGridAccessors(t *testing.T) {
	g := NewGridOrFail(t, 2, 3)
	g.Set(1, 2, 7.5)
	assert.Equal(t, float32(7.5), g.At(1, 2))
	assert.Equal(t, []float32{0, 0, 7.5}, g.Row(1))
	assert.True(t, g.InBounds(1, 2))
	assert.False(t, g.InBounds(2, 0))
	assert.False(t, g.InBounds(0, -1))

	assert.Panics(t, func() { g.At(2, 0) })
	assert.Panics(t, func() { g.Set(0, 3, 1) })
	assert.Panics(t, func() { g.Row(-1) })
}

func TestGridCloneIsIndependent(t *testing.T) {
	g := RandomGridOrFail(t, 4, 4, 1)
	c := g.Clone()
	require.True(t, g.Equal(c))
	assert.False(t, g.overlaps(c))

	c.Set(0, 0, -1)
	assert.False(t, g.Equal(c))
}

func TestGridOverlaps(t *testing.T) {
	buf := make([]float32, 8)
	a, err := NewGridFrom(2, 2, buf[:4])
	require.NoError(t, err)
	b, err := NewGridFrom(2, 2, buf[4:])
	require.NoError(t, err)
	c, err := NewGridFrom(2, 2, buf[2:6])
	require.NoError(t, err)

	assert.True(t, a.overlaps(a))
	assert.False(t, a.overlaps(b))
	assert.True(t, a.overlaps(c))
	assert.True(t, c.overlaps(b))
}

func TestGridFillZero(t *testing.T) {
	g := NewGridOrFail(t, 3, 3)
	g.Fill(30)
	for _, v := range g.Data() {
		require.Equal(t, float32(30), v)
	}
	g.Zero()
	for _, v := range g.Data() {
		require.Zero(t, v)
	}
}

func TestGridCorner(t *testing.T) {
	g := NewGridOrFail(t, 12, 12)
	g.Set(0, 1, 1.234)
	corner := g.Corner(TraceCorner)

	lines := strings.Split(strings.TrimSuffix(corner, "\n"), "\n")
	require.Len(t, lines, TraceCorner)
	assert.True(t, strings.HasPrefix(lines[0], "Row 0: 0.00 1.23 0.00"))
	assert.Len(t, strings.Fields(lines[9]), TraceCorner+2)

	small := NewGridOrFail(t, 1, 2)
	assert.Equal(t, "Row 0: 0.00 0.00\n", small.Corner(TraceCorner))
}
