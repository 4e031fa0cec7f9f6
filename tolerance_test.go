package stencil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat32ULPDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b float32
		want int
	}{
		{"equal", 1.5, 1.5, 0},
		{"adjacent", 1, math.Nextafter32(1, 2), 1},
		{"reversed", math.Nextafter32(1, 2), 1, 1},
		{"signed zeros", 0, float32(math.Copysign(0, -1)), math.MaxInt32},
		{"opposite signs", -1, 1, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Float32ULPDiff(tt.a, tt.b); got != tt.want {
				t.Errorf("Float32ULPDiff(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareGridsIdentical(t *testing.T) {
	a := RandomGridOrFail(t, 6, 9, 2)
	cmp := CompareGrids(a, a.Clone(), 1e-6)
	assert.True(t, cmp.Match())
	assert.True(t, cmp.BitIdentical)
	assert.Equal(t, cmp.ChecksumA, cmp.ChecksumB)
	assert.Contains(t, cmp.String(), "PASS")
}

func TestCompareGridsReportsMismatches(t *testing.T) {
	a := NewGridOrFail(t, 4, 4)
	b := a.Clone()
	for i := 0; i < 7; i++ {
		b.Set(i/4, i%4, 1)
	}
	b.Set(3, 3, 1e-7)

	cmp := CompareGrids(a, b, 1e-6)
	assert.False(t, cmp.Match())
	assert.False(t, cmp.BitIdentical)
	assert.Equal(t, 7, cmp.Mismatches)
	require.Len(t, cmp.First, MaxReportedMismatches)
	assert.Equal(t, Mismatch{Row: 0, Col: 0, A: 0, B: 1, Diff: 1}, cmp.First[0])
	assert.Equal(t, 1, cmp.First[4].Row)
	assert.InDelta(t, 1.0, cmp.MaxAbsDiff, 1e-12)
	assert.InDelta(t, 7.0, cmp.ChecksumB, 1e-6)
	assert.Contains(t, cmp.String(), "FAIL: 7/16")
}

func TestCompareGridsShape(t *testing.T) {
	cmp := CompareGrids(NewGridOrFail(t, 2, 3), NewGridOrFail(t, 3, 2), 1)
	assert.True(t, cmp.ShapeMismatch)
	assert.False(t, cmp.Match())
	assert.Equal(t, "FAIL: grid dimensions differ", cmp.String())
}

func TestSummarize(t *testing.T) {
	g, err := NewGridFrom(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	s := Summarize(g)
	assert.Equal(t, 10.0, s.Checksum)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2.5, s.Mean)
	assert.InDelta(t, 1.2909944, s.StdDev, 1e-6)
}
