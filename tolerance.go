// Package stencil tolerance-based verification for floating-point comparisons
package stencil

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxReportedMismatches caps the mismatch list kept by CompareGrids
const MaxReportedMismatches = 5

// Float32ULPDiff computes the difference in ULPs between two float32 values
func Float32ULPDiff(a, b float32) int {
	aBits := math.Float32bits(a)
	bBits := math.Float32bits(b)

	if aBits == bBits {
		return 0
	}
	// Different signs, can't use simple subtraction
	if (aBits^bBits)&0x80000000 != 0 {
		return math.MaxInt32
	}

	if aBits > bBits {
		return int(aBits - bBits)
	}
	return int(bBits - aBits)
}

// Mismatch is one cell that differs by more than the tolerance
type Mismatch struct {
	Row, Col int
	A, B     float32
	Diff     float64
}

// Comparison summarises a positional grid comparison
type Comparison struct {
	Rows, Cols    int
	Tolerance     float64
	Mismatches    int
	First         []Mismatch
	MaxAbsDiff    float64
	MaxULPDiff    int
	ChecksumA     float64
	ChecksumB     float64
	BitIdentical  bool
	ShapeMismatch bool
}

// Match reports whether every cell is within tolerance
func (c *Comparison) Match() bool {
	return !c.ShapeMismatch && c.Mismatches == 0
}

// String formats the comparison for display
func (c *Comparison) String() string {
	if c.ShapeMismatch {
		return "FAIL: grid dimensions differ"
	}
	if c.Mismatches == 0 {
		return fmt.Sprintf("PASS: %dx%d values match within %g (max diff %.3g, %d ULP)",
			c.Rows, c.Cols, c.Tolerance, c.MaxAbsDiff, c.MaxULPDiff)
	}
	rate := float64(c.Mismatches) / float64(c.Rows*c.Cols) * 100
	return fmt.Sprintf("FAIL: %d/%d values differ by more than %g (%.2f%%), max diff %.6g",
		c.Mismatches, c.Rows*c.Cols, c.Tolerance, rate, c.MaxAbsDiff)
}

// CompareGrids compares a and b cell by cell. Cells with |a-b| > tol count as
// mismatches; the first few are kept for reporting.
func CompareGrids(a, b *Grid, tol float64) *Comparison {
	cmp := &Comparison{Rows: a.rows, Cols: a.cols, Tolerance: tol}
	if !a.SameShape(b) {
		cmp.ShapeMismatch = true
		return cmp
	}

	av, bv := widen(a.data), widen(b.data)
	cmp.ChecksumA = floats.Sum(av)
	cmp.ChecksumB = floats.Sum(bv)
	cmp.BitIdentical = a.Equal(b)
	if cmp.BitIdentical {
		return cmp
	}

	for i := range av {
		diff := math.Abs(av[i] - bv[i])
		if diff > cmp.MaxAbsDiff {
			cmp.MaxAbsDiff = diff
		}
		if ulp := Float32ULPDiff(a.data[i], b.data[i]); ulp > cmp.MaxULPDiff {
			cmp.MaxULPDiff = ulp
		}
		if diff > tol {
			cmp.Mismatches++
			if len(cmp.First) < MaxReportedMismatches {
				cmp.First = append(cmp.First, Mismatch{
					Row: i / a.cols, Col: i % a.cols,
					A: a.data[i], B: b.data[i],
					Diff: diff,
				})
			}
		}
	}
	return cmp
}

// Summary holds descriptive statistics of a grid
type Summary struct {
	Checksum float64
	Min, Max float64
	Mean     float64
	StdDev   float64
}

// Summarize computes checksum and spread of a grid
func Summarize(g *Grid) Summary {
	v := widen(g.data)
	mean, std := stat.MeanStdDev(v, nil)
	return Summary{
		Checksum: floats.Sum(v),
		Min:      floats.Min(v),
		Max:      floats.Max(v),
		Mean:     mean,
		StdDev:   std,
	}
}

func widen(src []float32) []float64 {
	dst := make([]float64, len(src))
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}
