package stencil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unsafe"
)

// Grid is a dense row-major 2-D field of float32 values. The extents are fixed
// for the lifetime of the grid and len(data) == rows*cols always holds.
type Grid struct {
	rows int
	cols int
	data []float32
}

// NewGrid allocates a zeroed rows x cols grid.
func NewGrid(rows, cols int) (*Grid, error) {
	if err := checkExtents("NewGrid", rows, cols); err != nil {
		return nil, err
	}
	return &Grid{
		rows: rows,
		cols: cols,
		data: make([]float32, rows*cols),
	}, nil
}

// NewGridFrom wraps an existing row-major buffer. The grid takes ownership of
// data; the caller must not keep writing to it.
func NewGridFrom(rows, cols int, data []float32) (*Grid, error) {
	if err := checkExtents("NewGridFrom", rows, cols); err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, NewInvalidArgError("NewGridFrom",
			fmt.Sprintf("buffer holds %d values, want %dx%d=%d", len(data), rows, cols, rows*cols))
	}
	return &Grid{rows: rows, cols: cols, data: data}, nil
}

func checkExtents(op string, rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return NewInvalidArgError(op, fmt.Sprintf("extents must be positive, got %dx%d", rows, cols))
	}
	// rows*cols must neither overflow nor exceed the allocation ceiling
	if rows > MaxGridCells/cols {
		return NewAllocationError(op,
			fmt.Sprintf("%dx%d grid exceeds the %d cell limit", rows, cols, MaxGridCells))
	}
	return nil
}

// Rows returns the number of rows
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns
func (g *Grid) Cols() int { return g.cols }

// Len returns rows*cols
func (g *Grid) Len() int { return len(g.data) }

// Data exposes the backing row-major buffer.
func (g *Grid) Data() []float32 { return g.data }

// Row returns row r as a slice sharing the grid's storage.
func (g *Grid) Row(r int) []float32 {
	if r < 0 || r >= g.rows {
		panic(fmt.Sprintf("stencil: row %d out of range [0,%d)", r, g.rows))
	}
	return g.data[r*g.cols : (r+1)*g.cols]
}

// InBounds reports whether (r, c) lies inside the grid.
func (g *Grid) InBounds(r, c int) bool {
	return r >= 0 && r < g.rows && c >= 0 && c < g.cols
}

// At returns the value at (r, c). It panics when the cell is out of range.
func (g *Grid) At(r, c int) float32 {
	if !g.InBounds(r, c) {
		panic(fmt.Sprintf("stencil: cell (%d,%d) out of range %dx%d", r, c, g.rows, g.cols))
	}
	return g.data[r*g.cols+c]
}

// Set stores v at (r, c). It panics when the cell is out of range.
func (g *Grid) Set(r, c int, v float32) {
	if !g.InBounds(r, c) {
		panic(fmt.Sprintf("stencil: cell (%d,%d) out of range %dx%d", r, c, g.rows, g.cols))
	}
	g.data[r*g.cols+c] = v
}

// Fill sets every cell to v.
func (g *Grid) Fill(v float32) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Zero clears the grid.
func (g *Grid) Zero() {
	clear(g.data)
}

// Clone returns a deep copy with its own storage.
func (g *Grid) Clone() *Grid {
	data := make([]float32, len(g.data))
	copy(data, g.data)
	return &Grid{rows: g.rows, cols: g.cols, data: data}
}

// SameShape reports whether both grids have identical extents.
func (g *Grid) SameShape(o *Grid) bool {
	return g.rows == o.rows && g.cols == o.cols
}

// Equal reports bit-for-bit equality of shape and contents.
func (g *Grid) Equal(o *Grid) bool {
	if !g.SameShape(o) {
		return false
	}
	for i, v := range g.data {
		if math.Float32bits(v) != math.Float32bits(o.data[i]) {
			return false
		}
	}
	return true
}

// overlaps reports whether the two grids share any backing memory.
func (g *Grid) overlaps(o *Grid) bool {
	if g == o {
		return true
	}
	if len(g.data) == 0 || len(o.data) == 0 {
		return false
	}
	const size = unsafe.Sizeof(float32(0))
	gStart := uintptr(unsafe.Pointer(unsafe.SliceData(g.data)))
	oStart := uintptr(unsafe.Pointer(unsafe.SliceData(o.data)))
	gEnd := gStart + uintptr(len(g.data))*size
	oEnd := oStart + uintptr(len(o.data))*size
	return gStart < oEnd && oStart < gEnd
}

// Corner formats the top-left n x n window, one row per line, for tracing.
func (g *Grid) Corner(n int) string {
	rows, cols := min(n, g.rows), min(n, g.cols)
	var sb strings.Builder
	buf := make([]byte, 0, 16)
	for r := 0; r < rows; r++ {
		fmt.Fprintf(&sb, "Row %d:", r)
		for c := 0; c < cols; c++ {
			buf = strconv.AppendFloat(buf[:0], float64(g.data[r*g.cols+c]), 'f', 2, 64)
			sb.WriteByte(' ')
			sb.Write(buf)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String implements fmt.Stringer
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d)", g.rows, g.cols)
}
