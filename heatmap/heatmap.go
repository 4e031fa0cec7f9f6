// Package heatmap renders temperature grids as PNG heat maps.
//
// Large grids are usually viewed through a window taken from their centre,
// with axis ticks labelled in the original grid coordinates.
package heatmap

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/LynnColeArt/stencil"
)

// Default image geometry and colour resolution
const (
	DefaultWidth  = 14 * vg.Inch
	DefaultHeight = 6 * vg.Inch
	PaletteSize   = 256
)

// Window is a rectangular region of a grid.
type Window struct {
	RowStart, ColStart int
	Rows, Cols         int
}

// String reports the window in original grid coordinates, inclusive.
func (w Window) String() string {
	return fmt.Sprintf("rows %d to %d, cols %d to %d",
		w.RowStart, w.RowStart+w.Rows-1, w.ColStart, w.ColStart+w.Cols-1)
}

// CenterWindow returns a window of at most targetRows x targetCols centred
// in a rows x cols grid. Targets larger than the grid are clipped.
func CenterWindow(rows, cols, targetRows, targetCols int) (Window, error) {
	if targetRows <= 0 || targetCols <= 0 {
		return Window{}, stencil.NewInvalidArgError("CenterWindow",
			fmt.Sprintf("view size must be positive, got %dx%d", targetRows, targetCols))
	}
	r := min(targetRows, rows)
	c := min(targetCols, cols)
	return Window{
		RowStart: (rows - r) / 2,
		ColStart: (cols - c) / 2,
		Rows:     r,
		Cols:     c,
	}, nil
}

// FullWindow covers all of g.
func FullWindow(g *stencil.Grid) Window {
	return Window{Rows: g.Rows(), Cols: g.Cols()}
}

// View adapts a window of a grid to plotter.GridXYZ. Column c of the view
// is X, row r is Y.
type View struct {
	grid *stencil.Grid
	win  Window
}

var _ plotter.GridXYZ = (*View)(nil)

// NewView returns a view of win within g.
func NewView(g *stencil.Grid, win Window) (*View, error) {
	if g == nil {
		return nil, stencil.ErrNilGrid
	}
	if win.Rows <= 0 || win.Cols <= 0 || win.RowStart < 0 || win.ColStart < 0 ||
		win.RowStart+win.Rows > g.Rows() || win.ColStart+win.Cols > g.Cols() {
		return nil, stencil.NewInvalidArgError("NewView",
			fmt.Sprintf("window %s outside %dx%d grid", win, g.Rows(), g.Cols()))
	}
	return &View{grid: g, win: win}, nil
}

func (v *View) Dims() (c, r int)   { return v.win.Cols, v.win.Rows }
func (v *View) X(c int) float64    { return float64(v.win.ColStart + c) }
func (v *View) Y(r int) float64    { return float64(v.win.RowStart + r) }
func (v *View) Z(c, r int) float64 { return float64(v.grid.At(v.win.RowStart+r, v.win.ColStart+c)) }

// Window returns the viewed region.
func (v *View) Window() Window { return v.win }

// Range returns the smallest and largest value in the view.
func (v *View) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	cols, rows := v.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			z := v.Z(c, r)
			lo = math.Min(lo, z)
			hi = math.Max(hi, z)
		}
	}
	return lo, hi
}

// NewPlot builds a heat map of v coloured over [lo, hi]. Row 0 is drawn at
// the top, as in the CSV file.
func NewPlot(title string, v *View, lo, hi float64) *plot.Plot {
	if !(hi > lo) {
		hi = lo + 1
	}
	h := plotter.NewHeatMap(v, palette.Heat(PaletteSize, 1))
	h.Min, h.Max = lo, hi

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	p.Add(h)
	return p
}

// RenderPair writes a PNG with the input and output grids side by side,
// both viewed through win and sharing one colour range.
func RenderPair(w io.Writer, input, output *stencil.Grid, win Window) error {
	if input == nil || output == nil {
		return stencil.ErrNilGrid
	}
	if !input.SameShape(output) {
		return stencil.ErrShapeMismatch
	}
	in, err := NewView(input, win)
	if err != nil {
		return err
	}
	out, err := NewView(output, win)
	if err != nil {
		return err
	}

	lo, hi := in.Range()
	olo, ohi := out.Range()
	lo, hi = math.Min(lo, olo), math.Max(hi, ohi)

	plots := [][]*plot.Plot{{
		NewPlot("Initial heat map (input)", in, lo, hi),
		NewPlot("Final heat map (output)", out, lo, hi),
	}}

	img := vgimg.New(DefaultWidth, DefaultHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:   1,
		Cols:   2,
		PadX:   vg.Millimeter * 4,
		PadY:   vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j, p := range plots[0] {
		p.Draw(canvases[0][j])
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return stencil.NewIOError("RenderPair", "failed to encode png", err)
	}
	return nil
}

// Save writes a single grid heat map to path. The image format follows the
// file extension.
func Save(path, title string, g *stencil.Grid, win Window) error {
	v, err := NewView(g, win)
	if err != nil {
		return err
	}
	lo, hi := v.Range()
	p := NewPlot(title, v, lo, hi)
	if err := p.Save(DefaultWidth/2, DefaultHeight, path); err != nil {
		return stencil.NewIOError("heatmap.Save", "cannot write "+path, err)
	}
	return nil
}
