package stencil

// Kernel is a 3x3 weight matrix indexed [ki+1][kj+1] for offsets ki, kj in {-1,0,1}.
type Kernel [3][3]float32

// DefaultKernel is the heat diffusion weighting. The weights sum to 1, so a
// field equal to the boundary value is a fixed point.
var DefaultKernel = Kernel{
	{0.05, 0.10, 0.05},
	{0.10, 0.40, 0.10},
	{0.05, 0.10, 0.05},
}

// Sum returns the total weight of the kernel.
func (k *Kernel) Sum() float32 {
	var s float32
	for i := range k {
		for j := range k[i] {
			s += k[i][j]
		}
	}
	return s
}

// Cell computes the weighted neighbour sum for (r, c). Neighbours outside
// [0,rows) x [0,cols) read as boundary. Products are rounded to float32 before
// they are accumulated in ki-major order, so every strategy and every
// architecture produces the same bits for the same input.
func (k *Kernel) Cell(in *Grid, r, c int, boundary float32) float32 {
	rows, cols, data := in.rows, in.cols, in.data
	var sum float32
	for ki := -1; ki <= 1; ki++ {
		rr := r + ki
		rowInside := rr >= 0 && rr < rows
		for kj := -1; kj <= 1; kj++ {
			cc := c + kj
			v := boundary
			if rowInside && cc >= 0 && cc < cols {
				v = data[rr*cols+cc]
			}
			sum += float32(v * k[ki+1][kj+1])
		}
	}
	return sum
}

// row computes out cells [c0, c1) of row r.
func (k *Kernel) row(in, out *Grid, r, c0, c1 int, boundary float32) {
	dst := out.data[r*out.cols:]
	for c := c0; c < c1; c++ {
		dst[c] = k.Cell(in, r, c, boundary)
	}
}
