// Package matrixio reads and writes grids as comma separated text, one grid
// row per line.
package matrixio

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/LynnColeArt/stencil"
)

// Load allocates a zeroed rows x cols grid and fills it from the file at path.
func Load(path string, rows, cols int) (*stencil.Grid, error) {
	g, err := stencil.NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	if err := LoadInto(path, g); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadInto fills an existing grid from the file at path. See Decode for the
// parsing rules.
func LoadInto(path string, g *stencil.Grid) error {
	f, err := os.Open(path)
	if err != nil {
		return stencil.NewIOError("Load", "cannot open "+path, err)
	}
	defer f.Close()
	return Decode(f, g)
}

// Decode reads at most g.Rows() lines and at most g.Cols() values per line
// into g. Anything beyond the declared extents is ignored. Empty fields are
// skipped, and a field is read like C atof: the longest numeric prefix counts
// and a field without one reads as 0. Cells past the end of a short line or
// past the last line keep their previous value.
func Decode(r io.Reader, g *stencil.Grid) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for row := 0; row < g.Rows(); row++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return stencil.NewIOError("Decode", "read failed at line "+strconv.Itoa(row+1), err)
		}
		if line == "" && err != nil {
			return nil
		}
		decodeLine(line, g.Row(row))
		if err != nil {
			return nil
		}
	}
	return nil
}

// Shape reports the extents of a grid file: the number of non-blank lines
// and the number of non-empty fields on the first of them.
func Shape(r io.Reader) (rows, cols int, err error) {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, 0, stencil.NewIOError("Shape", "read failed", err)
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if rows == 0 {
				for _, tok := range strings.Split(trimmed, ",") {
					if tok != "" {
						cols++
					}
				}
			}
			rows++
		}
		if err != nil {
			break
		}
	}
	if rows == 0 || cols == 0 {
		return 0, 0, stencil.NewInvalidArgError("Shape", "no grid data")
	}
	return rows, cols, nil
}

// LoadShaped loads the file at path into a grid sized by Shape.
func LoadShaped(path string) (*stencil.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, stencil.NewIOError("Load", "cannot open "+path, err)
	}
	defer f.Close()

	rows, cols, err := Shape(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, stencil.NewIOError("Load", "cannot rewind "+path, err)
	}
	g, err := stencil.NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	if err := Decode(f, g); err != nil {
		return nil, err
	}
	return g, nil
}

func decodeLine(line string, dst []float32) {
	col := 0
	for _, tok := range strings.Split(strings.TrimRight(line, "\r\n"), ",") {
		if col >= len(dst) {
			return
		}
		if tok == "" {
			continue
		}
		dst[col] = parseValue(tok)
		col++
	}
}

func parseValue(tok string) float32 {
	tok = strings.TrimSpace(tok)
	if v, err := strconv.ParseFloat(tok, 32); err == nil || errors.Is(err, strconv.ErrRange) {
		return float32(v)
	}
	end := numericPrefix(tok)
	if end == 0 {
		return 0
	}
	v, _ := strconv.ParseFloat(tok[:end], 32)
	return float32(v)
}

// numericPrefix returns the length of the longest leading decimal number.
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Write stores g at path, creating parent directories as needed.
func Write(path string, g *stencil.Grid) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return stencil.NewIOError("Write", "cannot create "+dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return stencil.NewIOError("Write", "cannot create "+path, err)
	}
	if err := Encode(f, g); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return stencil.NewIOError("Write", "cannot close "+path, err)
	}
	return nil
}

// Encode writes one line per row, each value with two decimals, values
// separated by commas and every row terminated by a newline.
func Encode(w io.Writer, g *stencil.Grid) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	buf := make([]byte, 0, 32)
	for r := 0; r < g.Rows(); r++ {
		for c, v := range g.Row(r) {
			buf = buf[:0]
			if c > 0 {
				buf = append(buf, ',')
			}
			buf = strconv.AppendFloat(buf, float64(v), 'f', 2, 64)
			if _, err := bw.Write(buf); err != nil {
				return stencil.NewIOError("Encode", "write failed", err)
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return stencil.NewIOError("Encode", "write failed", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return stencil.NewIOError("Encode", "flush failed", err)
	}
	return nil
}
