// Package image provides raw FITS pixel data, header access, loading, and
// display-buffer compositing.
package image

import (
	"fmt"
	"math"
)

// InvalidShapeError reports an array that cannot be displayed: wrong rank, or a
// cube with no axis of length 3.
type InvalidShapeError struct {
	Shape  []int
	Reason string
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("invalid data shape %v: %s", e.Shape, e.Reason)
}

// Raw is an immutable pixel buffer, either mono or a 3-channel cube.
// Planes are stored row-major, one per channel; row 0 is the first FITS row,
// i.e. the bottom of the picture.
type Raw struct {
	Rows     int
	Cols     int
	Planes   [][]float64
	Integer8 bool // source was unsigned 8-bit and is already display-scaled
}

// NewMono wraps a row-major plane. The slice is not copied.
func NewMono(rows, cols int, data []float64) (*Raw, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, &InvalidShapeError{Shape: []int{rows, cols}, Reason: fmt.Sprintf("need %d values, got %d", rows*cols, len(data))}
	}
	return &Raw{Rows: rows, Cols: cols, Planes: [][]float64{data}}, nil
}

// NewCube wraps three row-major planes (R, G, B). The slices are not copied.
func NewCube(rows, cols int, r, g, b []float64) (*Raw, error) {
	n := rows * cols
	if rows <= 0 || cols <= 0 || len(r) != n || len(g) != n || len(b) != n {
		return nil, &InvalidShapeError{Shape: []int{3, rows, cols}, Reason: "plane sizes do not match"}
	}
	return &Raw{Rows: rows, Cols: cols, Planes: [][]float64{r, g, b}}, nil
}

// MonoFromRows builds a mono image from rows given bottom row first.
func MonoFromRows(rows [][]float64) (*Raw, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &InvalidShapeError{Shape: []int{len(rows), 0}, Reason: "empty"}
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		if len(r) != cols {
			return nil, &InvalidShapeError{Shape: []int{len(rows), cols}, Reason: "ragged rows"}
		}
		data = append(data, r...)
	}
	return NewMono(len(rows), cols, data)
}

// FromArray interprets a flat array with the given shape, slowest axis first.
// Accepted shapes are (rows, cols), (3, rows, cols) and (rows, cols, 3); the
// latter is de-interleaved into planes.
func FromArray(shape []int, data []float64) (*Raw, error) {
	total := 1
	for _, s := range shape {
		total *= s
	}
	if total != len(data) || total == 0 {
		return nil, &InvalidShapeError{Shape: shape, Reason: fmt.Sprintf("shape holds %d values, got %d", total, len(data))}
	}

	switch len(shape) {
	case 2:
		return NewMono(shape[0], shape[1], data)
	case 3:
		switch {
		case shape[0] == 3:
			n := shape[1] * shape[2]
			return NewCube(shape[1], shape[2], data[:n], data[n:2*n], data[2*n:])
		case shape[2] == 3:
			rows, cols := shape[0], shape[1]
			n := rows * cols
			planes := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
			for i := 0; i < n; i++ {
				planes[0][i] = data[i*3]
				planes[1][i] = data[i*3+1]
				planes[2][i] = data[i*3+2]
			}
			return NewCube(rows, cols, planes[0], planes[1], planes[2])
		default:
			return nil, &InvalidShapeError{Shape: shape, Reason: "data cubes are only supported with three layers, interpreted as RGB"}
		}
	default:
		return nil, &InvalidShapeError{Shape: shape, Reason: "only 2-D images and 3-D cubes are supported"}
	}
}

// Channels returns 1 for mono images and 3 for cubes.
func (r *Raw) Channels() int {
	return len(r.Planes)
}

// IsColor reports whether the image has three channels.
func (r *Raw) IsColor() bool {
	return len(r.Planes) == 3
}

// Shape returns the logical shape with the channel axis last, matching the
// At accessor.
func (r *Raw) Shape() []int {
	if r.IsColor() {
		return []int{r.Rows, r.Cols, 3}
	}
	return []int{r.Rows, r.Cols}
}

// InBounds reports whether (row, col) is a valid pixel.
func (r *Raw) InBounds(row, col int) bool {
	return row >= 0 && row < r.Rows && col >= 0 && col < r.Cols
}

// At returns one value per channel at (row, col). It panics when out of bounds.
func (r *Raw) At(row, col int) []float64 {
	idx := row*r.Cols + col
	out := make([]float64, len(r.Planes))
	for c, p := range r.Planes {
		out[c] = p[idx]
	}
	return out
}

// Clone returns a deep copy.
func (r *Raw) Clone() *Raw {
	out := &Raw{Rows: r.Rows, Cols: r.Cols, Integer8: r.Integer8, Planes: make([][]float64, len(r.Planes))}
	for i, p := range r.Planes {
		out.Planes[i] = append([]float64(nil), p...)
	}
	return out
}

// Positive returns all finite values > 0 across every channel, unsorted.
func (r *Raw) Positive() []float64 {
	var out []float64
	for _, p := range r.Planes {
		for _, v := range p {
			if v > 0 && !math.IsInf(v, 1) {
				out = append(out, v)
			}
		}
	}
	return out
}
