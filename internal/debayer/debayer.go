// Package debayer reconstructs RGB cubes from mosaiced single-channel sensor
// data.
package debayer

import (
	"fmt"
	stdimage "image"
	"strings"

	"gocv.io/x/gocv"

	"fitsview/internal/image"
)

// PatternGBRG is the only supported mosaic: GB on even rows, RG on odd rows.
const PatternGBRG = "GBRG"

// UnsupportedPatternError is returned for any Bayer pattern other than GBRG.
type UnsupportedPatternError struct {
	Pattern string
}

func (e *UnsupportedPatternError) Error() string {
	return fmt.Sprintf("unsupported Bayer pattern %q", e.Pattern)
}

// PatternFromHeader returns the Bayer pattern declared by BAYERPAT, or
// COLORTYP if BAYERPAT is absent.
func PatternFromHeader(h image.Header) (string, bool) {
	if p, ok := h.String("BAYERPAT"); ok {
		return p, true
	}
	if h.Has("BAYERPAT") {
		return "", true
	}
	if p, ok := h.String("COLORTYP"); ok {
		return p, true
	}
	return "", h.Has("COLORTYP")
}

// Debayer splits a mono mosaic into half-resolution R, G and B planes and
// scales each back to the full image size with nearest-neighbor sampling.
// G is the mean of the two green sites of each 2x2 block.
func Debayer(raw *image.Raw, pattern string) (*image.Raw, error) {
	if p := strings.TrimSpace(pattern); p != PatternGBRG {
		return nil, &UnsupportedPatternError{Pattern: p}
	}
	if raw.Channels() != 1 {
		return nil, &image.InvalidShapeError{Shape: raw.Shape(), Reason: "debayering needs a 2-D image"}
	}
	if raw.Rows < 2 || raw.Cols < 2 {
		return nil, &image.InvalidShapeError{Shape: raw.Shape(), Reason: "image too small to debayer"}
	}

	hr, hc := raw.Rows/2, raw.Cols/2
	src := raw.Planes[0]
	r := make([]float64, hr*hc)
	g := make([]float64, hr*hc)
	b := make([]float64, hr*hc)
	for y := 0; y < hr; y++ {
		even := src[2*y*raw.Cols:]
		odd := src[(2*y+1)*raw.Cols:]
		for x := 0; x < hc; x++ {
			i := y*hc + x
			r[i] = odd[2*x]
			b[i] = even[2*x+1]
			g[i] = (even[2*x] + odd[2*x+1]) / 2
		}
	}

	planes := make([][]float64, 3)
	for c, half := range [][]float64{r, g, b} {
		full, err := upsample(half, hr, hc, raw.Rows, raw.Cols)
		if err != nil {
			return nil, fmt.Errorf("failed to upsample channel %d: %w", c, err)
		}
		planes[c] = full
	}
	return image.NewCube(raw.Rows, raw.Cols, planes[0], planes[1], planes[2])
}

func upsample(plane []float64, rows, cols, outRows, outCols int) ([]float64, error) {
	src := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)
	defer src.Close()
	data, err := src.DataPtrFloat64()
	if err != nil {
		return nil, err
	}
	copy(data, plane)

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, stdimage.Pt(outCols, outRows), 0, 0, gocv.InterpolationNearestNeighbor)

	out, err := dst.DataPtrFloat64()
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), out...), nil
}
