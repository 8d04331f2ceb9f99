// Package hover answers "what is under the cursor" queries: sky position,
// pixel value, local statistics and a magnified crop.
package hover

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"fitsview/internal/astrometry"
	"fitsview/internal/image"
	"fitsview/internal/pipeline"
	"fitsview/pkg/geometry"
)

// WindowRadius gives a (2*WindowRadius+1) square statistics window.
const WindowRadius = 10

// WindowSize is the side of the statistics window.
const WindowSize = 2*WindowRadius + 1

// WindowStats summarizes the window around the cursor over all channels.
type WindowStats struct {
	Mean float64
	Max  float64
}

// Result is the answer to one query.
type Result struct {
	X, Y       float64              // data coordinates, y = data row
	Pixel      geometry.PointInt    // floor of (X, Y)
	Sky        *astrometry.SkyCoord // nil without WCS or outside the projection
	PixelValue []float64            // empty outside the image
	Stats      *WindowStats         // nil when the window misses the image
	Zoom       *Patch               // nil when the window misses the image
}

// Compute runs a query synchronously against a frame.
func Compute(f *pipeline.Frame, x, y float64) Result {
	pos := geometry.NewPoint2D(x, y)
	px := pos.Floor()
	res := Result{X: x, Y: y, Pixel: px}

	if f.WCS != nil {
		if c, err := f.WCS.PixelToSky(x, y); err == nil {
			res.Sky = &c
		}
	}

	data := f.Data
	if data.InBounds(px.Y, px.X) {
		res.PixelValue = data.At(px.Y, px.X)
	} else {
		res.PixelValue = []float64{}
	}

	window := geometry.CenteredSquare(px, WindowRadius).Intersect(geometry.NewRectInt(0, data.Cols, 0, data.Rows))
	if window.Empty() {
		return res
	}
	res.Stats = windowStats(data, window)
	res.Zoom = newPatch(f, px, window)
	return res
}

func windowStats(data *image.Raw, window geometry.RectInt) *WindowStats {
	values := gather(data, window)
	return &WindowStats{Mean: stat.Mean(values, nil), Max: floats.Max(values)}
}

// gather returns the window's values, channel by channel, row by row.
func gather(data *image.Raw, window geometry.RectInt) []float64 {
	values := make([]float64, 0, window.Area()*data.Channels())
	for _, plane := range data.Planes {
		for row := window.Y; row < window.Y+window.Height; row++ {
			off := row*data.Cols + window.X
			values = append(values, plane[off:off+window.Width]...)
		}
	}
	return values
}
