package hover

import (
	stdimage "image"
	"image/color"

	"golang.org/x/image/draw"

	"fitsview/internal/colormap"
	"fitsview/internal/image"
	"fitsview/internal/pipeline"
	"fitsview/pkg/colorutil"
	"fitsview/pkg/geometry"
)

// ZoomSize is the default magnified size used by the viewer.
const ZoomSize = 101

// Patch is the normalized window around the cursor, clipped to the image.
type Patch struct {
	Width    int
	Height   int
	Channels int
	Values   [][]float64 // one plane per channel, data row 0 first
	// Left and Top place the patch inside the full WindowSize square as
	// displayed, top row first.
	Left int
	Top  int
	// IsColor patches ignore the palette.
	IsColor bool
}

func newPatch(f *pipeline.Frame, center geometry.PointInt, window geometry.RectInt) *Patch {
	src := f.Trimmed
	p := &Patch{
		Width:    window.Width,
		Height:   window.Height,
		Channels: src.Channels(),
		Values:   make([][]float64, src.Channels()),
		Left:     window.X - (center.X - WindowRadius),
		Top:      (center.Y + WindowRadius) - (window.Y + window.Height - 1),
		IsColor:  src.IsColor(),
	}
	for c, plane := range src.Planes {
		out := make([]float64, 0, window.Area())
		for row := window.Y; row < window.Y+window.Height; row++ {
			off := row*src.Cols + window.X
			out = append(out, plane[off:off+window.Width]...)
		}
		f.Normalizer.ApplySlice(out, out)
		p.Values[c] = out
	}
	return p
}

// Image renders the patch at one pixel per value, top row first.
func (p *Patch) Image(lut colormap.LUT) stdimage.Image {
	return image.Compose(p.Values, p.Height, p.Width).Image(lut)
}

// Magnify scales the patch with nearest-neighbor sampling onto a size x size
// square representing the full window, and outlines the center pixel. Parts
// of the window outside the image stay black.
func (p *Patch) Magnify(lut colormap.LUT, size int) *stdimage.RGBA {
	dst := stdimage.NewRGBA(stdimage.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), stdimage.NewUniform(colorutil.Black), stdimage.Point{}, draw.Src)

	cell := float64(size) / WindowSize
	at := func(n int) int { return int(float64(n) * cell) }
	target := stdimage.Rect(at(p.Left), at(p.Top), at(p.Left+p.Width), at(p.Top+p.Height))
	src := p.Image(lut)
	draw.NearestNeighbor.Scale(dst, target, src, src.Bounds(), draw.Src, nil)

	lo, hi := at(WindowRadius), at(WindowRadius+1)
	outline(dst, stdimage.Rect(lo, lo, hi, hi).Inset(-1), colorutil.White)
	outline(dst, stdimage.Rect(lo, lo, hi, hi).Inset(-2), colorutil.Black)
	return dst
}

// outline draws a 1-pixel rectangle border.
func outline(img *stdimage.RGBA, r stdimage.Rectangle, c color.RGBA) {
	r = r.Canon()
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}
