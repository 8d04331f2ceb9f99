package canvas

import (
	"image"
	"math"

	"fitsview/pkg/geometry"
)

// Viewport maps between widget positions and display image coordinates for
// an image scaled to fit and centered in the widget.
type Viewport struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	Width   int // image columns
	Height  int // image rows
}

// FitViewport returns the viewport of a w x h image inside an area of the
// given size.
func FitViewport(w, h int, areaW, areaH float64) Viewport {
	s := geometry.FitScale(geometry.NewSize(float64(w), float64(h)), geometry.NewSize(areaW, areaH))
	return Viewport{
		Scale:   s,
		OffsetX: (areaW - float64(w)*s) / 2,
		OffsetY: (areaH - float64(h)*s) / 2,
		Width:   w,
		Height:  h,
	}
}

// Rect returns the drawn image area in widget coordinates.
func (v Viewport) Rect() image.Rectangle {
	x0 := int(math.Round(v.OffsetX))
	y0 := int(math.Round(v.OffsetY))
	return image.Rect(x0, y0,
		x0+int(math.Round(float64(v.Width)*v.Scale)),
		y0+int(math.Round(float64(v.Height)*v.Scale)))
}

// ToImage converts a widget position to display image coordinates, top row
// first. Positions outside the image are clamped to its border.
func (v Viewport) ToImage(px, py float64) geometry.Point2D {
	if v.Scale <= 0 || v.Width == 0 || v.Height == 0 {
		return geometry.Point2D{}
	}
	fx := clampUnit((px - v.OffsetX) / (float64(v.Width) * v.Scale))
	fy := clampUnit((py - v.OffsetY) / (float64(v.Height) * v.Scale))
	return geometry.NewPoint2D(fx*float64(v.Width), fy*float64(v.Height))
}

// ToScreen is the inverse of ToImage for points inside the image.
func (v Viewport) ToScreen(p geometry.Point2D) geometry.Point2D {
	return geometry.NewPoint2D(v.OffsetX+p.X*v.Scale, v.OffsetY+p.Y*v.Scale)
}

// ToData converts display image coordinates to data coordinates, whose
// origin is the bottom-left corner.
func (v Viewport) ToData(p geometry.Point2D) geometry.Point2D {
	return geometry.NewPoint2D(p.X, float64(v.Height)-p.Y)
}

func clampUnit(f float64) float64 {
	switch {
	case f < 0 || math.IsNaN(f):
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
