// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Floor returns the integer pixel containing the point.
func (p Point2D) Floor() PointInt {
	return PointInt{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RectInt represents a rectangle with integer coordinates.
// X/Y is the lowest column/row, Width/Height extend in the positive direction.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectInt creates a RectInt from its half-open column and row ranges.
func NewRectInt(x0, x1, y0, y1 int) RectInt {
	return RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// CenteredSquare returns the square of side 2*radius+1 centered on p.
func CenteredSquare(p PointInt, radius int) RectInt {
	return RectInt{
		X:      p.X - radius,
		Y:      p.Y - radius,
		Width:  2*radius + 1,
		Height: 2*radius + 1,
	}
}

// Empty reports whether the rectangle covers no pixels.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns the number of pixels covered, 0 for empty rectangles.
func (r RectInt) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Contains returns true if the pixel is inside the rectangle.
func (r RectInt) Contains(p PointInt) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Intersect returns the overlap of both rectangles. The result may be empty.
func (r RectInt) Intersect(other RectInt) RectInt {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.X+r.Width, other.X+other.Width)
	y1 := min(r.Y+r.Height, other.Y+other.Height)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return NewRectInt(x0, x1, y0, y1)
}

// Size represents dimensions.
type Size struct {
	Width  float64
	Height float64
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// FitScale returns the largest uniform scale that makes content fit inside bounds,
// keeping the aspect ratio.
func FitScale(content, bounds Size) float64 {
	if content.Width <= 0 || content.Height <= 0 {
		return 1
	}
	return math.Min(bounds.Width/content.Width, bounds.Height/content.Height)
}
