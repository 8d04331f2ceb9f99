package canvas

import (
	"image"
	"image/color"
	"math"

	"fitsview/internal/astrometry"
)

// glyphScale is the pixel size of one font cell.
const glyphScale = 2

// letterPatterns contains 3x5 pixel patterns for the compass labels.
// Each letter is represented as 5 rows of 3 bits.
var letterPatterns = map[rune][5]uint8{
	'E': {0b111, 0b100, 0b110, 0b100, 0b111},
	'N': {0b101, 0b111, 0b111, 0b101, 0b101},
}

// compass holds the widget positions of both direction arrows and labels.
type compass struct {
	North, NorthText image.Point
	East, EastText   image.Point
}

// compassFor returns the arrow geometry for an orientation, and false when
// the position angle or parity is unknown.
func compassFor(o astrometry.Orientation) (compass, bool) {
	if o.PositionAngle == nil || o.Mirrored == nil {
		return compass{}, false
	}
	pa := *o.PositionAngle * math.Pi / 180
	east := pa + math.Pi/2
	if *o.Mirrored {
		east = pa - math.Pi/2
	}
	return compass{
		North:     polar(pa, compassLength),
		NorthText: polar(pa, compassTextDist),
		East:      polar(east, compassLength),
		EastText:  polar(east, compassTextDist),
	}, true
}

// polar returns the point at distance r from the compass origin, with angle
// 0 pointing up and increasing counter-clockwise.
func polar(angle, r float64) image.Point {
	return image.Pt(
		compassOrigin+int(-r*math.Sin(angle)),
		compassOrigin+int(-r*math.Cos(angle)),
	)
}

// drawCompass draws the N and E arrows in the top-left corner.
func drawCompass(output *image.RGBA, o astrometry.Orientation, col color.RGBA) {
	c, ok := compassFor(o)
	if !ok {
		return
	}
	drawLine(output, compassOrigin, compassOrigin, c.North.X, c.North.Y, col, 1)
	drawGlyph(output, 'N', c.NorthText, col)
	drawLine(output, compassOrigin, compassOrigin, c.East.X, c.East.Y, col, 1)
	drawGlyph(output, 'E', c.EastText, col)
}

// drawCenterMark draws a cross at the center of the image area.
func drawCenterMark(output *image.RGBA, area image.Rectangle, col color.RGBA) {
	cx := (area.Min.X + area.Max.X) / 2
	cy := (area.Min.Y + area.Max.Y) / 2
	drawLine(output, cx-centerMarkSize, cy, cx+centerMarkSize, cy, col, 1)
	drawLine(output, cx, cy-centerMarkSize, cx, cy+centerMarkSize, col, 1)
}

// drawGlyph draws a letter centered on the given point.
func drawGlyph(output *image.RGBA, ch rune, center image.Point, col color.RGBA) {
	pattern, ok := letterPatterns[ch]
	if !ok {
		return
	}
	bounds := output.Bounds()
	x0 := center.X - 3*glyphScale/2
	y0 := center.Y - 5*glyphScale/2
	for row := 0; row < 5; row++ {
		for bit := 0; bit < 3; bit++ {
			if pattern[row]&(1<<(2-bit)) == 0 {
				continue
			}
			for dy := 0; dy < glyphScale; dy++ {
				for dx := 0; dx < glyphScale; dx++ {
					p := image.Pt(x0+bit*glyphScale+dx, y0+row*glyphScale+dy)
					if p.In(bounds) {
						output.SetRGBA(p.X, p.Y, col)
					}
				}
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	if dx < 0 {
		dx = -dx
	}
	dy := y2 - y1
	if dy < 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				p := image.Pt(x1+s, y1+t)
				if p.In(bounds) {
					output.SetRGBA(p.X, p.Y, col)
				}
			}
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}
