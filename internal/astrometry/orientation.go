package astrometry

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"fitsview/internal/image"
)

// probeOffset is the pixel distance used to sample the sky direction of each
// image axis.
const probeOffset = 10

// Orientation describes how the image sits on the sky. Both fields are nil
// when the header carries no rotation information.
type Orientation struct {
	PositionAngle *float64 // degrees, [0, 360)
	Mirrored      *bool
}

// Known reports whether any orientation information was found.
func (o Orientation) Known() bool {
	return o.PositionAngle != nil
}

// Resolve derives the orientation of an image with the given shape. When w is
// non-nil the sky is probed around the reference pixel; otherwise, or if the
// probes fail, the CD or PC matrix is read directly.
func Resolve(h image.Header, rows, cols int, w *WCS) Orientation {
	if w != nil {
		if o, ok := probe(h, rows, cols, w); ok {
			return o
		}
	}
	return fromMatrix(h)
}

func probe(h image.Header, rows, cols int, w *WCS) (Orientation, bool) {
	refX, refY := float64(cols)/2, float64(rows)/2
	crpix1, ok1 := h.Float("CRPIX1")
	crpix2, ok2 := h.Float("CRPIX2")
	if ok1 && ok2 {
		refX, refY = crpix1-1, crpix2-1
	}

	ref, err := w.PixelToSky(refX, refY)
	if err != nil {
		return Orientation{}, false
	}
	alongX, err := w.PixelToSky(refX+probeOffset, refY)
	if err != nil {
		return Orientation{}, false
	}
	alongY, err := w.PixelToSky(refX, refY+probeOffset)
	if err != nil {
		return Orientation{}, false
	}

	paY := PositionAngle(ref, alongY)
	paX := PositionAngle(ref, alongX)
	pa := wrap360(-paY)
	mirrored := wrap180(paY-paX) > 0
	return Orientation{PositionAngle: &pa, Mirrored: &mirrored}, true
}

func fromMatrix(h image.Header) Orientation {
	m := matrix(h, "CD", 0)
	if m == nil {
		m = matrix(h, "PC", 1)
	}
	if m == nil {
		return Orientation{}
	}
	pa := math.Atan2(m.At(0, 1), m.At(0, 0)) * 180 / math.Pi
	mirrored := mat.Det(m) < 0
	return Orientation{PositionAngle: &pa, Mirrored: &mirrored}
}

// PositionAngle returns the angle of b as seen from a, measured from north
// through east, in degrees.
func PositionAngle(a, b SkyCoord) float64 {
	ra1, dec1 := a.RA*math.Pi/180, a.Dec*math.Pi/180
	ra2, dec2 := b.RA*math.Pi/180, b.Dec*math.Pi/180
	dra := ra2 - ra1
	y := math.Sin(dra) * math.Cos(dec2)
	x := math.Cos(dec1)*math.Sin(dec2) - math.Sin(dec1)*math.Cos(dec2)*math.Cos(dra)
	return math.Atan2(y, x) * 180 / math.Pi
}
