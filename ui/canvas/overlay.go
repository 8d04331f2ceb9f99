package canvas

import (
	"image/color"

	"fitsview/pkg/colorutil"
)

// Compass geometry in widget pixels.
const (
	compassOrigin   = 50
	compassLength   = 30
	compassTextDist = 40
	centerMarkSize  = 10
)

// Overlays selects what is drawn on top of the image.
type Overlays struct {
	CenterMarkVisible bool
	CenterMarkColor   color.RGBA
	DirectionsVisible bool
	DirectionsColor   color.RGBA
}

// DefaultOverlays returns the compass shown in red and the center mark hidden.
func DefaultOverlays() Overlays {
	return Overlays{
		CenterMarkVisible: false,
		CenterMarkColor:   colorutil.Lime,
		DirectionsVisible: true,
		DirectionsColor:   colorutil.Red,
	}
}
