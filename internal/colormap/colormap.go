// Package colormap resolves palette names to 256-entry lookup tables and
// renders colorbars that match the current normalization.
package colormap

import (
	"errors"
	"fmt"
	stdimage "image"
	"image/color"
	"slices"

	"gocv.io/x/gocv"

	"fitsview/internal/cuts"
	"fitsview/internal/image"
	"fitsview/internal/stretch"
	"fitsview/pkg/colorutil"
)

// DefaultName is the palette used when none is configured.
const DefaultName = "gray"

// ErrUnknownPalette is returned for names outside the registry.
var ErrUnknownPalette = errors.New("unknown palette")

// LUT is a 256-entry color table indexed by quantized intensity.
type LUT = [256]color.RGBA

// Palette names a color table, optionally read back to front.
type Palette struct {
	Name     string
	Reversed bool
}

func (p Palette) String() string {
	if p.Reversed {
		return p.Name + "_r"
	}
	return p.Name
}

var opencvMaps = map[string]gocv.ColormapTypes{
	"autumn":  gocv.ColormapAutumn,
	"bone":    gocv.ColormapBone,
	"jet":     gocv.ColormapJet,
	"winter":  gocv.ColormapWinter,
	"rainbow": gocv.ColormapRainbow,
	"ocean":   gocv.ColormapOcean,
	"summer":  gocv.ColormapSummer,
	"spring":  gocv.ColormapSpring,
	"cool":    gocv.ColormapCool,
	"hsv":     gocv.ColormapHsv,
	"pink":    gocv.ColormapPink,
	"hot":     gocv.ColormapHot,
	"parula":  gocv.ColormapParula,
}

// Names returns every registered palette name, sorted.
func Names() []string {
	names := []string{DefaultName}
	for name := range opencvMaps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Known reports whether name is registered.
func Known(name string) bool {
	if name == DefaultName {
		return true
	}
	_, ok := opencvMaps[name]
	return ok
}

// Table resolves a palette to its lookup table.
func Table(p Palette) (LUT, error) {
	var lut LUT
	if p.Name == DefaultName {
		for i := range lut {
			lut[i] = colorutil.Gray(uint8(i))
		}
	} else {
		kind, ok := opencvMaps[p.Name]
		if !ok {
			return LUT{}, fmt.Errorf("%w: %q", ErrUnknownPalette, p.Name)
		}
		var err error
		if lut, err = fromOpenCV(kind); err != nil {
			return LUT{}, err
		}
	}
	if p.Reversed {
		lut = colorutil.Reverse(lut)
	}
	return lut, nil
}

// fromOpenCV maps a 0..255 ramp through an OpenCV colormap.
func fromOpenCV(kind gocv.ColormapTypes) (LUT, error) {
	ramp := gocv.NewMatWithSize(1, 256, gocv.MatTypeCV8U)
	defer ramp.Close()
	for i := 0; i < 256; i++ {
		ramp.SetUCharAt(0, i, uint8(i))
	}

	colored := gocv.NewMat()
	defer colored.Close()
	gocv.ApplyColorMap(ramp, &colored, kind)
	if colored.Cols() != 256 || colored.Channels() != 3 {
		return LUT{}, fmt.Errorf("failed to build colormap %d: got %dx%d", kind, colored.Cols(), colored.Channels())
	}

	var lut LUT
	for i := range lut {
		// OpenCV stores BGR.
		lut[i] = color.RGBA{
			R: colored.GetUCharAt(0, i*3+2),
			G: colored.GetUCharAt(0, i*3+1),
			B: colored.GetUCharAt(0, i*3),
			A: 255,
		}
	}
	return lut, nil
}

// ColorbarHeight is the number of samples in a colorbar strip.
const ColorbarHeight = 256

// Colorbar renders a 1x256 strip where row i shows the raw value
// lo + i*(hi-lo)/255 through the same normalizer, quantizer and table as the
// image.
func Colorbar(lut LUT, r cuts.Range, kind stretch.Kind) *stdimage.RGBA {
	n := stretch.New(kind, r)
	bar := stdimage.NewRGBA(stdimage.Rect(0, 0, 1, ColorbarHeight))
	for i := 0; i < ColorbarHeight; i++ {
		v := r.Lo + float64(i)*(r.Hi-r.Lo)/(ColorbarHeight-1)
		bar.SetRGBA(0, i, lut[image.Quantize(n.Apply(v))])
	}
	return bar
}
