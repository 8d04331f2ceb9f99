// Package pipeline turns a FITS header and pixel array into a display-ready
// frame: debayering, trimming, cut computation, stretch, color mapping and
// compositing.
package pipeline

import (
	"context"
	"errors"
	stdimage "image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"fitsview/internal/astrometry"
	"fitsview/internal/colormap"
	"fitsview/internal/cuts"
	"fitsview/internal/debayer"
	"fitsview/internal/image"
	"fitsview/internal/logging"
	"fitsview/internal/stretch"
	"fitsview/internal/trim"
)

// bandPixels is the approximate number of pixels normalized per task.
const bandPixels = 1 << 16

// integer8Cuts are the fixed cuts of unsigned 8-bit images.
var integer8Cuts = cuts.Range{Lo: 0, Hi: 255}

// Source is a loaded image: its header and raw pixels.
type Source struct {
	Name   string
	Header image.Header
	Raw    *image.Raw
}

// Prepared holds the settings-independent part of a run. It depends only on
// the source and whether trimming is enabled, so cut, stretch and palette
// changes can reuse it.
type Prepared struct {
	Source      *Source
	TrimEnabled bool
	WCS         *astrometry.WCS // nil without a usable projection
	Orientation astrometry.Orientation
	Data        *image.Raw // after debayering
	Trimmed     *image.Raw // Data with TRIMSEC applied, or Data
	TrimErr     error
	Sorted      []float64 // positive samples of Trimmed, ascending
}

// Frame is the immutable result of one run.
type Frame struct {
	*Prepared
	Settings     Settings // Cuts holds the resolved range
	Normalizer   stretch.Normalizer
	Buffer       *image.DisplayBuffer
	LUT          colormap.LUT
	Colorbar     *stdimage.RGBA // nil for color images
	IsColor      bool
	CutsEditable bool
}

// Image returns the display buffer as a standard image.
func (f *Frame) Image() stdimage.Image {
	return f.Buffer.Image(f.LUT)
}

// Prepare runs the settings-independent stages. Unsupported Bayer patterns
// and invalid shapes are fatal; a malformed TRIMSEC is recorded in TrimErr
// and the untrimmed data is used.
func Prepare(src *Source, trimEnabled bool) (*Prepared, error) {
	if src == nil || src.Raw == nil {
		return nil, errors.New("no image")
	}
	p := &Prepared{Source: src, TrimEnabled: trimEnabled, Data: src.Raw}

	if w, err := astrometry.FromHeader(src.Header); err == nil {
		p.WCS = w
	} else {
		logging.Debug("Pipeline: %s: %v", src.Name, err)
	}
	p.Orientation = astrometry.Resolve(src.Header, src.Raw.Rows, src.Raw.Cols, p.WCS)

	if pattern, ok := debayer.PatternFromHeader(src.Header); ok {
		data, err := debayer.Debayer(src.Raw, pattern)
		if err != nil {
			return nil, err
		}
		data.Integer8 = src.Raw.Integer8
		p.Data = data
	}

	p.Trimmed = p.Data
	if trimEnabled {
		trimmed, err := trim.Mask(src.Header, p.Data)
		if err != nil {
			logging.Warn("Pipeline: %s: %v, using untrimmed data", src.Name, err)
			p.TrimErr = err
		}
		p.Trimmed = trimmed
	}

	if !p.Data.Integer8 {
		p.Sorted = cuts.Sample(p.Trimmed)
	}
	return p, nil
}

// Render runs the settings-dependent stages over a prepared image.
func Render(ctx context.Context, p *Prepared, s Settings) (*Frame, error) {
	f := &Frame{
		Prepared:     p,
		IsColor:      p.Data.IsColor(),
		CutsEditable: !p.Data.Integer8,
	}

	if p.Data.Integer8 {
		s.Cuts = integer8Cuts
		s.Stretch = stretch.Linear
	} else {
		s.Cuts = cuts.Resolve(p.Sorted, s.Preset, s.Custom)
	}
	f.Settings = s
	f.Normalizer = stretch.New(s.Stretch, s.Cuts)

	planes, err := Normalize(ctx, f.Normalizer, p.Trimmed)
	if err != nil {
		return nil, err
	}
	f.Buffer = image.Compose(planes, p.Trimmed.Rows, p.Trimmed.Cols)

	if !f.IsColor {
		lut, err := colormap.Table(s.Palette)
		if err != nil {
			return nil, err
		}
		f.LUT = lut
		f.Colorbar = colormap.Colorbar(lut, s.Cuts, s.Stretch)
	}
	return f, nil
}

// Display prepares and renders in one step.
func Display(ctx context.Context, src *Source, s Settings) (*Frame, error) {
	p, err := Prepare(src, s.TrimEnabled)
	if err != nil {
		return nil, err
	}
	return Render(ctx, p, s)
}

// Normalize applies n to every channel of raw, splitting the work into row
// bands processed concurrently.
func Normalize(ctx context.Context, n stretch.Normalizer, raw *image.Raw) ([][]float64, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	band := bandPixels
	if raw.Cols > 0 {
		band = max(1, bandPixels/raw.Cols) * raw.Cols
	}
	out := make([][]float64, len(raw.Planes))
	for c, src := range raw.Planes {
		dst := make([]float64, len(src))
		out[c] = dst
		for lo := 0; lo < len(src); lo += band {
			hi := min(lo+band, len(src))
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				n.ApplySlice(dst[lo:hi], src[lo:hi])
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
