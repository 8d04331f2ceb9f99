// Command fitsrender runs the display pipeline on a FITS file and writes the
// result as PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	stdimage "image"
	"image/png"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"fitsview/internal/astrometry"
	"fitsview/internal/colormap"
	"fitsview/internal/cuts"
	"fitsview/internal/image"
	"fitsview/internal/logging"
	"fitsview/internal/pipeline"
	"fitsview/internal/stretch"
)

// options are the parsed command line flags.
type options struct {
	In       string
	Out      string
	Colorbar string
	Cuts     string
	Stretch  string
	Colormap string
	Reversed bool
	TrimSec  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.In, "in", "", "Path to FITS image")
	flag.StringVar(&opts.Out, "out", "", "Output PNG")
	flag.StringVar(&opts.Colorbar, "colorbar", "", "Optional colorbar PNG (mono images only)")
	flag.StringVar(&opts.Cuts, "cuts", cuts.Preset999.String(), "Cuts preset (100.0%, 99.9%, 99.0%, 95.0%) or lo,hi")
	flag.StringVar(&opts.Stretch, "stretch", stretch.Linear.String(), "Stretch: linear, log, sqrt, squared, asinh")
	flag.StringVar(&opts.Colormap, "cmap", colormap.DefaultName, "Colormap name")
	flag.BoolVar(&opts.Reversed, "reversed", false, "Reverse the colormap")
	flag.BoolVar(&opts.TrimSec, "trimsec", true, "Mask pixels outside TRIMSEC")
	logLevel := flag.String("log-level", logging.LevelInfo, "Log level: debug, info, warn, error")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := logging.SetLevel(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.In == "" || opts.Out == "" {
		fmt.Println("Usage: fitsrender -in <image.fits> -out <image.png> [-cuts 99.9%|lo,hi] [-stretch linear] [-cmap gray] [-colorbar bar.png]")
		os.Exit(1)
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fitsrender: %v\n", err)
		os.Exit(1)
	}
}

// settings converts the flags into pipeline settings.
func (o options) settings() (pipeline.Settings, error) {
	s := pipeline.DefaultSettings().WithTrim(o.TrimSec)

	if lo, hi, ok := strings.Cut(o.Cuts, ","); ok {
		l, errLo := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		h, errHi := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if errLo != nil || errHi != nil {
			return s, fmt.Errorf("invalid custom cuts %q", o.Cuts)
		}
		s = s.WithCustomCuts(l, h)
	} else {
		p, err := cuts.ParsePreset(o.Cuts)
		if err != nil {
			return s, err
		}
		if p == cuts.PresetCustom {
			return s, fmt.Errorf("custom cuts need lo,hi")
		}
		s = s.WithPreset(p)
	}

	k, err := stretch.ParseKind(o.Stretch)
	if err != nil {
		return s, err
	}
	s = s.WithStretch(k)

	if !colormap.Known(o.Colormap) {
		return s, fmt.Errorf("%w: %q", colormap.ErrUnknownPalette, o.Colormap)
	}
	return s.WithPalette(colormap.Palette{Name: o.Colormap, Reversed: o.Reversed}), nil
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	s, err := opts.settings()
	if err != nil {
		return err
	}

	f, err := image.Load(opts.In)
	if err != nil {
		return err
	}
	src := &pipeline.Source{Name: opts.In, Header: f.Header, Raw: f.Raw}
	logging.Debug("Pipeline: loaded %s (%dx%d, %d channels)", opts.In, f.Raw.Cols, f.Raw.Rows, f.Raw.Channels())

	frame, err := pipeline.Display(ctx, src, s)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", opts.In, err)
	}
	if frame.TrimErr != nil {
		logging.Warn("Pipeline: ignoring TRIMSEC: %v", frame.TrimErr)
	}

	if err := writePNG(opts.Out, frame.Image()); err != nil {
		return err
	}
	if opts.Colorbar != "" {
		if frame.Colorbar == nil {
			logging.Warn("Pipeline: no colorbar for color images")
		} else if err := writePNG(opts.Colorbar, frame.Colorbar); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Size:        %dx%d\n", frame.Data.Cols, frame.Data.Rows)
	fmt.Fprintf(stdout, "Color:       %v\n", frame.IsColor)
	fmt.Fprintf(stdout, "Cuts:        %s (%s)\n", frame.Settings.Cuts, frame.Settings.Preset)
	fmt.Fprintf(stdout, "Stretch:     %s\n", frame.Settings.Stretch)
	fmt.Fprintf(stdout, "Orientation: %s\n", describe(frame.Orientation))
	return nil
}

func describe(o astrometry.Orientation) string {
	if !o.Known() {
		return "unknown"
	}
	out := fmt.Sprintf("PA %.2f deg", *o.PositionAngle)
	if o.Mirrored != nil && *o.Mirrored {
		out += ", mirrored"
	}
	return out
}

func writePNG(path string, img stdimage.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return out.Close()
}
