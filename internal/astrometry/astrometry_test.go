package astrometry

import (
	"errors"
	"math"
	"testing"

	"fitsview/internal/image"
)

const scale = 1.0 / 3600 // one arcsecond per pixel

func tanHeader() image.Header {
	return image.Header{
		"CTYPE1": "RA---TAN",
		"CTYPE2": "DEC--TAN",
		"CRVAL1": 150.0,
		"CRVAL2": 30.0,
		"CRPIX1": 51.0,
		"CRPIX2": 51.0,
		"CD1_1":  -scale,
		"CD1_2":  0.0,
		"CD2_1":  0.0,
		"CD2_2":  scale,
	}
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestReferencePixelMapsToCRVAL(t *testing.T) {
	for _, proj := range []string{"TAN", "SIN", "ARC"} {
		t.Run(proj, func(t *testing.T) {
			h := tanHeader()
			h["CTYPE1"] = "RA---" + proj
			h["CTYPE2"] = "DEC--" + proj
			w, err := FromHeader(h)
			if err != nil {
				t.Fatalf("FromHeader: %v", err)
			}
			c, err := w.PixelToSky(50, 50)
			if err != nil {
				t.Fatalf("PixelToSky: %v", err)
			}
			if !near(c.RA, 150, 1e-9) || !near(c.Dec, 30, 1e-9) {
				t.Errorf("reference pixel = %v, want (150, 30)", c)
			}
		})
	}
}

func TestNorthAndEast(t *testing.T) {
	w, err := FromHeader(tanHeader())
	if err != nil {
		t.Fatal(err)
	}
	ref, _ := w.PixelToSky(50, 50)
	up, _ := w.PixelToSky(50, 60)
	right, _ := w.PixelToSky(60, 50)

	if up.Dec <= ref.Dec {
		t.Errorf("moving +y should increase Dec: %v -> %v", ref.Dec, up.Dec)
	}
	if !near(up.Dec-ref.Dec, 10*scale, 1e-9) {
		t.Errorf("Dec step = %v, want %v", up.Dec-ref.Dec, 10*scale)
	}
	if right.RA >= ref.RA {
		t.Errorf("moving +x with negative CD1_1 should decrease RA: %v -> %v", ref.RA, right.RA)
	}
}

func TestFromHeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(image.Header)
	}{
		{"no_ctype", func(h image.Header) { delete(h, "CTYPE1") }},
		{"linear", func(h image.Header) { h["CTYPE1"] = "LINEAR"; h["CTYPE2"] = "LINEAR" }},
		{"unsupported", func(h image.Header) { h["CTYPE1"] = "RA---AIT"; h["CTYPE2"] = "DEC--AIT" }},
		{"no_crval", func(h image.Header) { delete(h, "CRVAL2") }},
		{"no_matrix", func(h image.Header) {
			for _, k := range []string{"CD1_1", "CD1_2", "CD2_1", "CD2_2"} {
				delete(h, k)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tanHeader()
			tt.mutate(h)
			if _, err := FromHeader(h); !errors.Is(err, ErrNoWCS) {
				t.Fatalf("err = %v, want ErrNoWCS", err)
			}
		})
	}
}

func TestCDELTWithRotation(t *testing.T) {
	h := image.Header{"CDELT1": -scale, "CDELT2": scale, "CROTA2": 90.0}
	m := LinearMatrix(h)
	if m == nil {
		t.Fatal("LinearMatrix returned nil")
	}
	if !near(m.At(0, 1), -scale, 1e-15) || !near(m.At(1, 0), -scale, 1e-15) {
		t.Errorf("rotated matrix = %v", m)
	}

	pc := image.Header{"CDELT1": 2.0, "CDELT2": 3.0, "PC1_2": 0.5}
	m = LinearMatrix(pc)
	if m.At(0, 0) != 2 || m.At(0, 1) != 1 || m.At(1, 1) != 3 {
		t.Errorf("PC matrix = %v", m)
	}
}

func TestSINOutsideProjection(t *testing.T) {
	h := tanHeader()
	h["CTYPE1"] = "RA---SIN"
	h["CTYPE2"] = "DEC--SIN"
	h["CD1_1"] = -1.0
	h["CD2_2"] = 1.0
	w, err := FromHeader(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.PixelToSky(50, 150); !errors.Is(err, ErrOutsideProjection) {
		t.Fatalf("err = %v, want ErrOutsideProjection", err)
	}
}

func TestResolveWithWCS(t *testing.T) {
	h := tanHeader()
	w, err := FromHeader(h)
	if err != nil {
		t.Fatal(err)
	}
	o := Resolve(h, 100, 100, w)
	if !o.Known() {
		t.Fatal("orientation unknown")
	}
	if pa := *o.PositionAngle; !near(pa, 0, 1e-6) && !near(pa, 360, 1e-6) {
		t.Errorf("PositionAngle = %v, want 0", pa)
	}
	if !*o.Mirrored {
		t.Error("negative CD1_1 with positive CD2_2 should be mirrored")
	}

	// Swapping the sign of CD1_1 flips the parity.
	h["CD1_1"] = scale
	w, _ = FromHeader(h)
	o = Resolve(h, 100, 100, w)
	if *o.Mirrored {
		t.Error("positive determinant should not be mirrored")
	}
}

func TestResolveRotated(t *testing.T) {
	h := tanHeader()
	// Rotate by 30 degrees: +y now points 30 degrees east of north.
	rho := 30 * math.Pi / 180
	h["CD1_1"] = -scale * math.Cos(rho)
	h["CD1_2"] = scale * math.Sin(rho)
	h["CD2_1"] = scale * math.Sin(rho)
	h["CD2_2"] = scale * math.Cos(rho)
	w, err := FromHeader(h)
	if err != nil {
		t.Fatal(err)
	}
	o := Resolve(h, 100, 100, w)
	if pa := *o.PositionAngle; !near(pa, 330, 1e-3) {
		t.Errorf("PositionAngle = %v, want 330", pa)
	}
}

func TestResolveFallback(t *testing.T) {
	h := image.Header{"CD1_1": 1.0, "CD1_2": 1.0, "CD2_1": 0.0, "CD2_2": -1.0}
	o := Resolve(h, 10, 10, nil)
	if !o.Known() {
		t.Fatal("orientation unknown")
	}
	if !near(*o.PositionAngle, 45, 1e-12) {
		t.Errorf("PositionAngle = %v, want 45", *o.PositionAngle)
	}
	if !*o.Mirrored {
		t.Error("negative determinant should be mirrored")
	}

	pc := image.Header{"PC1_1": 0.0, "PC1_2": 1.0, "PC2_1": 1.0, "PC2_2": 0.0}
	if o := Resolve(pc, 10, 10, nil); !near(*o.PositionAngle, 90, 1e-12) {
		t.Errorf("PC PositionAngle = %v, want 90", *o.PositionAngle)
	}
}

func TestResolveNoInformation(t *testing.T) {
	o := Resolve(image.Header{"NAXIS": 2}, 10, 10, nil)
	if o.PositionAngle != nil || o.Mirrored != nil {
		t.Fatalf("expected nil fields, got %+v", o)
	}
}

func TestFormat(t *testing.T) {
	c := SkyCoord{RA: 150.5, Dec: -30.25}
	if got := c.FormatRA(); got != "10:02:00.000" {
		t.Errorf("FormatRA = %q", got)
	}
	if got := c.FormatDec(); got != "-30:15:00.00" {
		t.Errorf("FormatDec = %q", got)
	}
	if got := (SkyCoord{RA: 359.99999999}).FormatRA(); got != "00:00:00.000" {
		t.Errorf("FormatRA wrap = %q", got)
	}
}
