// Package astrometry converts pixel positions to sky coordinates and derives
// the on-sky orientation of an image from its header.
package astrometry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"fitsview/internal/image"
)

var (
	// ErrNoWCS is returned when the header does not describe a supported
	// celestial projection.
	ErrNoWCS = errors.New("no usable WCS in header")
	// ErrOutsideProjection is returned for pixels outside the projection domain.
	ErrOutsideProjection = errors.New("pixel outside projection")
)

// Projection is a zenithal projection code from CTYPEn.
type Projection string

// Supported projections
const (
	ProjectionTAN Projection = "TAN"
	ProjectionSIN Projection = "SIN"
	ProjectionARC Projection = "ARC"
)

// SkyCoord is a celestial position in degrees.
type SkyCoord struct {
	RA  float64
	Dec float64
}

// FormatRA renders right ascension as hh:mm:ss.sss.
func (c SkyCoord) FormatRA() string {
	ms := int64(math.Round(wrap360(c.RA) / 15 * 3600 * 1000))
	ms %= 24 * 3600 * 1000
	h := ms / 3600000
	m := ms / 60000 % 60
	s := float64(ms%60000) / 1000
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// FormatDec renders declination as ±dd:mm:ss.ss.
func (c SkyCoord) FormatDec() string {
	sign := "+"
	if c.Dec < 0 {
		sign = "-"
	}
	cs := int64(math.Round(math.Abs(c.Dec) * 3600 * 100))
	d := cs / 360000
	m := cs / 6000 % 60
	s := float64(cs%6000) / 100
	return fmt.Sprintf("%s%02d:%02d:%05.2f", sign, d, m, s)
}

func (c SkyCoord) String() string {
	return c.FormatRA() + " " + c.FormatDec()
}

// WCS is a pixel to sky transform for a zenithal projection.
type WCS struct {
	Projection Projection
	CRVAL      [2]float64 // reference sky position, degrees
	CRPIX      [2]float64 // reference pixel, 1-based
	cd         *mat.Dense // degrees per pixel
}

// FromHeader builds a transform from CTYPEn, CRVALn, CRPIXn and one of
// CDi_j, PCi_j with CDELTn, or CDELTn with CROTA2.
func FromHeader(h image.Header) (*WCS, error) {
	ctype1, ok1 := h.String("CTYPE1")
	ctype2, ok2 := h.String("CTYPE2")
	if !ok1 || !ok2 {
		return nil, ErrNoWCS
	}
	proj, err := projection(ctype1, ctype2)
	if err != nil {
		return nil, err
	}

	w := &WCS{Projection: proj}
	for i, axis := range []string{"1", "2"} {
		v, ok := h.Float("CRVAL" + axis)
		if !ok {
			return nil, fmt.Errorf("%w: missing CRVAL%s", ErrNoWCS, axis)
		}
		p, ok := h.Float("CRPIX" + axis)
		if !ok {
			return nil, fmt.Errorf("%w: missing CRPIX%s", ErrNoWCS, axis)
		}
		w.CRVAL[i] = v
		w.CRPIX[i] = p
	}

	w.cd = LinearMatrix(h)
	if w.cd == nil {
		return nil, fmt.Errorf("%w: no CD, PC or CDELT keywords", ErrNoWCS)
	}
	if mat.Det(w.cd) == 0 {
		return nil, fmt.Errorf("%w: singular pixel matrix", ErrNoWCS)
	}
	return w, nil
}

func projection(ctype1, ctype2 string) (Projection, error) {
	lon, lat := strings.ToUpper(ctype1), strings.ToUpper(ctype2)
	if len(lon) < 8 || len(lat) < 8 {
		return "", fmt.Errorf("%w: CTYPE %q/%q", ErrNoWCS, ctype1, ctype2)
	}
	lonAxis := strings.TrimRight(lon[:4], "-")
	latAxis := strings.TrimRight(lat[:4], "-")
	switch lonAxis + "/" + latAxis {
	case "RA/DEC", "GLON/GLAT", "ELON/ELAT":
	default:
		return "", fmt.Errorf("%w: CTYPE %q/%q is not a celestial pair", ErrNoWCS, ctype1, ctype2)
	}
	code := Projection(lon[5:8])
	if Projection(lat[5:8]) != code {
		return "", fmt.Errorf("%w: mixed projections %s/%s", ErrNoWCS, lon[5:8], lat[5:8])
	}
	switch code {
	case ProjectionTAN, ProjectionSIN, ProjectionARC:
		return code, nil
	default:
		return "", fmt.Errorf("%w: unsupported projection %s", ErrNoWCS, code)
	}
}

// LinearMatrix returns the pixel to intermediate-world matrix in degrees per
// pixel, or nil if the header has neither CD, PC nor CDELT keywords.
func LinearMatrix(h image.Header) *mat.Dense {
	if m := matrix(h, "CD", 0); m != nil {
		return m
	}
	cdelt1, ok1 := h.Float("CDELT1")
	cdelt2, ok2 := h.Float("CDELT2")
	if pc := matrix(h, "PC", 1); pc != nil {
		if !ok1 {
			cdelt1 = 1
		}
		if !ok2 {
			cdelt2 = 1
		}
		var scaled mat.Dense
		scaled.Mul(mat.NewDiagDense(2, []float64{cdelt1, cdelt2}), pc)
		return &scaled
	}
	if !ok1 || !ok2 {
		return nil
	}
	rho := h.FloatWithFallback("CROTA2", 0) * math.Pi / 180
	sin, cos := math.Sincos(rho)
	return mat.NewDense(2, 2, []float64{
		cdelt1 * cos, -cdelt2 * sin,
		cdelt1 * sin, cdelt2 * cos,
	})
}

// matrix reads prefix1_1..prefix2_2. Missing diagonal terms default to diag,
// missing off-diagonal terms to 0. Returns nil when no term is present.
func matrix(h image.Header, prefix string, diag float64) *mat.Dense {
	found := false
	data := make([]float64, 4)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v, ok := h.Float(fmt.Sprintf("%s%d_%d", prefix, i+1, j+1))
			if !ok {
				if i == j {
					v = diag
				}
			} else {
				found = true
			}
			data[i*2+j] = v
		}
	}
	if !found {
		return nil
	}
	return mat.NewDense(2, 2, data)
}

// PixelToSky converts 0-based pixel coordinates (x = column, y = data row).
func (w *WCS) PixelToSky(x, y float64) (SkyCoord, error) {
	d := mat.NewVecDense(2, []float64{x + 1 - w.CRPIX[0], y + 1 - w.CRPIX[1]})
	var iw mat.VecDense
	iw.MulVec(w.cd, d)
	xi, eta := iw.AtVec(0), iw.AtVec(1)

	r := math.Hypot(xi, eta)
	phi := math.Atan2(xi, -eta)

	var theta float64
	switch w.Projection {
	case ProjectionTAN:
		theta = math.Atan2(180/math.Pi, r)
	case ProjectionSIN:
		s := r * math.Pi / 180
		if s > 1 {
			return SkyCoord{}, ErrOutsideProjection
		}
		theta = math.Acos(s)
	case ProjectionARC:
		if r > 180 {
			return SkyCoord{}, ErrOutsideProjection
		}
		theta = (90 - r) * math.Pi / 180
	default:
		return SkyCoord{}, ErrNoWCS
	}

	// Native pole at LONPOLE = 180 degrees.
	alpha0 := w.CRVAL[0] * math.Pi / 180
	delta0 := w.CRVAL[1] * math.Pi / 180
	dphi := phi - math.Pi
	sinT, cosT := math.Sincos(theta)
	sinD, cosD := math.Sincos(delta0)

	ra := alpha0 + math.Atan2(-cosT*math.Sin(dphi), sinT*cosD-cosT*sinD*math.Cos(dphi))
	dec := math.Asin(clampUnit(sinT*sinD + cosT*cosD*math.Cos(dphi)))

	return SkyCoord{RA: wrap360(ra * 180 / math.Pi), Dec: dec * 180 / math.Pi}, nil
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// wrap180 maps an angle into (-180, 180].
func wrap180(deg float64) float64 {
	deg = wrap360(deg)
	if deg > 180 {
		deg -= 360
	}
	return deg
}
