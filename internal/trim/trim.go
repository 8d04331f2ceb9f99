// Package trim masks image data outside the TRIMSEC region declared in a
// FITS header.
package trim

import (
	"fmt"
	"regexp"
	"strconv"

	"fitsview/internal/image"
	"fitsview/pkg/geometry"
)

// Keyword is the header key holding the trim section.
const Keyword = "TRIMSEC"

var sectionPattern = regexp.MustCompile(`^\s*\[\s*(\d+)\s*:\s*(\d+)\s*,\s*(\d+)\s*:\s*(\d+)\s*\]\s*$`)

// ParseError is returned for a malformed trim section.
type ParseError struct {
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", Keyword, e.Value, e.Reason)
}

// Section is a 1-indexed inclusive rectangle; X runs along columns, Y along
// data rows.
type Section struct {
	X0, X1 int
	Y0, Y1 int
}

// Parse reads a section of the form "[x0:x1,y0:y1]".
func Parse(s string) (Section, error) {
	m := sectionPattern.FindStringSubmatch(s)
	if m == nil {
		return Section{}, &ParseError{Value: s, Reason: "expected [x0:x1,y0:y1]"}
	}
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Section{}, &ParseError{Value: s, Reason: err.Error()}
		}
		if n < 1 {
			return Section{}, &ParseError{Value: s, Reason: "indices are 1-based"}
		}
		v[i] = n
	}
	return Section{X0: v[0], X1: v[1], Y0: v[2], Y1: v[3]}, nil
}

// Rect returns the section as a 0-based half-open rectangle.
func (s Section) Rect() geometry.RectInt {
	return geometry.NewRectInt(s.X0-1, s.X1, s.Y0-1, s.Y1)
}

func (s Section) String() string {
	return fmt.Sprintf("[%d:%d,%d:%d]", s.X0, s.X1, s.Y0, s.Y1)
}

// FromHeader returns the section declared in the header. ok is false when the
// keyword is absent.
func FromHeader(h image.Header) (sec Section, ok bool, err error) {
	if !h.Has(Keyword) {
		return Section{}, false, nil
	}
	s, isString := h.String(Keyword)
	if !isString {
		return Section{}, true, &ParseError{Value: fmt.Sprint(h[Keyword]), Reason: "not a string"}
	}
	sec, err = Parse(s)
	return sec, true, err
}

// Apply returns a copy of raw with every pixel outside the section set to 0.
// The shape is preserved and bounds beyond the image are clipped.
func Apply(raw *image.Raw, sec Section) *image.Raw {
	keep := sec.Rect().Intersect(geometry.NewRectInt(0, raw.Cols, 0, raw.Rows))
	out := raw.Clone()
	for _, plane := range out.Planes {
		for row := 0; row < out.Rows; row++ {
			line := plane[row*out.Cols : (row+1)*out.Cols]
			for col := range line {
				if !keep.Contains(geometry.PointInt{X: col, Y: row}) {
					line[col] = 0
				}
			}
		}
	}
	return out
}

// Mask applies the header's trim section. Without TRIMSEC the input is
// returned unchanged. A malformed section returns the input together with a
// *ParseError so callers can fall back to untrimmed data.
func Mask(h image.Header, raw *image.Raw) (*image.Raw, error) {
	sec, ok, err := FromHeader(h)
	if !ok {
		return raw, nil
	}
	if err != nil {
		return raw, err
	}
	return Apply(raw, sec), nil
}
