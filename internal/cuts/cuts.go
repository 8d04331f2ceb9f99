// Package cuts computes display black and white points from percentile
// presets.
package cuts

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"fitsview/internal/image"
)

// Range holds the raw values mapped to black (Lo) and white (Hi).
type Range struct {
	Lo float64
	Hi float64
}

// Degenerate reports whether the range maps every value to 0.
func (r Range) Degenerate() bool {
	return !(r.Hi > r.Lo)
}

func (r Range) String() string {
	return fmt.Sprintf("%g..%g", r.Lo, r.Hi)
}

// Preset selects how cuts are computed.
type Preset int

// Presets, ordered as offered to the user.
const (
	Preset100 Preset = iota
	Preset999
	Preset990
	Preset950
	PresetCustom
)

var presetNames = []string{"100.0%", "99.9%", "99.0%", "95.0%", "Custom"}

var presetPercents = []float64{100, 99.9, 99, 95}

// Presets returns all presets in display order.
func Presets() []Preset {
	return []Preset{Preset100, Preset999, Preset990, Preset950, PresetCustom}
}

func (p Preset) String() string {
	if p < 0 || int(p) >= len(presetNames) {
		return "Unknown"
	}
	return presetNames[p]
}

// Percent returns the kept percentage, or 0 for PresetCustom.
func (p Preset) Percent() float64 {
	if p < 0 || int(p) >= len(presetPercents) {
		return 0
	}
	return presetPercents[p]
}

// ParsePreset accepts the names printed by String, case-insensitively.
func ParsePreset(s string) (Preset, error) {
	s = strings.TrimSpace(s)
	for i, name := range presetNames {
		if strings.EqualFold(s, name) {
			return Preset(i), nil
		}
	}
	return 0, fmt.Errorf("unknown cuts preset %q", s)
}

// Sample returns every finite positive value of all channels, sorted.
func Sample(raw *image.Raw) []float64 {
	values := raw.Positive()
	slices.Sort(values)
	return values
}

// FromSorted computes the cuts for a kept percentage: the same number of
// samples is dropped from each tail. An empty sample yields (0, 0).
func FromSorted(sorted []float64, percent float64) Range {
	if len(sorted) == 0 {
		return Range{}
	}
	n := int(math.Floor(float64(len(sorted)) * (1 - percent/100)))
	if limit := (len(sorted) - 1) / 2; n > limit {
		n = limit
	}
	if n < 0 {
		n = 0
	}
	return Range{Lo: sorted[n], Hi: sorted[len(sorted)-1-n]}
}

// Resolve returns the cuts for a preset. PresetCustom returns custom verbatim,
// including lo > hi.
func Resolve(sorted []float64, p Preset, custom Range) Range {
	if p == PresetCustom {
		return custom
	}
	return FromSorted(sorted, p.Percent())
}

// Compute samples raw and resolves the preset.
func Compute(raw *image.Raw, p Preset, custom Range) Range {
	if p == PresetCustom {
		return custom
	}
	return FromSorted(Sample(raw), p.Percent())
}
