package pipeline

import (
	"fitsview/internal/colormap"
	"fitsview/internal/cuts"
	"fitsview/internal/stretch"
)

// Settings is the display state of one pipeline run. It is a value type:
// the With helpers return a modified copy and never touch the receiver.
type Settings struct {
	TrimEnabled bool
	Preset      cuts.Preset
	Custom      cuts.Range // used when Preset is cuts.PresetCustom
	Cuts        cuts.Range // resolved by the last run
	Stretch     stretch.Kind
	Palette     colormap.Palette
}

// DefaultSettings returns the state used for a freshly opened image.
func DefaultSettings() Settings {
	return Settings{
		TrimEnabled: true,
		Preset:      cuts.Preset999,
		Stretch:     stretch.Linear,
		Palette:     colormap.Palette{Name: colormap.DefaultName},
	}
}

// WithStretch returns a copy using the given stretch.
func (s Settings) WithStretch(k stretch.Kind) Settings {
	s.Stretch = k
	return s
}

// WithPalette returns a copy using the given palette.
func (s Settings) WithPalette(p colormap.Palette) Settings {
	s.Palette = p
	return s
}

// WithPreset returns a copy using the given cuts preset.
func (s Settings) WithPreset(p cuts.Preset) Settings {
	s.Preset = p
	return s
}

// WithCustomCuts switches to custom cuts. lo > hi is accepted.
func (s Settings) WithCustomCuts(lo, hi float64) Settings {
	s.Preset = cuts.PresetCustom
	s.Custom = cuts.Range{Lo: lo, Hi: hi}
	return s
}

// WithTrim returns a copy with trimming switched on or off.
func (s Settings) WithTrim(enabled bool) Settings {
	s.TrimEnabled = enabled
	return s
}
