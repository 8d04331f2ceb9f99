package mainwindow

import (
	"errors"
	"strconv"
	"strings"

	"fitsview/internal/colormap"
	"fitsview/internal/cuts"
	"fitsview/internal/logging"
	"fitsview/internal/pipeline"
	"fitsview/internal/stretch"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir          = "lastDir"
	prefKeyCutsPreset       = "cutsPreset"
	prefKeyStretch          = "stretch"
	prefKeyColormap         = "colormap"
	prefKeyColormapReversed = "colormapReversed"
	prefKeyTrimSec          = "trimsec"
)

// settingsFromPrefs builds display settings from stored preferences, falling
// back to the defaults for missing or unknown values.
func settingsFromPrefs(get func(key, fallback string) string, getBool func(key string, fallback bool) bool) pipeline.Settings {
	s := pipeline.DefaultSettings()
	if p, err := cuts.ParsePreset(get(prefKeyCutsPreset, s.Preset.String())); err == nil && p != cuts.PresetCustom {
		s = s.WithPreset(p)
	}
	if k, err := stretch.ParseKind(get(prefKeyStretch, s.Stretch.String())); err == nil {
		s = s.WithStretch(k)
	}
	if name := get(prefKeyColormap, s.Palette.Name); colormap.Known(name) {
		s.Palette.Name = name
	}
	s.Palette.Reversed = getBool(prefKeyColormapReversed, false)
	return s.WithTrim(getBool(prefKeyTrimSec, s.TrimEnabled))
}

// restoreSettings applies the stored display settings before any image is
// loaded.
func (mw *MainWindow) restoreSettings() {
	s := settingsFromPrefs(mw.prefs.String, mw.prefs.Bool)
	if err := mw.state.SetSettings(s); err != nil {
		logging.Warn("Failed to restore settings: %v", err)
	}
}

// storeSettings records the settings that survive a restart. Custom cuts
// depend on the image and are not stored.
func (mw *MainWindow) storeSettings(s pipeline.Settings) {
	if s.Preset != cuts.PresetCustom {
		mw.prefs.SetString(prefKeyCutsPreset, s.Preset.String())
	}
	mw.prefs.SetString(prefKeyStretch, s.Stretch.String())
	mw.prefs.SetString(prefKeyColormap, s.Palette.Name)
	mw.prefs.SetBool(prefKeyColormapReversed, s.Palette.Reversed)
	mw.prefs.SetBool(prefKeyTrimSec, s.TrimEnabled)
	mw.savePrefs()
}

// controls is the row of display setting widgets.
type controls struct {
	mw *MainWindow

	preset   *widget.Select
	lo, hi   *widget.Entry
	apply    *widget.Button
	stretch  *widget.Select
	palette  *widget.Select
	reversed *widget.Check
	trim     *widget.Check

	// syncing suppresses change callbacks while widgets follow the state
	syncing bool
	box     *fyne.Container
}

func newControls(mw *MainWindow) *controls {
	c := &controls{mw: mw}

	var presetNames []string
	for _, p := range cuts.Presets() {
		presetNames = append(presetNames, p.String())
	}
	c.preset = widget.NewSelect(presetNames, c.onPreset)

	c.lo = widget.NewEntry()
	c.hi = widget.NewEntry()
	c.lo.OnSubmitted = func(string) { c.onApplyCuts() }
	c.hi.OnSubmitted = func(string) { c.onApplyCuts() }
	c.apply = widget.NewButton("Apply", c.onApplyCuts)

	var kinds []string
	for _, k := range stretch.Kinds() {
		kinds = append(kinds, k.String())
	}
	c.stretch = widget.NewSelect(kinds, c.onStretch)

	c.palette = widget.NewSelect(colormap.Names(), func(string) { c.onPalette() })
	c.reversed = widget.NewCheck("Reversed", func(bool) { c.onPalette() })
	c.trim = widget.NewCheck("TRIMSEC", c.onTrim)

	c.box = container.NewHBox(
		widget.NewLabel("Cuts:"), c.preset,
		container.NewGridWrap(fyne.NewSize(90, c.lo.MinSize().Height), c.lo),
		container.NewGridWrap(fyne.NewSize(90, c.hi.MinSize().Height), c.hi),
		c.apply,
		widget.NewSeparator(),
		widget.NewLabel("Stretch:"), c.stretch,
		widget.NewSeparator(),
		widget.NewLabel("Colormap:"), c.palette, c.reversed,
		widget.NewSeparator(),
		c.trim,
	)

	c.sync(mw.state.Settings(), nil)
	return c
}

// Container returns the control row.
func (c *controls) Container() fyne.CanvasObject {
	return c.box
}

// sync shows the given settings and enables what the frame allows.
func (c *controls) sync(s pipeline.Settings, f *pipeline.Frame) {
	c.syncing = true
	defer func() { c.syncing = false }()

	c.preset.SetSelected(s.Preset.String())
	c.stretch.SetSelected(s.Stretch.String())
	c.palette.SetSelected(s.Palette.Name)
	c.reversed.SetChecked(s.Palette.Reversed)
	c.trim.SetChecked(s.TrimEnabled)
	if f != nil {
		c.setCutsText(s.Cuts)
	}
	c.enable(s, f)
}

// setBusy disables every control while a recompute runs.
func (c *controls) setBusy(busy bool, f *pipeline.Frame) {
	if busy {
		for _, w := range c.widgets() {
			w.Disable()
		}
		return
	}
	c.enable(c.mw.state.Settings(), f)
}

func (c *controls) enable(s pipeline.Settings, f *pipeline.Frame) {
	cutsEditable := f == nil || f.CutsEditable
	isColor := f != nil && f.IsColor
	custom := cutsEditable && s.Preset == cuts.PresetCustom

	setEnabled(c.preset, cutsEditable)
	setEnabled(c.stretch, cutsEditable)
	setEnabled(c.lo, custom)
	setEnabled(c.hi, custom)
	setEnabled(c.apply, custom)
	setEnabled(c.palette, !isColor)
	setEnabled(c.reversed, !isColor)
	c.trim.Enable()
}

func (c *controls) widgets() []fyne.Disableable {
	return []fyne.Disableable{c.preset, c.lo, c.hi, c.apply, c.stretch, c.palette, c.reversed, c.trim}
}

func setEnabled(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}

// showCuts shows a resolved cut range in the entries.
func (c *controls) showCuts(r cuts.Range) {
	c.syncing = true
	defer func() { c.syncing = false }()
	c.setCutsText(r)
}

func (c *controls) setCutsText(r cuts.Range) {
	c.lo.SetText(strconv.FormatFloat(r.Lo, 'g', 8, 64))
	c.hi.SetText(strconv.FormatFloat(r.Hi, 'g', 8, 64))
}

func (c *controls) onPreset(name string) {
	if c.syncing {
		return
	}
	p, err := cuts.ParsePreset(name)
	if err != nil {
		return
	}
	s := c.mw.state.Settings()
	if p == cuts.PresetCustom {
		// Start from the displayed range; edits are applied explicitly.
		c.submit(s.WithCustomCuts(s.Cuts.Lo, s.Cuts.Hi))
		return
	}
	c.submit(s.WithPreset(p))
}

func (c *controls) onApplyCuts() {
	if c.syncing {
		return
	}
	lo, errLo := strconv.ParseFloat(strings.TrimSpace(c.lo.Text), 64)
	hi, errHi := strconv.ParseFloat(strings.TrimSpace(c.hi.Text), 64)
	if err := errors.Join(errLo, errHi); err != nil {
		dialog.ShowError(err, c.mw.Window)
		return
	}
	c.submit(c.mw.state.Settings().WithCustomCuts(lo, hi))
}

func (c *controls) onStretch(name string) {
	if c.syncing {
		return
	}
	k, err := stretch.ParseKind(name)
	if err != nil {
		return
	}
	c.submit(c.mw.state.Settings().WithStretch(k))
}

func (c *controls) onPalette() {
	if c.syncing || c.palette.Selected == "" {
		return
	}
	p := colormap.Palette{Name: c.palette.Selected, Reversed: c.reversed.Checked}
	c.submit(c.mw.state.Settings().WithPalette(p))
}

func (c *controls) onTrim(on bool) {
	if c.syncing {
		return
	}
	c.submit(c.mw.state.Settings().WithTrim(on))
}

// submit starts a recompute. When one is already running the widgets are
// reset to the current state.
func (c *controls) submit(s pipeline.Settings) {
	if err := c.mw.state.SetSettings(s); err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			c.mw.updateStatus("Busy, change ignored")
		} else {
			logging.Error("Failed to apply settings: %v", err)
		}
		c.sync(c.mw.state.Settings(), c.mw.state.Frame())
		return
	}
	c.mw.storeSettings(s)
	if c.mw.state.Source() == nil {
		// Nothing to render yet; only the stored settings changed.
		c.sync(s, nil)
	}
}
