package mainwindow

import (
	"image/color"

	"fitsview/pkg/colorutil"
	"fitsview/ui/canvas"
	"fitsview/ui/prefs"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyCenterMarkVisible = "centerMarkVisible"
	prefKeyCenterMarkColor   = "centerMarkColor"
	prefKeyDirectionsVisible = "directionsVisible"
	prefKeyDirectionsColor   = "directionsColor"
)

// loadOverlays reads the overlay options, using the defaults for missing or
// malformed entries.
func loadOverlays(p *prefs.Prefs) canvas.Overlays {
	o := canvas.DefaultOverlays()
	o.CenterMarkVisible = p.Bool(prefKeyCenterMarkVisible, o.CenterMarkVisible)
	o.CenterMarkColor = colorutil.ParseHexWithFallback(p.String(prefKeyCenterMarkColor, ""), o.CenterMarkColor)
	o.DirectionsVisible = p.Bool(prefKeyDirectionsVisible, o.DirectionsVisible)
	o.DirectionsColor = colorutil.ParseHexWithFallback(p.String(prefKeyDirectionsColor, ""), o.DirectionsColor)
	return o
}

func storeOverlays(p *prefs.Prefs, o canvas.Overlays) {
	p.SetBool(prefKeyCenterMarkVisible, o.CenterMarkVisible)
	p.SetString(prefKeyCenterMarkColor, colorutil.Hex(o.CenterMarkColor))
	p.SetBool(prefKeyDirectionsVisible, o.DirectionsVisible)
	p.SetString(prefKeyDirectionsColor, colorutil.Hex(o.DirectionsColor))
}

// showSettingsDialog edits the overlay options. Changes apply immediately.
func showSettingsDialog(mw *MainWindow) {
	o := mw.canvas.Overlays()

	apply := func() {
		mw.canvas.SetOverlays(o)
		storeOverlays(mw.prefs, o)
		mw.savePrefs()
	}

	centerCheck := widget.NewCheck("Visible", func(on bool) {
		o.CenterMarkVisible = on
		apply()
	})
	centerCheck.SetChecked(o.CenterMarkVisible)
	centerSwatch := swatch(o.CenterMarkColor)
	centerButton := widget.NewButton("Color...", func() {
		pickColor(mw.Window, "Center mark", o.CenterMarkColor, func(c color.RGBA) {
			o.CenterMarkColor = c
			centerSwatch.FillColor = c
			centerSwatch.Refresh()
			apply()
		})
	})

	dirCheck := widget.NewCheck("Visible", func(on bool) {
		o.DirectionsVisible = on
		apply()
	})
	dirCheck.SetChecked(o.DirectionsVisible)
	dirSwatch := swatch(o.DirectionsColor)
	dirButton := widget.NewButton("Color...", func() {
		pickColor(mw.Window, "Directions", o.DirectionsColor, func(c color.RGBA) {
			o.DirectionsColor = c
			dirSwatch.FillColor = c
			dirSwatch.Refresh()
			apply()
		})
	})

	content := container.NewVBox(
		widget.NewCard("Center mark", "", container.NewHBox(centerCheck, centerSwatch, centerButton)),
		widget.NewCard("Directions", "", container.NewHBox(dirCheck, dirSwatch, dirButton)),
	)
	dialog.NewCustom("Settings", "Close", content, mw.Window).Show()
}

func swatch(c color.RGBA) *fynecanvas.Rectangle {
	r := fynecanvas.NewRectangle(c)
	r.SetMinSize(fyne.NewSize(24, 24))
	return r
}

func pickColor(win fyne.Window, title string, current color.RGBA, done func(color.RGBA)) {
	picker := dialog.NewColorPicker(title, "Select a color", func(c color.Color) {
		done(color.RGBAModel.Convert(c).(color.RGBA))
	}, win)
	picker.Advanced = true
	picker.SetColor(current)
	picker.Show()
}
