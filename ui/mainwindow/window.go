// Package mainwindow provides the viewer window.
package mainwindow

import (
	"errors"
	"fmt"
	"path/filepath"

	"fitsview/internal/app"
	"fitsview/internal/cuts"
	"fitsview/internal/hover"
	"fitsview/internal/logging"
	"fitsview/internal/pipeline"
	"fitsview/internal/version"
	"fitsview/ui/canvas"
	"fitsview/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const title = "FITS Viewer"

// fitsExtensions are offered by the open dialog.
var fitsExtensions = []string{".fits", ".fit", ".fts", ".FITS", ".FIT"}

// MainWindow is the viewer window: image, colorbar, controls and the cursor
// info panel.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	canvas    *canvas.FitsCanvas
	controls  *controls
	info      *infoPanel
	statusBar *widget.Label
}

// New creates the main window and restores the saved settings.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(title)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.restoreSettings()
	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewFitsCanvas()
	mw.canvas.SetOverlays(loadOverlays(mw.prefs))
	mw.canvas.OnHover(func(x, y float64) {
		mw.state.Hover(x, y)
	})

	mw.controls = newControls(mw)
	mw.info = newInfoPanel()
	mw.statusBar = widget.NewLabel("Ready")

	// Image | colorbar, with the controls on top
	imageArea := container.NewBorder(
		mw.controls.Container(), // top
		nil,                     // bottom
		nil,                     // left
		mw.info.colorbar,        // right
		mw.canvas,               // center
	)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		mw.info.Container(),               // right
		imageArea,                         // center
	)
	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1100, 750))

	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		mw.canvas.HandleKey(ev)
	})
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open...", mw.onOpen),
		fyne.NewMenuItem("Reload", mw.onReload),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Settings...", mw.onSettings),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)
	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, helpMenu))
}

// setupEventHandlers registers for application events. Listeners run on
// the worker goroutines.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if src, ok := data.(*pipeline.Source); ok {
			mw.SetTitle(title + " - " + src.Name)
			mw.updateStatus("Loaded " + src.Name)
		}
	})

	mw.state.On(app.EventBusyChanged, func(data interface{}) {
		if busy, ok := data.(bool); ok {
			mw.controls.setBusy(busy, mw.state.Frame())
		}
	})

	mw.state.On(app.EventCutsCalculated, func(data interface{}) {
		if r, ok := data.(cuts.Range); ok {
			mw.controls.showCuts(r)
		}
	})

	mw.state.On(app.EventImageDisplayed, func(data interface{}) {
		f, ok := data.(*pipeline.Frame)
		if !ok {
			return
		}
		mw.canvas.SetFrame(f)
		mw.info.setColorbar(f)
		mw.controls.sync(mw.state.Settings(), f)
		mw.updateStatus(fmt.Sprintf("%s: cuts %s, %s", f.Source.Name, f.Settings.Cuts, f.Settings.Stretch))
	})

	mw.state.On(app.EventTrimFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Ignoring TRIMSEC: " + err.Error())
		}
	})

	mw.state.On(app.EventDisplayFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Display failed")
			dialog.ShowError(err, mw.Window)
		}
	})

	mw.state.On(app.EventHoverResult, func(data interface{}) {
		if res, ok := data.(hover.Result); ok {
			mw.info.show(res, mw.state.Frame())
		}
	})
}

// Open loads a file and remembers its directory.
func (mw *MainWindow) Open(path string) {
	if err := mw.state.LoadImage(path); err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			mw.updateStatus("Busy, try again")
			return
		}
		logging.Error("Failed to load %s: %v", path, err)
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(path))
	mw.savePrefs()
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyLastDir, "")
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) savePrefs() {
	if err := mw.prefs.Save(); err != nil {
		logging.Warn("Failed to save preferences: %v", err)
	}
}

// Menu action handlers

func (mw *MainWindow) onOpen() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.Open(reader.URI().Path())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(fitsExtensions))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onReload() {
	path := mw.state.Path()
	if path == "" {
		return
	}
	mw.Open(path)
}

func (mw *MainWindow) onSettings() {
	showSettingsDialog(mw)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+title,
		fmt.Sprintf("%s v%s\n\n"+
			"Displays FITS images with cuts, stretch and colormaps.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			title, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
