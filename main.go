// Package main provides the entry point for the FITS viewer.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"fitsview/internal/app"
	"fitsview/internal/logging"
	"fitsview/internal/version"
	"fitsview/ui/mainwindow"
	"fitsview/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const (
	appID          = "io.github.fitsview"
	watchInterval  = time.Second
	reloadDeadline = 10 * time.Second
)

func main() {
	watch := flag.Bool("watch", false, "Re-display the image when the file changes")
	logLevel := flag.String("log-level", logging.LevelInfo, "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fitsview [-watch] [-log-level info] [image.fits]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("fitsview"))
		return
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := logging.SetLevel(*logLevel); err != nil {
		log.Fatal(err)
	}
	log.Printf("Starting %s", version.String("fitsview"))

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.FitsViewTheme{})

	appState := app.NewState()
	defer appState.Close()
	appPrefs := prefs.Load()

	win := mainwindow.New(a, appState, appPrefs)

	// Handle command line arguments
	if flag.NArg() > 0 {
		path := flag.Arg(0)
		win.Open(path)
		if *watch {
			if w := setupWatch(path, appState); w != nil {
				defer w.Stop()
			}
		}
	} else if *watch {
		log.Println("Watch: no file given, ignoring -watch")
	}

	win.ShowAndRun()
}

// setupWatch re-displays path whenever its modification time changes.
func setupWatch(path string, state *app.State) *app.FileWatcher {
	w, err := app.NewFileWatcher(path, watchInterval)
	if err != nil {
		log.Printf("Watch: unable to watch %s: %v", path, err)
		return nil
	}
	log.Printf("Watch: watching %s", w.Path())

	w.OnChange(func(p string) {
		log.Printf("Watch: %s changed, reloading", p)
		if err := reloadWhenIdle(state, p); err != nil {
			log.Printf("Watch: reload failed: %v", err)
		}
	})
	w.Start()
	return w
}

// reloadWhenIdle waits for a running recompute to finish before loading, so
// a change is not lost to a rejected request.
func reloadWhenIdle(state *app.State, path string) error {
	deadline := time.Now().Add(reloadDeadline)
	for state.Busy() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	return state.LoadImage(path)
}
