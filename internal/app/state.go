// Package app provides application state, background workers, and events.
package app

import (
	"errors"
	"path/filepath"
	"sync"

	"fitsview/internal/colormap"
	"fitsview/internal/cuts"
	"fitsview/internal/hover"
	"fitsview/internal/image"
	"fitsview/internal/logging"
	"fitsview/internal/pipeline"
	"fitsview/internal/stretch"
)

// State holds the current image, display settings, and the last rendered
// frame. Mutations go through the recompute worker; the snapshot fields are
// only replaced when a run completes.
type State struct {
	mu sync.RWMutex

	// Image
	ImagePath string
	source    *pipeline.Source

	// Display
	settings pipeline.Settings
	frame    *pipeline.Frame

	worker *pipeline.Worker
	hover  *hover.Engine

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventImageLoaded    EventType = iota // *pipeline.Source
	EventImageDisplayed                  // *pipeline.Frame
	EventCutsCalculated                  // cuts.Range
	EventDisplayFailed                   // error
	EventHoverResult                     // hover.Result
	EventBusyChanged                     // bool
	EventTrimFailed                      // error
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state with its workers running.
func NewState() *State {
	s := &State{
		settings:  pipeline.DefaultSettings(),
		listeners: make(map[EventType][]EventListener),
	}
	s.worker = pipeline.NewWorker(s.onResult)
	s.hover = hover.NewEngine(func(r hover.Result) {
		s.Emit(EventHoverResult, r)
	})
	return s
}

// Close stops the background workers.
func (s *State) Close() {
	s.worker.Stop()
	s.hover.Stop()
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Settings returns the display settings of the current frame.
func (s *State) Settings() pipeline.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Frame returns the last rendered frame, or nil.
func (s *State) Frame() *pipeline.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Source returns the displayed image, or nil.
func (s *State) Source() *pipeline.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Path returns the file of the last loaded image, or "".
func (s *State) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ImagePath
}

// Busy reports whether a recompute is in flight.
func (s *State) Busy() bool {
	return s.worker.Busy()
}

// LoadImage reads a FITS file and displays it with the current settings.
func (s *State) LoadImage(path string) error {
	f, err := image.Load(path)
	if err != nil {
		return err
	}
	src := &pipeline.Source{Name: filepath.Base(path), Header: f.Header, Raw: f.Raw}

	s.mu.Lock()
	s.ImagePath = path
	s.mu.Unlock()

	s.Emit(EventImageLoaded, src)
	return s.Display(src)
}

// Display starts a run for a new image. It returns pipeline.ErrBusy if a
// recompute is already in flight.
func (s *State) Display(src *pipeline.Source) error {
	return s.submit(src, s.Settings())
}

// SetSettings re-renders the current image with new settings. On
// pipeline.ErrBusy nothing changes.
func (s *State) SetSettings(settings pipeline.Settings) error {
	src := s.Source()
	if src == nil {
		s.mu.Lock()
		s.settings = settings
		s.mu.Unlock()
		return nil
	}
	return s.submit(src, settings)
}

// SetStretch changes the stretch function.
func (s *State) SetStretch(k stretch.Kind) error {
	return s.SetSettings(s.Settings().WithStretch(k))
}

// SetPalette changes the colormap.
func (s *State) SetPalette(p colormap.Palette) error {
	return s.SetSettings(s.Settings().WithPalette(p))
}

// SetPreset changes the cuts preset.
func (s *State) SetPreset(p cuts.Preset) error {
	return s.SetSettings(s.Settings().WithPreset(p))
}

// SetCustomCuts switches to user supplied cuts.
func (s *State) SetCustomCuts(lo, hi float64) error {
	return s.SetSettings(s.Settings().WithCustomCuts(lo, hi))
}

// SetTrim switches TRIMSEC masking on or off.
func (s *State) SetTrim(enabled bool) error {
	return s.SetSettings(s.Settings().WithTrim(enabled))
}

// Hover queries the current frame at data coordinates. It reports false when
// no frame is shown or the query was dropped.
func (s *State) Hover(x, y float64) bool {
	return s.hover.Query(s.Frame(), x, y)
}

// HoverStats returns the hover engine counters.
func (s *State) HoverStats() hover.Stats {
	return s.hover.Stats()
}

func (s *State) submit(src *pipeline.Source, settings pipeline.Settings) error {
	err := s.worker.Submit(pipeline.Request{Source: src, Settings: settings})
	if err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			logging.Debug("Pipeline: request rejected while busy")
		}
		return err
	}
	s.Emit(EventBusyChanged, true)
	return nil
}

// onResult runs on the worker goroutine.
func (s *State) onResult(res pipeline.Result) {
	if res.Err != nil {
		s.Emit(EventBusyChanged, false)
		s.Emit(EventDisplayFailed, res.Err)
		return
	}

	f := res.Frame
	settings := res.Request.Settings
	settings.Cuts = f.Settings.Cuts

	s.mu.Lock()
	s.source = res.Request.Source
	s.settings = settings
	s.frame = f
	s.mu.Unlock()

	s.Emit(EventBusyChanged, false)
	if f.TrimErr != nil {
		s.Emit(EventTrimFailed, f.TrimErr)
	}
	s.Emit(EventCutsCalculated, f.Settings.Cuts)
	s.Emit(EventImageDisplayed, f)
}
