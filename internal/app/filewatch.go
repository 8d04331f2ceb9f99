package app

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWatcher polls a file and triggers a callback whenever its modification
// time changes. The viewer uses it to re-display images rewritten by an
// acquisition program.
type FileWatcher struct {
	mu            sync.Mutex
	path          string
	modTime       time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
	onChange      func(path string) // Called from the watch goroutine
}

// NewFileWatcher creates a watcher for path. It fails if the file cannot be
// stat'ed.
func NewFileWatcher(path string, checkInterval time.Duration) (*FileWatcher, error) {
	// Resolve symlinks so a replaced target is noticed
	if realPath, err := filepath.EvalSymlinks(path); err == nil {
		path = realPath
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		path:          path,
		modTime:       info.ModTime(),
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}, nil
}

// OnChange sets the callback to invoke when the file changes.
// The callback is called from a background goroutine.
func (w *FileWatcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Start begins watching in a background goroutine.
func (w *FileWatcher) Start() {
	// Create a fresh stop channel in case we're restarting
	w.stopCh = make(chan struct{})
	go w.watchLoop(w.stopCh)
}

// Stop stops the watcher goroutine.
func (w *FileWatcher) Stop() {
	close(w.stopCh)
}

// Path returns the watched file.
func (w *FileWatcher) Path() string {
	return w.path
}

func (w *FileWatcher) watchLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if w.checkForUpdate() {
				w.mu.Lock()
				cb := w.onChange
				w.mu.Unlock()
				if cb != nil {
					cb(w.path)
				}
			}
		}
	}
}

// checkForUpdate returns true once per modification time change.
func (w *FileWatcher) checkForUpdate() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		// Writers often replace the file; try again on the next tick
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if info.ModTime().Equal(w.modTime) {
		return false
	}
	w.modTime = info.ModTime()
	return true
}
