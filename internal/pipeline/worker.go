package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"fitsview/internal/logging"
)

// ErrBusy is returned by Submit while a recompute is in flight.
var ErrBusy = errors.New("recompute already in progress")

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("worker stopped")

// Request asks for one full run.
type Request struct {
	Source   *Source
	Settings Settings
}

// Result is the single message published per request. Exactly one of Frame
// and Err is set.
type Result struct {
	Request  Request
	Frame    *Frame
	Err      error
	Duration time.Duration
}

// Worker runs pipeline requests one at a time on a dedicated goroutine.
// Requests submitted while one is running are rejected with ErrBusy rather
// than queued.
type Worker struct {
	requests chan Request
	stopCh   chan struct{}
	done     chan struct{}
	busy     atomic.Bool
	onResult func(Result)

	// mu orders Submit against Stop.
	mu      sync.Mutex
	stopped bool

	// Owned by the worker goroutine.
	prepared *Prepared
}

// NewWorker starts a worker. onResult is called from the worker goroutine
// after the busy flag has been cleared, so it may submit again.
func NewWorker(onResult func(Result)) *Worker {
	w := &Worker{
		requests: make(chan Request, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		onResult: onResult,
	}
	go w.loop()
	return w
}

// Submit hands a request to the worker without blocking.
func (w *Worker) Submit(req Request) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	if !w.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	select {
	case w.requests <- req:
		return nil
	default:
		// Unreachable while busy guards the channel.
		w.busy.Store(false)
		return ErrBusy
	}
}

// Busy reports whether a request is in flight.
func (w *Worker) Busy() bool {
	return w.busy.Load()
}

// Stop ends the worker goroutine and waits for a running request to finish.
// A request accepted but not yet started is dropped.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.stopCh)
	}
	w.mu.Unlock()
	<-w.done

	select {
	case <-w.requests:
	default:
	}
	w.busy.Store(false)
}

func (w *Worker) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopCh:
			return
		case req := <-w.requests:
			res := w.run(req)
			w.busy.Store(false)
			if w.onResult != nil {
				w.onResult(res)
			}
		}
	}
}

func (w *Worker) run(req Request) Result {
	start := time.Now()
	res := Result{Request: req}

	p := w.prepared
	if p == nil || p.Source != req.Source || p.TrimEnabled != req.Settings.TrimEnabled {
		var err error
		p, err = Prepare(req.Source, req.Settings.TrimEnabled)
		if err != nil {
			res.Err = err
			res.Duration = time.Since(start)
			logging.Error("Pipeline: %v", err)
			return res
		}
		w.prepared = p
	}

	res.Frame, res.Err = Render(context.Background(), p, req.Settings)
	res.Duration = time.Since(start)
	if res.Err != nil {
		logging.Error("Pipeline: %v", res.Err)
	} else {
		logging.Debug("Pipeline: rendered %s in %v (cuts %v, %v)", req.Source.Name, res.Duration, res.Frame.Settings.Cuts, res.Frame.Settings.Stretch)
	}
	return res
}
