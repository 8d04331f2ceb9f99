package hover

import (
	"sync"
	"sync/atomic"

	"fitsview/internal/logging"
	"fitsview/internal/pipeline"
)

// Stats counts queries by outcome.
type Stats struct {
	Dispatched uint64
	Dropped    uint64
	Completed  uint64
}

type task struct {
	frame *pipeline.Frame
	x, y  float64
}

// Engine runs at most one query at a time on a worker goroutine. A query
// arriving while another is in flight is dropped, never queued.
type Engine struct {
	tasks    chan task
	stopCh   chan struct{}
	done     chan struct{}
	inFlight atomic.Bool
	onResult func(Result)

	// mu orders Query against Stop.
	mu      sync.Mutex
	stopped bool

	dispatched atomic.Uint64
	dropped    atomic.Uint64
	completed  atomic.Uint64
}

// NewEngine starts the worker. onResult is called from the worker goroutine;
// the engine accepts the next query once it returns.
func NewEngine(onResult func(Result)) *Engine {
	e := &Engine{
		tasks:    make(chan task, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		onResult: onResult,
	}
	go e.loop()
	return e
}

// Query dispatches a query at data coordinates (x = column, y = data row).
// It never blocks and reports false when the query was dropped.
func (e *Engine) Query(f *pipeline.Frame, x, y float64) bool {
	if f == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		e.dropped.Add(1)
		return false
	}
	e.dispatched.Add(1)
	e.tasks <- task{frame: f, x: x, y: y}
	return true
}

// Busy reports whether a query is in flight.
func (e *Engine) Busy() bool {
	return e.inFlight.Load()
}

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Dispatched: e.dispatched.Load(),
		Dropped:    e.dropped.Load(),
		Completed:  e.completed.Load(),
	}
}

// Stop ends the worker after any running query.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.stopped {
		e.stopped = true
		close(e.stopCh)
	}
	e.mu.Unlock()
	<-e.done

	select {
	case <-e.tasks:
	default:
	}
	e.inFlight.Store(false)
	s := e.Stats()
	logging.Debug("Hover: stopped after %d queries (%d dropped)", s.Completed, s.Dropped)
}

func (e *Engine) loop() {
	defer close(e.done)
	for {
		select {
		case <-e.stopCh:
			return
		case t := <-e.tasks:
			res := Compute(t.frame, t.x, t.y)
			if e.onResult != nil {
				e.onResult(res)
			}
			e.completed.Add(1)
			e.inFlight.Store(false)
		}
	}
}
