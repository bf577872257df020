package batch

import (
	"context"
	"sync"
	"time"

	"github.com/schrebra/storeappx/internal/shared/id"
)

// State is the lifecycle of a run. Idle belongs to surfaces with no active
// run; a Run itself starts in Running and ends in one of the terminal
// states.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Terminal reports whether s is an end state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Result is the aggregate outcome of one run.
type Result struct {
	State            State
	TargetsAttempted int
	TargetsWithWork  int // targets that produced at least one new download
	FilesDownloaded  int
	FilesSkipped     int // candidates already present locally
	Errors           []*TargetError
	Duration         time.Duration
}

// NoWorkNeeded reports a clean completion where nothing had to be
// transferred: every candidate was already present or no links matched.
func (r Result) NoWorkNeeded() bool {
	return r.State == StateCompleted && r.FilesDownloaded == 0
}

// Partial reports a failed run that still produced some downloads.
func (r Result) Partial() bool {
	return r.State == StateFailed && r.TargetsWithWork > 0
}

// eventBuffer bounds the run's event channel. Emission never blocks the
// download pipeline; a consumer that stops draining loses events instead.
const eventBuffer = 256

// Run is one in-flight batch. Each call to Coordinator.Start returns a
// fresh Run; nothing is shared between runs.
type Run struct {
	id      string
	started time.Time
	events  chan ProgressEvent
	cancel  context.CancelFunc
	done    chan struct{}

	mu     sync.Mutex
	state  State
	result Result
}

func newRun(cancel context.CancelFunc) *Run {
	return &Run{
		id:      id.NewRun(),
		started: time.Now(),
		events:  make(chan ProgressEvent, eventBuffer),
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   StateRunning,
	}
}

// ID is the run's unique identifier.
func (r *Run) ID() string {
	return r.id
}

// Started is when the run was launched.
func (r *Run) Started() time.Time {
	return r.started
}

// Events is the run's progress stream. The channel is closed once the run
// reaches a terminal state.
func (r *Run) Events() <-chan ProgressEvent {
	return r.events
}

// Cancel requests cooperative cancellation. The pipeline stops between
// targets and between files, and aborts any transfer in flight; partial
// files are left on disk. Safe to call more than once.
func (r *Run) Cancel() {
	r.cancel()
}

// State returns the run's current state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Result returns the outcome once the run is terminal.
func (r *Run) Result() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.state.Terminal()
}

// Wait blocks until the run reaches a terminal state and returns its
// result.
func (r *Run) Wait() Result {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// emit delivers an event without ever stalling the pipeline.
func (r *Run) emit(ev ProgressEvent) {
	select {
	case r.events <- ev:
	default:
	}
}

// finish records the terminal result, closes the event stream, and wakes
// all waiters.
func (r *Run) finish(res Result) {
	res.Duration = time.Since(r.started)
	r.mu.Lock()
	r.state = res.State
	r.result = res
	r.mu.Unlock()
	close(r.events)
	close(r.done)
}
