package api

import (
	"context"
	"errors"
	"sync"

	"github.com/schrebra/storeappx/internal/batch"
)

// ErrRunActive is returned when a new run is requested while another one
// is still executing. Downloads are serialized per server.
var ErrRunActive = errors.New("a download run is already in progress")

// historyLimit bounds how many finished runs stay queryable.
const historyLimit = 20

// runEntry couples a run with its fan-out feed and the request that
// started it.
type runEntry struct {
	run  *batch.Run
	feed *feed
	req  batch.Request
}

// runRegistry tracks the active run and a bounded history of finished
// ones.
type runRegistry struct {
	coord *batch.Coordinator

	mu      sync.Mutex
	entries map[string]*runEntry
	order   []string
	active  string
}

func newRunRegistry(coord *batch.Coordinator) *runRegistry {
	return &runRegistry{
		coord:   coord,
		entries: make(map[string]*runEntry),
	}
}

// start launches a run unless one is still active.
func (rg *runRegistry) start(ctx context.Context, req batch.Request) (*runEntry, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	if rg.active != "" {
		if e := rg.entries[rg.active]; e != nil && !e.run.State().Terminal() {
			return nil, ErrRunActive
		}
	}
	run, err := rg.coord.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	entry := &runEntry{run: run, feed: newFeed(), req: req}
	rg.entries[run.ID()] = entry
	rg.order = append(rg.order, run.ID())
	rg.active = run.ID()

	if len(rg.order) > historyLimit {
		oldest := rg.order[0]
		rg.order = rg.order[1:]
		delete(rg.entries, oldest)
	}
	return entry, nil
}

// get returns the entry for id, or the active entry when id is empty.
func (rg *runRegistry) get(id string) (*runEntry, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	if id == "" {
		id = rg.active
	}
	e, ok := rg.entries[id]
	return e, ok
}

// list returns entries newest first.
func (rg *runRegistry) list() []*runEntry {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	out := make([]*runEntry, 0, len(rg.order))
	for i := len(rg.order) - 1; i >= 0; i-- {
		out = append(out, rg.entries[rg.order[i]])
	}
	return out
}

// cancelActive stops the in-flight run, if any.
func (rg *runRegistry) cancelActive() {
	rg.mu.Lock()
	entry := rg.entries[rg.active]
	rg.mu.Unlock()
	if entry != nil && !entry.run.State().Terminal() {
		entry.run.Cancel()
	}
}

// feed replays a run's progress stream to any number of subscribers, late
// joiners included.
type feed struct {
	mu   sync.Mutex
	past []batch.ProgressEvent
	subs map[chan batch.ProgressEvent]struct{}
	done bool
}

func newFeed() *feed {
	return &feed{subs: make(map[chan batch.ProgressEvent]struct{})}
}

func (f *feed) publish(ev batch.ProgressEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.past = append(f.past, ev)
	for sub := range f.subs {
		select {
		case sub <- ev:
		default:
			// slow subscriber loses events, never stalls the run
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	f.done = true
	for sub := range f.subs {
		close(sub)
	}
	f.subs = nil
}

// subscribe returns a channel that first replays everything published so
// far, then follows the live stream. The returned func unsubscribes.
func (f *feed) subscribe() (<-chan batch.ProgressEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan batch.ProgressEvent, len(f.past)+eventHeadroom)
	for _, ev := range f.past {
		ch <- ev
	}
	if f.done {
		close(ch)
		return ch, func() {}
	}
	f.subs[ch] = struct{}{}
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
	}
}

// eventHeadroom is extra buffer on top of the replayed backlog.
const eventHeadroom = 128
