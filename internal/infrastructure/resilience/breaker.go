package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is refusing calls outright.
var ErrOpen = errors.New("upstream suspended after repeated failures")

// ErrProbing is returned in the half-open state once the probe budget is
// taken.
var ErrProbing = errors.New("upstream recovery probe already in flight")

// State is the breaker's lifecycle position.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings tunes a Breaker. Zero values get working defaults.
type Settings struct {
	// Threshold is how many consecutive failures trip the breaker.
	Threshold uint32
	// Cooldown is how long the breaker stays open before probing the
	// upstream again.
	Cooldown time.Duration
	// Probes is how many trial calls the half-open state admits at once.
	Probes uint32
	// Window is the closed-state period after which the failure streak
	// is forgotten.
	Window time.Duration
	// OnStateChange observes transitions, typically for logging.
	OnStateChange func(name string, from, to State)
}

// Counts is the breaker's view of recent traffic.
type Counts struct {
	Requests             uint32
	Successes            uint32
	Failures             uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker fails calls fast once an upstream has shown itself down, and
// lets a probe through after a cooldown to detect recovery.
type Breaker struct {
	name     string
	settings Settings

	mu     sync.Mutex
	state  State
	counts Counts
	expiry time.Time
}

// New creates a breaker named for the upstream it guards.
func New(name string, settings Settings) *Breaker {
	if settings.Threshold == 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Probes == 0 {
		settings.Probes = 1
	}
	if settings.Window == 0 {
		settings.Window = time.Minute
	}
	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
		expiry:   time.Now().Add(settings.Window),
	}
}

// Name identifies the guarded upstream.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, advancing open to half-open when the
// cooldown has passed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, _ := b.currentState(time.Now())
	return state
}

// Counts returns a copy of the current traffic counters.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs fn unless the breaker refuses it, and feeds the outcome back
// into the state machine. Refusals return ErrOpen or ErrProbing without
// invoking fn.
func (b *Breaker) Do(fn func() error) error {
	generation, err := b.admit()
	if err != nil {
		return err
	}
	err = fn()
	b.observe(generation, err == nil)
	return err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state, generation := b.currentState(now)

	if state == StateOpen {
		return generation, ErrOpen
	}
	if state == StateHalfOpen && b.counts.Requests >= b.settings.Probes {
		return generation, ErrProbing
	}

	b.counts.Requests++
	return generation, nil
}

// observe records an outcome. Outcomes from a previous generation are
// ignored; the state they belong to is gone.
func (b *Breaker) observe(before uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state, generation := b.currentState(now)
	if generation != before {
		return
	}

	if success {
		b.onSuccess(state, now)
	} else {
		b.onFailure(state, now)
	}
}

func (b *Breaker) onSuccess(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.Successes++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
	case StateHalfOpen:
		b.counts.Successes++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if b.counts.ConsecutiveSuccesses >= b.settings.Probes {
			b.transition(StateClosed, now)
		}
	}
}

func (b *Breaker) onFailure(state State, now time.Time) {
	switch state {
	case StateClosed:
		b.counts.Failures++
		b.counts.ConsecutiveFailures++
		b.counts.ConsecutiveSuccesses = 0
		if b.counts.ConsecutiveFailures >= b.settings.Threshold {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		// A failed probe means the upstream is still down.
		b.transition(StateOpen, now)
	}
}

// currentState advances time-driven transitions and returns the state
// with its generation. The generation changes on every transition and
// on every closed-state window roll.
func (b *Breaker) currentState(now time.Time) (State, uint64) {
	switch b.state {
	case StateClosed:
		if !b.expiry.IsZero() && b.expiry.Before(now) {
			b.counts = Counts{}
			b.expiry = now.Add(b.settings.Window)
		}
	case StateOpen:
		if b.expiry.Before(now) {
			b.transition(StateHalfOpen, now)
		}
	}
	return b.state, uint64(b.expiry.UnixNano())
}

func (b *Breaker) transition(state State, now time.Time) {
	if b.state == state {
		return
	}
	prev := b.state
	b.state = state
	b.counts = Counts{}

	switch state {
	case StateClosed:
		b.expiry = now.Add(b.settings.Window)
	case StateOpen:
		b.expiry = now.Add(b.settings.Cooldown)
	case StateHalfOpen:
		b.expiry = time.Time{}
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
