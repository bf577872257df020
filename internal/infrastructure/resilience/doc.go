/*
Package resilience provides a circuit breaker for flaky upstreams.

# Overview

The catalog lookup service is a third party outside our control. When it
goes down, every resolution would otherwise burn a full retry-and-timeout
cycle before failing. The breaker notices a failure streak, suspends
calls for a cooldown, and probes the upstream afterwards to detect
recovery.

# Usage

	breaker := resilience.New("catalog", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Printf("breaker %s: %s -> %s", name, from, to)
		},
	})

	err := breaker.Do(func() error {
		return client.Call()
	})
	if errors.Is(err, resilience.ErrOpen) {
		// upstream suspended, call was never made
	}

# States

  - Closed: normal operation, calls pass through
  - Open: calls fail immediately with ErrOpen
  - Half-Open: a limited number of probes allowed through

# Transitions

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open
	   ^                             ^                      |
	   |                             |                      |
	   +-----[probe succeeds]--------+----[probe fails]-----+

A failure streak in the closed state is forgotten after Window passes
without tripping.
*/
package resilience
