// Package breaker implements a per-host circuit breaker: after a run of
// consecutive failures it trips, fails fast for a cooldown window, then
// clears its state and closes again; it re-trips only after another full
// run of threshold consecutive failures.
package breaker

import (
	"sync"
	"time"
)

const (
	DefaultThreshold uint32        = 5
	DefaultCooldown  time.Duration = 60 * time.Second
)

type hostState struct {
	failures  uint32
	trippedAt time.Time
}

// CircuitBreaker tracks per-host failure streaks.
type CircuitBreaker struct {
	threshold uint32
	cooldown  time.Duration

	mu    sync.Mutex
	hosts map[string]*hostState

	now func() time.Time
}

func New(threshold uint32, cooldown time.Duration) *CircuitBreaker {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		hosts:     make(map[string]*hostState),
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) stateFor(host string) *hostState {
	hs, ok := cb.hosts[host]
	if !ok {
		hs = &hostState{}
		cb.hosts[host] = hs
	}
	return hs
}

// RecordSuccess clears the failure streak and any tripped state for host.
func (cb *CircuitBreaker) RecordSuccess(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	hs := cb.stateFor(host)
	hs.failures = 0
	hs.trippedAt = time.Time{}
}

// RecordFailure increments the failure streak, tripping the breaker once it
// reaches threshold.
func (cb *CircuitBreaker) RecordFailure(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	hs := cb.stateFor(host)
	hs.failures++
	if hs.failures >= cb.threshold && hs.trippedAt.IsZero() {
		hs.trippedAt = cb.now()
	}
}

// IsOpen reports whether requests to host should be blocked. A tripped
// breaker past its cooldown window clears its failure streak and tripped
// state and returns false; it stays closed for every later call until
// threshold new consecutive failures trip it again. There is no separate
// half-open state that limits traffic to a single probe.
func (cb *CircuitBreaker) IsOpen(host string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	hs := cb.stateFor(host)
	if hs.trippedAt.IsZero() {
		return false
	}
	if cb.now().Sub(hs.trippedAt) >= cb.cooldown {
		hs.failures = 0
		hs.trippedAt = time.Time{}
		return false
	}
	return true
}
