package circuit

import (
	"sync"
	"time"

	"sibyl/internal/logger"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Breaker guards order placement. Transient failures count toward the
// threshold; a fatal failure (Trip) opens the breaker immediately and keeps
// it open until an operator calls Reset; timeouts never re-close a tripped
// breaker on their own.
type Breaker struct {
	mu            sync.Mutex
	state         State
	failures      int
	threshold     int
	timeout       time.Duration
	lastFailure   time.Time
	tripped       bool
	name          string
	onStateChange func(name string, from, to State)
}

func NewBreaker(name string, threshold int, timeout time.Duration) *Breaker {
	return &Breaker{
		name:      name,
		threshold: threshold,
		timeout:   timeout,
		state:     StateClosed,
	}
}

func (b *Breaker) SetStateChangeHandler(handler func(name string, from, to State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = handler
}

func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if !b.tripped && time.Since(b.lastFailure) > b.timeout {
			b.transition(StateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.transition(StateClosed)
		b.failures = 0
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.threshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.transition(StateOpen)
	}
}

// Trip opens the breaker unconditionally. Used on fatal exchange errors
// (auth/permission); only Reset re-arms it.
func (b *Breaker) Trip() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tripped = true
	b.lastFailure = time.Now()
	if b.state != StateOpen {
		b.transition(StateOpen)
	}
}

// Reset closes the breaker after operator intervention.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tripped = false
	b.failures = 0
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if b.onStateChange != nil {
		go b.onStateChange(b.name, from, to)
	} else {
		logger.Warnf("Breaker %s state change: %s -> %s (failures=%d/%d)",
			b.name, from, to, b.failures, b.threshold)
	}
}
