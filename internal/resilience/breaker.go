// Package resilience provides reliability patterns for external service calls.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// Breaker tracks consecutive failures of an external dependency and stops
// forwarding calls once a threshold is reached. After the cooldown it lets
// a single probe call through; the probe's outcome decides whether the
// circuit closes again.
type Breaker struct {
	mu          sync.Mutex
	state       breakerState
	consecutive int
	maxFailures int
	cooldown    time.Duration
	openedAt    time.Time
	clock       func() time.Time // injectable for tests
}

// NewBreaker creates a circuit breaker that opens after maxFailures
// consecutive failures and stays open for the given cooldown.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		clock:       time.Now,
	}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without calling fn.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerOpen {
		if b.clock().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = breakerHalfOpen
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.consecutive = 0
		b.state = breakerClosed
		return
	}

	b.consecutive++
	if b.state == breakerHalfOpen || b.consecutive >= b.maxFailures {
		b.state = breakerOpen
		b.openedAt = b.clock()
	}
}
