// Package llmprovider implements engine.LLMProvider over real HTTP-backed
// chat completion APIs, guarded by a circuit breaker so a flaky judge
// backend degrades to GRM's heuristic fallback instead of stalling scoring.
package llmprovider

import (
	"errors"
	"log"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("llm provider circuit open")
	ErrTooManyRequests = errors.New("too many half-open probe requests")
)

type circuitState string

const (
	stateClosed   circuitState = "closed"
	stateOpen     circuitState = "open"
	stateHalfOpen circuitState = "half-open"
)

// breaker trips after consecutive judge-call failures and holds the
// provider open for a cooldown window before probing again.
type breaker struct {
	mu                   sync.Mutex
	state                circuitState
	failureCount         int
	consecutiveSuccesses int
	halfOpenProbes       int
	lastFailure          time.Time

	failureThreshold int
	successThreshold int
	halfOpenMax      int
	cooldown         time.Duration

	name string
}

func newBreaker(name string, failureThreshold int, cooldown time.Duration) *breaker {
	if failureThreshold < 1 {
		failureThreshold = 3
	}
	if cooldown < time.Second {
		cooldown = 30 * time.Second
	}
	return &breaker{
		name: name, state: stateClosed,
		failureThreshold: failureThreshold, successThreshold: 2, halfOpenMax: 2, cooldown: cooldown,
	}
}

func (b *breaker) call(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn()
	b.after(err)
	return err
}

func (b *breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return nil
	case stateOpen:
		if time.Since(b.lastFailure) > b.cooldown {
			b.state = stateHalfOpen
			b.halfOpenProbes = 0
			b.consecutiveSuccesses = 0
			log.Printf("[llmprovider:%s] circuit open -> half-open, probing", b.name)
			return nil
		}
		return ErrCircuitOpen
	case stateHalfOpen:
		if b.halfOpenProbes >= b.halfOpenMax {
			return ErrTooManyRequests
		}
		b.halfOpenProbes++
		return nil
	}
	return nil
}

func (b *breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failureCount++
		b.consecutiveSuccesses = 0
		b.lastFailure = time.Now()
		if b.state == stateHalfOpen || b.failureCount >= b.failureThreshold {
			if b.state != stateOpen {
				log.Printf("[llmprovider:%s] circuit -> open (%d failures)", b.name, b.failureCount)
			}
			b.state = stateOpen
		}
		return
	}

	b.consecutiveSuccesses++
	switch b.state {
	case stateClosed:
		b.failureCount = 0
	case stateHalfOpen:
		if b.consecutiveSuccesses >= b.successThreshold {
			log.Printf("[llmprovider:%s] circuit -> closed (recovered)", b.name)
			b.state = stateClosed
			b.failureCount = 0
		}
	}
}
