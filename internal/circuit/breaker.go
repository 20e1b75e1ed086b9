// Package circuit suspends a failing dependency for a while instead of
// calling it again on every use.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	// StateClosed - calls pass through
	StateClosed State = iota
	// StateOpen - calls are rejected until the timeout elapsed
	StateOpen
	// StateHalfOpen - one trial call decides between closed and open
	StateHalfOpen
)

// String returns string representation of state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Default settings used for zero Config fields.
const (
	DefaultFailureThreshold = 3
	DefaultTimeout          = 5 * time.Minute
)

// Config contains circuit breaker configuration
type Config struct {
	// Consecutive failures that open the breaker
	FailureThreshold int `yaml:"failure_threshold"`

	// Period of the open state after which a trial call is let through
	Timeout time.Duration `yaml:"timeout"`

	// Function called when state changes
	OnStateChange func(name string, from State, to State) `yaml:"-"`
}

// ErrOpenState is returned when the circuit breaker is open
var ErrOpenState = errors.New("circuit breaker is open")

// Breaker opens after FailureThreshold consecutive failures. A nil
// *Breaker lets every call through.
type Breaker struct {
	name   string
	config Config
	now    func() time.Time

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time
}

// New creates a closed breaker
func New(name string, config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultFailureThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Breaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Execute runs fn unless the breaker is open, in which case ErrOpenState
// is returned without calling fn.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if b == nil {
		return fn(ctx)
	}

	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)
	b.afterCall(err)
	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.currentState() == StateOpen {
		return ErrOpenState
	}
	return nil
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.consecutiveFailures = 0
		b.setState(StateClosed)
		return
	}

	b.consecutiveFailures++
	if b.state == StateHalfOpen || b.consecutiveFailures >= b.config.FailureThreshold {
		b.openedAt = b.now()
		b.setState(StateOpen)
	}
}

// currentState moves an expired open breaker to half-open. Callers hold mu.
func (b *Breaker) currentState() State {
	if b.state == StateOpen && !b.now().Before(b.openedAt.Add(b.config.Timeout)) {
		b.setState(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) setState(state State) {
	prev := b.state
	if prev == state {
		return
	}
	b.state = state

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(b.name, prev, state)
	}
}

// GetState returns the current state of the circuit breaker
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.currentState()
}

// ConsecutiveFailures returns the failures since the last success
func (b *Breaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.consecutiveFailures
}

// Reset closes the breaker and forgets past failures
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.setState(StateClosed)
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}
