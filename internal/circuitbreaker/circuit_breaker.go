// Package circuitbreaker stops calling a failing dependency for a cool-down
// period so callers can fall back quickly.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Errors
var (
	ErrCircuitOpen               = errors.New("circuit breaker is open")
	ErrTooManyConcurrentRequests = errors.New("too many concurrent requests in half-open state")
)

// Config holds circuit breaker configuration
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that close it again
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing
	Timeout time.Duration
	// MaxConcurrentRequests in half-open state
	MaxConcurrentRequests int
	// IsFailure decides which errors count against the dependency.
	// Context cancellation is never a failure.
	IsFailure func(error) bool
	// OnStateChange is called when the circuit state changes
	OnStateChange func(from, to State)
	// Now is the clock; defaults to time.Now
	Now func() time.Time
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		FailureThreshold:      5,
		SuccessThreshold:      2,
		Timeout:               30 * time.Second,
		MaxConcurrentRequests: 1,
	}
}

// Stats holds circuit breaker statistics
type Stats struct {
	State             State
	TotalRequests     int64
	TotalFailures     int64
	TotalSuccesses    int64
	TotalRejections   int64
	LastFailureTime   time.Time
	ConsecutiveErrors int
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	config Config

	mu                   sync.Mutex
	state                State
	openedAt             time.Time
	consecutiveFailures  int
	consecutiveSuccesses int
	halfOpenRequests     int
	stats                Stats
}

// New creates a new circuit breaker
func New(config *Config) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{config: cfg, state: StateClosed}
}

// Execute runs fn unless the circuit is open
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	halfOpen, err := cb.acquire()
	if err != nil {
		return err
	}

	err = fn(ctx)
	cb.record(err, halfOpen)
	return err
}

// acquire admits a call and reports whether it is a half-open probe
func (cb *CircuitBreaker) acquire() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.config.Now().Sub(cb.openedAt) >= cb.config.Timeout {
		cb.transitionLocked(StateHalfOpen)
	}

	switch cb.state {
	case StateOpen:
		cb.stats.TotalRejections++
		return false, ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenRequests >= cb.config.MaxConcurrentRequests {
			cb.stats.TotalRejections++
			return false, ErrTooManyConcurrentRequests
		}
		cb.halfOpenRequests++
		cb.stats.TotalRequests++
		return true, nil
	default:
		cb.stats.TotalRequests++
		return false, nil
	}
}

func (cb *CircuitBreaker) record(err error, halfOpen bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if halfOpen && cb.halfOpenRequests > 0 {
		cb.halfOpenRequests--
	}

	if !cb.isFailure(err) {
		cb.stats.TotalSuccesses++
		cb.consecutiveFailures = 0
		if cb.state == StateHalfOpen {
			cb.consecutiveSuccesses++
			if cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
				cb.transitionLocked(StateClosed)
			}
		}
		return
	}

	cb.stats.TotalFailures++
	cb.stats.LastFailureTime = cb.config.Now()
	cb.consecutiveFailures++

	switch cb.state {
	case StateClosed:
		if cb.consecutiveFailures >= cb.config.FailureThreshold {
			cb.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		// Any failure in half-open state reopens the circuit
		cb.transitionLocked(StateOpen)
	}
}

func (cb *CircuitBreaker) isFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if cb.config.IsFailure != nil {
		return cb.config.IsFailure(err)
	}
	return true
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.consecutiveSuccesses = 0

	switch to {
	case StateClosed:
		cb.consecutiveFailures = 0
	case StateOpen:
		cb.openedAt = cb.config.Now()
	case StateHalfOpen:
		cb.halfOpenRequests = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns current statistics
func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	stats := cb.stats
	stats.State = cb.state
	stats.ConsecutiveErrors = cb.consecutiveFailures
	return stats
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateClosed)
	cb.consecutiveFailures = 0
	cb.halfOpenRequests = 0
}
