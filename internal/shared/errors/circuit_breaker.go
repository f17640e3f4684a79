package errors

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CircuitState is one of Closed/Open/HalfOpen.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig tunes when a breaker trips and recovers.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	OnStateChange    func(from, to CircuitState, name string)
}

// DefaultCircuitBreakerConfig matches the defaults used for external API
// clients (issue trackers, agent CLI health checks) throughout C11.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// CircuitBreakerMetrics is a point-in-time snapshot for /metrics and /status.
type CircuitBreakerMetrics struct {
	Name         string
	State        CircuitState
	FailureCount int
	SuccessCount int
}

// CircuitBreaker protects a flaky dependency: after FailureThreshold
// consecutive failures it opens and rejects calls for Timeout, then allows a
// trial call (half-open); SuccessThreshold consecutive half-open successes
// close it again, and any half-open failure reopens it.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig

	mu           sync.Mutex
	state        CircuitState
	failureCount int
	successCount int
	openedAt     time.Time
}

// NewCircuitBreaker creates a breaker in the Closed state.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{name: name, config: config, state: StateClosed}
}

// State returns the current state, transitioning Open->HalfOpen if the
// timeout has elapsed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransitionToHalfOpenLocked()
	return cb.state
}

func (cb *CircuitBreaker) maybeTransitionToHalfOpenLocked() {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.Timeout {
		cb.setStateLocked(StateHalfOpen)
		cb.successCount = 0
	}
}

func (cb *CircuitBreaker) setStateLocked(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if to == StateOpen {
		cb.openedAt = time.Now()
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to, cb.name)
	}
}

// Execute runs fn if the circuit permits it, updating state from the result.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	cb.mu.Lock()
	cb.maybeTransitionToHalfOpenLocked()
	if cb.state == StateOpen {
		cb.mu.Unlock()
		return NewDegradedError(fmt.Errorf("circuit %q is open", cb.name), fmt.Sprintf("circuit %q is open", cb.name), "reject")
	}
	cb.mu.Unlock()

	err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failureCount++
		cb.successCount = 0
		if cb.state == StateHalfOpen {
			cb.setStateLocked(StateOpen)
		} else if cb.failureCount >= cb.config.FailureThreshold {
			cb.setStateLocked(StateOpen)
		}
		return err
	}

	cb.failureCount = 0
	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.setStateLocked(StateClosed)
			cb.successCount = 0
		}
	}
	return nil
}

// Metrics returns a snapshot of the breaker's counters and state.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransitionToHalfOpenLocked()
	return CircuitBreakerMetrics{
		Name:         cb.name,
		State:        cb.state,
		FailureCount: cb.failureCount,
		SuccessCount: cb.successCount,
	}
}

// Reset forces the breaker back to Closed with counters zeroed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setStateLocked(StateClosed)
	cb.failureCount = 0
	cb.successCount = 0
}

// ExecuteFunc adapts Execute to a function that also returns a value.
func ExecuteFunc[T any](cb *CircuitBreaker, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		r, err := fn(ctx)
		result = r
		return err
	})
	return result, err
}

// CircuitBreakerManager owns one breaker per named dependency (e.g. one per
// issue-tracker client), created lazily on first Get.
type CircuitBreakerManager struct {
	config CircuitBreakerConfig

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewCircuitBreakerManager creates a manager applying config to every
// breaker it lazily creates.
func NewCircuitBreakerManager(config CircuitBreakerConfig) *CircuitBreakerManager {
	return &CircuitBreakerManager{config: config, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for name, creating it if necessary.
func (m *CircuitBreakerManager) Get(name string) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cb, ok := m.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(name, m.config)
	m.breakers[name] = cb
	return cb
}

// GetMetrics returns a snapshot for every known breaker.
func (m *CircuitBreakerManager) GetMetrics() []CircuitBreakerMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CircuitBreakerMetrics, 0, len(m.breakers))
	for _, cb := range m.breakers {
		out = append(out, cb.Metrics())
	}
	return out
}

// ResetAll resets every known breaker to Closed.
func (m *CircuitBreakerManager) ResetAll() {
	m.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(m.breakers))
	for _, cb := range m.breakers {
		breakers = append(breakers, cb)
	}
	m.mu.Unlock()
	for _, cb := range breakers {
		cb.Reset()
	}
}

// Remove deletes the named breaker; a subsequent Get creates a fresh one.
func (m *CircuitBreakerManager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.breakers, name)
}
