// Package circuitbreaker guards calls to a remote checkout endpoint. After enough
// consecutive failures the circuit opens and launches are refused until ResetTimeout
// has passed; the next launch then probes the endpoint in the half-open state.
package circuitbreaker

import (
	"sync"
	"time"
)

// State represents the state of one endpoint's circuit.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

const (
	defaultFailureThreshold = 3
	defaultResetTimeout     = 30 * time.Second
)

// Config tunes a CircuitBreaker. Zero values fall back to the defaults.
type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

type endpointState struct {
	state               State
	consecutiveFailures int
	openUntil           time.Time
}

// CircuitBreaker tracks health per endpoint key. It is safe for concurrent use.
type CircuitBreaker struct {
	mu        sync.Mutex
	cfg       Config
	endpoints map[string]*endpointState
}

func NewCircuitBreaker(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaultResetTimeout
	}
	return &CircuitBreaker{
		cfg:       cfg,
		endpoints: make(map[string]*endpointState),
	}
}

// endpointFor must be called with cb.mu held.
func (cb *CircuitBreaker) endpointFor(key string) *endpointState {
	es, ok := cb.endpoints[key]
	if !ok {
		es = &endpointState{state: StateClosed}
		cb.endpoints[key] = es
	}
	return es
}

// AllowRequest reports whether a call to key may proceed. An open circuit whose
// timeout has expired moves to half-open and lets the call through.
func (cb *CircuitBreaker) AllowRequest(key string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es := cb.endpointFor(key)
	switch es.state {
	case StateOpen:
		if time.Now().Before(es.openUntil) {
			return false
		}
		es.state = StateHalfOpen
		es.consecutiveFailures = 0
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) RecordFailure(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es := cb.endpointFor(key)
	switch es.state {
	case StateClosed:
		es.consecutiveFailures++
		if es.consecutiveFailures >= cb.cfg.FailureThreshold {
			cb.trip(es)
		}
	case StateHalfOpen:
		cb.trip(es)
	case StateOpen:
		// already open; the timeout is not extended
	}
}

func (cb *CircuitBreaker) trip(es *endpointState) {
	es.state = StateOpen
	es.consecutiveFailures = cb.cfg.FailureThreshold
	es.openUntil = time.Now().Add(cb.cfg.ResetTimeout)
}

func (cb *CircuitBreaker) RecordSuccess(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es := cb.endpointFor(key)
	if es.state == StateOpen {
		return
	}
	es.state = StateClosed
	es.consecutiveFailures = 0
}

// Status returns the endpoint's state and consecutive failure count
// without triggering the open to half-open transition.
func (cb *CircuitBreaker) Status(key string) (State, int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es, ok := cb.endpoints[key]
	if !ok {
		return StateClosed, 0
	}
	return es.state, es.consecutiveFailures
}
