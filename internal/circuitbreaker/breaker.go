package circuitbreaker

import (
	"sync"
	"sync/atomic"
	"time"
)

type State int32

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
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	FailThreshold    int           `json:"fail_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	Timeout          time.Duration `json:"timeout"`
}

// Breaker is a three-state circuit breaker guarding calls to the
// exchange. Consecutive transport failures open the circuit; after the
// timeout a probe request is admitted and consecutive successes close
// it again. State transitions happen under one mutex so Allow and
// Record never observe a half-applied transition.
type Breaker struct {
	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	failThreshold    int
	successThreshold int
	timeout          time.Duration
	openedAt         time.Time
	metrics          *Metrics
}

type Metrics struct {
	totalRequests   atomic.Int64
	successRequests atomic.Int64
	failedRequests  atomic.Int64
	stateChanges    atomic.Int32
}

func New(config Config) *Breaker {
	return &Breaker{
		state:            StateClosed,
		failThreshold:    config.FailThreshold,
		successThreshold: config.SuccessThreshold,
		timeout:          config.Timeout,
		metrics:          &Metrics{},
	}
}

// Allow reports whether a request may proceed. An open circuit past its
// timeout transitions to half-open and admits the request as a probe.
func (b *Breaker) Allow() bool {
	b.metrics.totalRequests.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(b.openedAt) >= b.timeout {
			b.transitionTo(StateHalfOpen)
			b.successes = 0
			return true
		}
		return false
	}
	return false
}

// Record feeds the outcome of a request back into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.metrics.successRequests.Add(1)
	} else {
		b.metrics.failedRequests.Add(1)
	}

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
		} else {
			b.failures++
			if b.failures >= b.failThreshold {
				b.openedAt = time.Now()
				b.transitionTo(StateOpen)
			}
		}
	case StateHalfOpen:
		if success {
			b.successes++
			if b.successes >= b.successThreshold {
				b.transitionTo(StateClosed)
				b.failures = 0
				b.successes = 0
			}
		} else {
			b.openedAt = time.Now()
			b.transitionTo(StateOpen)
			b.successes = 0
		}
	case StateOpen:
		// A request that was admitted before the circuit opened can
		// still report here; the outcome does not change the state.
	}
}

func (b *Breaker) transitionTo(newState State) {
	b.state = newState
	b.metrics.stateChanges.Add(1)
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   b.metrics.totalRequests.Load(),
		SuccessRequests: b.metrics.successRequests.Load(),
		FailedRequests:  b.metrics.failedRequests.Load(),
		StateChanges:    b.metrics.stateChanges.Load(),
		CurrentState:    b.State().String(),
	}
}

type MetricsSnapshot struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	StateChanges    int32
	CurrentState    string
}
