package retry

import (
	"context"
	"sync"
	"time"
)

// CircuitBreaker is the standard three-state breaker. It opens after
// FailureThreshold consecutive failures, rejects calls until ResetTimeout
// has elapsed, then lets exactly one trial call through.
type CircuitBreaker struct {
	mu                  sync.Mutex
	param               BreakerParam
	state               BreakerState
	consecutiveFailures int
	openedAt            time.Time
	trialInFlight       bool

	now           func() time.Time
	onStateChange func(from, to BreakerState)
}

func NewCircuitBreaker(param BreakerParam) *CircuitBreaker {
	if param.FailureThreshold < 1 {
		param.FailureThreshold = 1
	}
	return &CircuitBreaker{
		param: param,
		state: StateClosed,
		now:   time.Now,
	}
}

func (b *CircuitBreaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// OnStateChange registers a callback fired on every transition.
// It runs with the breaker lock held and must not call back into b.
func (b *CircuitBreaker) OnStateChange(fn func(from, to BreakerState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.cooledDown() {
		return StateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}

// Execute calls fn through the breaker.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Guard(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Guard calls fn through b, returning ErrCircuitOpen without invoking fn
// while the breaker is open.
func Guard[T any](ctx context.Context, b *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	value, err := fn(ctx)
	b.record(err)
	return value, err
}

func (b *CircuitBreaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if !b.cooledDown() {
			return ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = true
		return nil
	default:
		if b.trialInFlight {
			return ErrCircuitOpen
		}
		b.trialInFlight = true
		return nil
	}
}

func (b *CircuitBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.consecutiveFailures = 0
		b.trialInFlight = false
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		return
	}

	b.consecutiveFailures++
	switch b.state {
	case StateHalfOpen:
		b.trialInFlight = false
		b.open()
	case StateClosed:
		if b.consecutiveFailures >= b.param.FailureThreshold {
			b.open()
		}
	}
}

// Reset forces the breaker closed.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.trialInFlight = false
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

func (b *CircuitBreaker) open() {
	b.openedAt = b.now()
	b.transition(StateOpen)
}

func (b *CircuitBreaker) cooledDown() bool {
	return b.now().Sub(b.openedAt) >= b.param.ResetTimeout
}

func (b *CircuitBreaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if b.onStateChange != nil && from != to {
		b.onStateChange(from, to)
	}
}
