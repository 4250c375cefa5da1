package retry

import (
	"time"

	"github.com/rohmanhakim/event-scraper/pkg/timeutil"
)

// RetryParam holds the parameters for retry logic.
// These parameters are passed from outside (e.g., config) and should not
// be known by the retry handler internally.
//
// MaxRetries counts retries after the first call, so fn runs at most
// MaxRetries+1 times.
type RetryParam struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     time.Duration
	RandomSeed int64
}

// NewRetryParam creates a new RetryParam with the given settings.
func NewRetryParam(
	maxRetries int,
	baseDelay time.Duration,
	maxDelay time.Duration,
	jitter time.Duration,
	randomSeed int64,
) RetryParam {
	return RetryParam{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
		Jitter:     jitter,
		RandomSeed: randomSeed,
	}
}

func (p RetryParam) backoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(p.BaseDelay, 2.0, p.MaxDelay)
}

// Result carries the outcome of a retried call.
type Result[T any] struct {
	value     T
	err       error
	attempts  int
	lastDelay time.Duration
}

func (r Result[T]) Value() T                 { return r.value }
func (r Result[T]) Err() error               { return r.err }
func (r Result[T]) Attempts() int            { return r.attempts }
func (r Result[T]) LastDelay() time.Duration { return r.lastDelay }
func (r Result[T]) IsSuccess() bool          { return r.err == nil }
func (r Result[T]) IsFailure() bool          { return r.err != nil }

// Unpack returns the value and the last error, unmodified.
func (r Result[T]) Unpack() (T, error) {
	return r.value, r.err
}

// BreakerParam configures a CircuitBreaker.
type BreakerParam struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

func NewBreakerParam(failureThreshold int, resetTimeout time.Duration) BreakerParam {
	return BreakerParam{
		FailureThreshold: failureThreshold,
		ResetTimeout:     resetTimeout,
	}
}

type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
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
