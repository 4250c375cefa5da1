package limiter

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/rohmanhakim/event-scraper/pkg/timeutil"
)

// fastResponseThreshold is the latency under which a 2xx response relaxes the delay.
const fastResponseThreshold = 500 * time.Millisecond

// relaxFactor shrinks currentDelay after a fast successful response.
const relaxFactor = 0.9

// RateLimiter
// Adaptive delay gate between outbound requests to one source.
// Responsibilities:
// - Space consecutive requests at least currentDelay apart
// - Escalate the delay on 429/5xx and relax it on fast 2xx
// - Give up with a retries-exhausted error after maxRetries consecutive hits
//
// Waiters are served one at a time so two scrapers sharing a limiter never
// race the backoff counter.
type RateLimiter struct {
	mu            sync.Mutex
	turn          chan struct{}
	param         Param
	currentDelay  time.Duration
	retryCount    int
	lastRequestAt time.Time

	totalRequests int
	rateLimitHits int
	totalWaitTime time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewRateLimiter(param Param) *RateLimiter {
	param = param.normalized()
	return &RateLimiter{
		turn:         make(chan struct{}, 1),
		param:        param,
		currentDelay: param.baseDelay,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:        timeutil.Sleep,
		now:          time.Now,
	}
}

func (r *RateLimiter) SetRandomSeed(seed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	r.rng = rand.New(rand.NewSource(seed))
}

// SetSleepFunc replaces the blocking primitive; tests use it to record delays.
func (r *RateLimiter) SetSleepFunc(sleep func(ctx context.Context, d time.Duration) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleep = sleep
}

func (r *RateLimiter) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Wait blocks until at least currentDelay (plus jitter) has elapsed since the
// previous Wait returned. It fails only when ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	r.mu.Lock()
	remaining := time.Duration(0)
	if !r.lastRequestAt.IsZero() {
		target := r.currentDelay + r.computeJitter(r.param.jitter)
		elapsed := r.now().Sub(r.lastRequestAt)
		if elapsed < target {
			remaining = target - elapsed
		}
	}
	sleep := r.sleep
	r.mu.Unlock()

	if remaining > 0 {
		if err := sleep(ctx, remaining); err != nil {
			return &LimiterError{Message: err.Error(), Retryable: false, Cause: ErrCauseCancelled}
		}
	}

	r.mu.Lock()
	r.lastRequestAt = r.now()
	r.totalRequests++
	r.totalWaitTime += remaining
	r.mu.Unlock()
	return nil
}

// HandleRateLimit backs off after a 429. A positive retryAfter from the
// upstream is honoured verbatim; otherwise the delay is
// currentDelay * backoffFactor^retryCount capped at maxDelay.
func (r *RateLimiter) HandleRateLimit(ctx context.Context, retryAfter time.Duration) error {
	r.mu.Lock()
	if r.retryCount >= r.param.maxRetries {
		count := r.retryCount
		r.mu.Unlock()
		return &LimiterError{
			Message:    fmt.Sprintf("gave up after %d rate-limit retries", count),
			Retryable:  false,
			Cause:      ErrCauseRetriesExhausted,
			StatusCode: http.StatusTooManyRequests,
			RetryAfter: retryAfter,
		}
	}

	delay := retryAfter
	if delay <= 0 {
		delay = r.capDelay(float64(r.currentDelay) * math.Pow(r.param.backoffFactor, float64(r.retryCount)))
	}
	r.retryCount++
	r.rateLimitHits++
	r.currentDelay = r.capDelay(float64(r.currentDelay) * r.param.backoffFactor)
	sleep := r.sleep
	r.mu.Unlock()

	return r.backoff(ctx, sleep, delay)
}

// HandleError dispatches on an HTTP status: 429 goes through HandleRateLimit,
// 5xx waits an exponential delay, anything else fails immediately.
func (r *RateLimiter) HandleError(ctx context.Context, statusCode int, retryAfter time.Duration) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return r.HandleRateLimit(ctx, retryAfter)
	case statusCode >= 500 && statusCode <= 599:
		return r.handleServerError(ctx, statusCode)
	default:
		return &LimiterError{
			Message:    http.StatusText(statusCode),
			Retryable:  false,
			Cause:      ErrCauseUnhandledStatus,
			StatusCode: statusCode,
		}
	}
}

func (r *RateLimiter) handleServerError(ctx context.Context, statusCode int) error {
	r.mu.Lock()
	if r.retryCount >= r.param.maxRetries {
		count := r.retryCount
		r.mu.Unlock()
		return &LimiterError{
			Message:    fmt.Sprintf("gave up after %d server-error retries", count),
			Retryable:  false,
			Cause:      ErrCauseRetriesExhausted,
			StatusCode: statusCode,
		}
	}
	attempt := r.retryCount
	r.retryCount++
	param := timeutil.NewBackoffParam(r.param.baseDelay, r.param.backoffFactor, r.param.maxDelay)
	sleep := r.sleep
	r.mu.Unlock()

	r.rngMu.Lock()
	delay := timeutil.ExponentialBackoffDelay(attempt, r.param.jitter, r.rng, param)
	r.rngMu.Unlock()

	return r.backoff(ctx, sleep, delay)
}

func (r *RateLimiter) backoff(ctx context.Context, sleep func(context.Context, time.Duration) error, delay time.Duration) error {
	if err := sleep(ctx, delay); err != nil {
		return &LimiterError{Message: err.Error(), Retryable: false, Cause: ErrCauseCancelled}
	}
	r.mu.Lock()
	r.totalWaitTime += delay
	r.mu.Unlock()
	return nil
}

// AdjustDelay feeds an observed response back into the controller.
// Any 2xx clears the retry counter and fast ones also shrink currentDelay
// toward baseDelay; 429 grows it toward maxDelay.
func (r *RateLimiter) AdjustDelay(latency time.Duration, statusCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case statusCode >= 200 && statusCode < 300:
		r.retryCount = 0
		if latency < fastResponseThreshold {
			r.currentDelay = r.capDelay(float64(r.currentDelay) * relaxFactor)
		}
	case statusCode == http.StatusTooManyRequests:
		r.currentDelay = r.capDelay(float64(r.currentDelay) * r.param.backoffFactor)
	}
}

// Reset restores currentDelay to baseDelay and clears the retry counter.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentDelay = r.param.baseDelay
	r.retryCount = 0
}

// ResetRetries clears the retry counter and keeps the learned delay, so a
// new request sequence gets a full retry budget without losing backpressure.
func (r *RateLimiter) ResetRetries() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryCount = 0
}

func (r *RateLimiter) CurrentDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentDelay
}

func (r *RateLimiter) Param() Param {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.param
}

func (r *RateLimiter) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		TotalRequests: r.totalRequests,
		RateLimitHits: r.rateLimitHits,
		TotalWaitTime: r.totalWaitTime,
		CurrentDelay:  r.currentDelay,
		RetryCount:    r.retryCount,
		LastRequestAt: r.lastRequestAt,
	}
}

// capDelay clamps d into [baseDelay, maxDelay]. Caller must hold r.mu.
func (r *RateLimiter) capDelay(d float64) time.Duration {
	if d > float64(r.param.maxDelay) {
		return r.param.maxDelay
	}
	if d < float64(r.param.baseDelay) {
		return r.param.baseDelay
	}
	return time.Duration(d)
}

func (r *RateLimiter) computeJitter(max time.Duration) time.Duration {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return timeutil.ComputeJitter(max, r.rng)
}

func (r *RateLimiter) acquire(ctx context.Context) error {
	select {
	case r.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return &LimiterError{Message: ctx.Err().Error(), Retryable: false, Cause: ErrCauseCancelled}
	}
}

func (r *RateLimiter) release() {
	<-r.turn
}
