package retry

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
	"github.com/rohmanhakim/event-scraper/pkg/timeutil"
)

// Classifier turns an arbitrary error into the closed taxonomy.
type Classifier interface {
	Categorize(err error) *failure.ScrapingError
}

// RetryEvent describes one scheduled retry.
type RetryEvent struct {
	Attempt int
	Delay   time.Duration
	Error   *failure.ScrapingError
}

// Handler holds the collaborators shared by every retried call.
type Handler struct {
	classifier Classifier
	sleep      func(ctx context.Context, d time.Duration) error
	onRetry    func(RetryEvent)

	rngMu sync.Mutex
	rng   *rand.Rand
	seed  int64
}

func NewHandler(classifier Classifier) *Handler {
	return &Handler{
		classifier: classifier,
		sleep:      timeutil.Sleep,
	}
}

func (h *Handler) SetSleepFunc(sleep func(ctx context.Context, d time.Duration) error) {
	h.sleep = sleep
}

// OnRetry registers a hook invoked before every backoff sleep.
func (h *Handler) OnRetry(fn func(RetryEvent)) {
	h.onRetry = fn
}

// Retry runs fn, retrying retryable failures with exponential backoff and
// jitter: delay(n) = min(BaseDelay*2^n + jitter, MaxDelay). Rate-limit
// errors carrying a Retry-After wait exactly that long; errors reporting
// WasBackedOff() were already waited out upstream and retry immediately.
// When attempts run out the last error is returned as-is.
func Retry[T any](ctx context.Context, h *Handler, param RetryParam, fn func(ctx context.Context) (T, error)) Result[T] {
	var zero T
	var lastDelay time.Duration

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result[T]{value: zero, err: err, attempts: attempt, lastDelay: lastDelay}
		}

		value, err := fn(ctx)
		if err == nil {
			return Result[T]{value: value, attempts: attempt + 1, lastDelay: lastDelay}
		}

		classified := h.categorize(err)
		if attempt >= param.MaxRetries || !isRetryableError(err, classified) {
			return Result[T]{value: zero, err: err, attempts: attempt + 1, lastDelay: lastDelay}
		}

		delay := h.delayFor(attempt, err, classified, param)
		if h.onRetry != nil {
			h.onRetry(RetryEvent{Attempt: attempt + 1, Delay: delay, Error: classified})
		}
		lastDelay = delay

		if delay > 0 {
			if sleepErr := h.sleep(ctx, delay); sleepErr != nil {
				return Result[T]{value: zero, err: err, attempts: attempt + 1, lastDelay: lastDelay}
			}
		}
	}
}

// Do is Retry for operations without a result value.
func Do(ctx context.Context, h *Handler, param RetryParam, fn func(ctx context.Context) error) (int, error) {
	res := Retry(ctx, h, param, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return res.Attempts(), res.Err()
}

// DelayFor exposes the backoff schedule for a plain retryable failure.
func (h *Handler) DelayFor(attempt int, param RetryParam) time.Duration {
	return h.delayFor(attempt, nil, nil, param)
}

func (h *Handler) delayFor(attempt int, err error, classified *failure.ScrapingError, param RetryParam) time.Duration {
	var backedOff interface{ WasBackedOff() bool }
	if err != nil && errors.As(err, &backedOff) && backedOff.WasBackedOff() {
		return 0
	}

	if classified != nil && classified.Type == failure.ErrorTypeRateLimited {
		if ra := retryAfterOf(err, classified); ra > 0 {
			return ra
		}
	}

	h.rngMu.Lock()
	defer h.rngMu.Unlock()
	if h.rng == nil || h.seed != param.RandomSeed {
		h.rng = rand.New(rand.NewSource(param.RandomSeed))
		h.seed = param.RandomSeed
	}
	return timeutil.ExponentialBackoffDelay(attempt, param.Jitter, h.rng, param.backoffParam())
}

func (h *Handler) categorize(err error) *failure.ScrapingError {
	if h.classifier == nil {
		var se *failure.ScrapingError
		if errors.As(err, &se) {
			return se
		}
		return nil
	}
	return h.classifier.Categorize(err)
}

func retryAfterOf(err error, classified *failure.ScrapingError) time.Duration {
	var ra interface{ RetryAfter() time.Duration }
	if errors.As(err, &ra) {
		if d := ra.RetryAfter(); d > 0 {
			return d
		}
	}
	return classified.RetryAfter()
}

// isRetryableError prefers the error's own opinion and falls back to the
// recoverable set of the taxonomy.
func isRetryableError(err error, classified *failure.ScrapingError) bool {
	var r interface{ IsRetryable() bool }
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	if classified == nil {
		return false
	}
	return classified.Type.IsRecoverable()
}

// Fallback tries each fn in order and returns the first success. It fails
// only when every option failed, wrapping all their errors.
func Fallback[T any](ctx context.Context, fns ...func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if len(fns) == 0 {
		return zero, &RetryError{Message: "nothing to try", Cause: ErrCauseNoFallbacks}
	}

	errs := make([]error, 0, len(fns))
	for _, fn := range fns {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		errs = append(errs, err)
	}
	return zero, &RetryError{
		Message: "every option returned an error",
		Cause:   ErrCauseAllFallbacksFailed,
		Errs:    errs,
	}
}

// WithGracefulDegradation never fails: any error yields fallback.
func WithGracefulDegradation[T any](ctx context.Context, fn func(ctx context.Context) (T, error), fallback T) T {
	value, err := fn(ctx)
	if err != nil {
		return fallback
	}
	return value
}

// WithEmptyFallback is WithGracefulDegradation for list-returning
// operations; failures yield an empty, non-nil slice.
func WithEmptyFallback[T any](ctx context.Context, fn func(ctx context.Context) ([]T, error)) []T {
	return WithGracefulDegradation(ctx, fn, []T{})
}
