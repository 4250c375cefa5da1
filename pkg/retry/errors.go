package retry

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type RetryErrorCause string

const (
	ErrCauseAllFallbacksFailed RetryErrorCause = "all fallback options failed"
	ErrCauseNoFallbacks        RetryErrorCause = "no fallback options"
	ErrCauseCircuitOpen        RetryErrorCause = "circuit breaker is open"
)

// ErrCircuitOpen is returned by a breaker that refuses to call through.
var ErrCircuitOpen = &RetryError{
	Message:   "call rejected without invoking the operation",
	Retryable: false,
	Cause:     ErrCauseCircuitOpen,
}

type RetryError struct {
	Message   string
	Retryable bool
	Cause     RetryErrorCause
	Errs      []error
}

func (e *RetryError) Error() string {
	if len(e.Errs) > 0 {
		return fmt.Sprintf("retry error: %s, %s: %v", e.Cause, e.Message, errors.Join(e.Errs...))
	}
	return fmt.Sprintf("retry error: %s, %s", e.Cause, e.Message)
}

func (e *RetryError) Severity() failure.Severity {
	if e.Cause == ErrCauseCircuitOpen {
		return failure.SeverityHigh
	}
	return failure.SeverityMedium
}

func (e *RetryError) IsRetryable() bool {
	return e.Retryable
}

func (e *RetryError) Unwrap() []error {
	return e.Errs
}

// Is matches any RetryError with the same cause.
func (e *RetryError) Is(target error) bool {
	t, ok := target.(*RetryError)
	return ok && t.Cause == e.Cause
}
