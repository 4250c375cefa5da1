package limiter

import (
	"fmt"
	"time"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type LimiterErrorCause string

const (
	ErrCauseRetriesExhausted LimiterErrorCause = "retries exhausted"
	ErrCauseUnhandledStatus  LimiterErrorCause = "unhandled HTTP status"
	ErrCauseCancelled        LimiterErrorCause = "wait cancelled"
)

type LimiterError struct {
	Message    string
	Retryable  bool
	Cause      LimiterErrorCause
	StatusCode int
	RetryAfter time.Duration
}

func (e *LimiterError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("limiter error: %s (status %d): %s", e.Cause, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("limiter error: %s: %s", e.Cause, e.Message)
}

func (e *LimiterError) Severity() failure.Severity {
	switch e.Cause {
	case ErrCauseRetriesExhausted:
		return failure.SeverityHigh
	case ErrCauseCancelled:
		return failure.SeverityLow
	default:
		return failure.SeverityMedium
	}
}

func (e *LimiterError) IsRetryable() bool {
	return e.Retryable
}

// ErrorType lets the classifier place limiter failures without string matching.
func (e *LimiterError) ErrorType() failure.ErrorType {
	switch {
	case e.Cause == ErrCauseCancelled:
		return failure.ErrorTypeTimeout
	case e.StatusCode == 429:
		return failure.ErrorTypeRateLimited
	case e.StatusCode >= 500:
		return failure.ErrorTypeNetwork
	case e.StatusCode == 404:
		return failure.ErrorTypeStructureChanged
	case e.Cause == ErrCauseRetriesExhausted:
		return failure.ErrorTypeRateLimited
	default:
		return failure.ErrorTypeUnknown
	}
}
