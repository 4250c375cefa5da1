package robots

import (
	"fmt"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type RobotsErrorCause string

const (
	ErrCauseInvalidURL     RobotsErrorCause = "invalid url"
	ErrCauseFetchFailed    RobotsErrorCause = "robots.txt fetch failed"
	ErrCauseRateLimited    RobotsErrorCause = "robots.txt rate limited"
	ErrCauseServerError    RobotsErrorCause = "robots.txt server error"
	ErrCauseUnexpectedCode RobotsErrorCause = "unexpected status"
)

type RobotsError struct {
	Message   string
	Retryable bool
	Cause     RobotsErrorCause
	Err       error
}

func (e *RobotsError) Error() string {
	return fmt.Sprintf("robots error: %s: %s", e.Cause, e.Message)
}

func (e *RobotsError) Unwrap() error {
	return e.Err
}

func (e *RobotsError) Severity() failure.Severity {
	if e.Cause == ErrCauseInvalidURL {
		return failure.SeverityCritical
	}
	return failure.SeverityLow
}

func (e *RobotsError) IsRetryable() bool {
	return e.Retryable
}

func (e *RobotsError) ErrorType() failure.ErrorType {
	switch e.Cause {
	case ErrCauseInvalidURL:
		return failure.ErrorTypeConfiguration
	case ErrCauseRateLimited:
		return failure.ErrorTypeRateLimited
	default:
		return failure.ErrorTypeNetwork
	}
}
