package browser

import (
	"fmt"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type BrowserErrorCause string

const (
	ErrCauseLaunchFailed     BrowserErrorCause = "browser launch failed"
	ErrCauseNavigationFailed BrowserErrorCause = "navigation failed"
	ErrCauseTimeout          BrowserErrorCause = "timeout"
	ErrCauseEvaluateFailed   BrowserErrorCause = "script evaluation failed"
	ErrCauseParseFailed      BrowserErrorCause = "html parse failed"
	ErrCausePageClosed       BrowserErrorCause = "page closed"
)

type BrowserError struct {
	Message   string
	Retryable bool
	Cause     BrowserErrorCause
	URL       string
	Err       error
}

func (e *BrowserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("browser error: %s: %s: %v", e.Cause, e.Message, e.Err)
	}
	return fmt.Sprintf("browser error: %s: %s", e.Cause, e.Message)
}

func (e *BrowserError) Unwrap() error {
	return e.Err
}

func (e *BrowserError) Severity() failure.Severity {
	switch e.Cause {
	case ErrCauseLaunchFailed:
		return failure.SeverityCritical
	case ErrCauseNavigationFailed, ErrCauseTimeout:
		return failure.SeverityMedium
	default:
		return failure.SeverityHigh
	}
}

func (e *BrowserError) IsRetryable() bool {
	return e.Retryable
}

func (e *BrowserError) ErrorType() failure.ErrorType {
	switch e.Cause {
	case ErrCauseTimeout:
		return failure.ErrorTypeTimeout
	case ErrCauseNavigationFailed:
		return failure.ErrorTypeNetwork
	case ErrCauseLaunchFailed:
		return failure.ErrorTypeConfiguration
	case ErrCauseParseFailed:
		return failure.ErrorTypeParsing
	default:
		return failure.ErrorTypeUnknown
	}
}
