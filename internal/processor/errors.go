package processor

import (
	"fmt"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type ProcessorErrorCause string

const (
	ErrCauseMissingSource     ProcessorErrorCause = "missing source name"
	ErrCauseDescriptionFailed ProcessorErrorCause = "description conversion failed"
)

// ProcessorError reports programmer or configuration mistakes, plus the
// recorded-only description fallback. Data quality problems never surface
// as errors; they are validation codes.
type ProcessorError struct {
	Message   string
	Retryable bool
	Cause     ProcessorErrorCause
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor error: %s: %s", e.Cause, e.Message)
}

func (e *ProcessorError) Severity() failure.Severity {
	if e.Cause == ErrCauseDescriptionFailed {
		return failure.SeverityLow
	}
	return failure.SeverityCritical
}

func (e *ProcessorError) IsRetryable() bool {
	return e.Retryable
}

func (e *ProcessorError) ErrorType() failure.ErrorType {
	switch e.Cause {
	case ErrCauseMissingSource:
		return failure.ErrorTypeConfiguration
	default:
		return failure.ErrorTypeParsing
	}
}
