package monitor

import (
	"fmt"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type MonitorErrorCause string

const (
	ErrCauseUnknownSource MonitorErrorCause = "unknown source"
	ErrCauseCancelled     MonitorErrorCause = "cancelled"
)

type MonitorError struct {
	Message   string
	Retryable bool
	Cause     MonitorErrorCause
	Err       error
}

func (e *MonitorError) Error() string {
	return fmt.Sprintf("monitor error: %s: %s", e.Cause, e.Message)
}

func (e *MonitorError) Unwrap() error {
	return e.Err
}

func (e *MonitorError) Severity() failure.Severity {
	if e.Cause == ErrCauseUnknownSource {
		return failure.SeverityCritical
	}
	return failure.SeverityLow
}

func (e *MonitorError) IsRetryable() bool {
	return e.Retryable
}

func (e *MonitorError) ErrorType() failure.ErrorType {
	if e.Cause == ErrCauseUnknownSource {
		return failure.ErrorTypeConfiguration
	}
	return failure.ErrorTypeTimeout
}
