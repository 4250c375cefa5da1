package failure

import (
	"fmt"
	"time"
)

// Severity ranks how badly a failure impairs progress.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

type ClassifiedError interface {
	error
	Severity() Severity
}

/*
ErrorType is the closed taxonomy every failure is mapped into.

Each type has a fixed severity and a fixed recoverability flag:

	NETWORK_ERROR           HIGH      recoverable
	TIMEOUT_ERROR           MEDIUM    recoverable
	RATE_LIMITED            LOW       recoverable
	SITE_STRUCTURE_CHANGED  MEDIUM
	PARSING_ERROR           MEDIUM
	VALIDATION_ERROR        LOW
	DATABASE_ERROR          CRITICAL
	CONFIGURATION_ERROR     CRITICAL
	UNKNOWN_ERROR           MEDIUM

Recoverable types are retried locally. CRITICAL types are never retried.
*/
type ErrorType string

const (
	ErrorTypeNetwork          ErrorType = "NETWORK_ERROR"
	ErrorTypeTimeout          ErrorType = "TIMEOUT_ERROR"
	ErrorTypeRateLimited      ErrorType = "RATE_LIMITED"
	ErrorTypeStructureChanged ErrorType = "SITE_STRUCTURE_CHANGED"
	ErrorTypeParsing          ErrorType = "PARSING_ERROR"
	ErrorTypeValidation       ErrorType = "VALIDATION_ERROR"
	ErrorTypeDatabase         ErrorType = "DATABASE_ERROR"
	ErrorTypeConfiguration    ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeUnknown          ErrorType = "UNKNOWN_ERROR"
)

// AllErrorTypes lists the taxonomy in a stable order.
var AllErrorTypes = []ErrorType{
	ErrorTypeNetwork,
	ErrorTypeTimeout,
	ErrorTypeRateLimited,
	ErrorTypeStructureChanged,
	ErrorTypeParsing,
	ErrorTypeValidation,
	ErrorTypeDatabase,
	ErrorTypeConfiguration,
	ErrorTypeUnknown,
}

func (t ErrorType) Severity() Severity {
	switch t {
	case ErrorTypeNetwork:
		return SeverityHigh
	case ErrorTypeRateLimited, ErrorTypeValidation:
		return SeverityLow
	case ErrorTypeDatabase, ErrorTypeConfiguration:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

func (t ErrorType) IsRecoverable() bool {
	switch t {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimited:
		return true
	default:
		return false
	}
}

// Typed is implemented by package errors that already know their taxonomy slot.
type Typed interface {
	ErrorType() ErrorType
}

// ScrapingError is the immutable record produced by classification.
type ScrapingError struct {
	Type      ErrorType
	Level     Severity
	Message   string
	Details   map[string]any
	Timestamp time.Time
	Err       error
}

func (e *ScrapingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *ScrapingError) Severity() Severity {
	return e.Level
}

func (e *ScrapingError) ErrorType() ErrorType {
	return e.Type
}

func (e *ScrapingError) IsRetryable() bool {
	return e.Type.IsRecoverable()
}

func (e *ScrapingError) Unwrap() error {
	return e.Err
}

// RetryAfter returns the upstream Retry-After hint carried in Details, if any.
func (e *ScrapingError) RetryAfter() time.Duration {
	if e.Details == nil {
		return 0
	}
	if d, ok := e.Details["retryAfter"].(time.Duration); ok {
		return d
	}
	return 0
}
