package scraper

import (
	"fmt"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type ScraperErrorCause string

const (
	ErrCauseSearchURL     ScraperErrorCause = "cannot build search url"
	ErrCauseExtractFailed ScraperErrorCause = "element is not a listing"
	ErrCauseOpenPage      ScraperErrorCause = "cannot open page"
)

type ScraperError struct {
	Message   string
	Retryable bool
	Cause     ScraperErrorCause
	Err       error
}

func (e *ScraperError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scraper error: %s: %s: %v", e.Cause, e.Message, e.Err)
	}
	return fmt.Sprintf("scraper error: %s: %s", e.Cause, e.Message)
}

func (e *ScraperError) Unwrap() error {
	return e.Err
}

func (e *ScraperError) Severity() failure.Severity {
	return e.ErrorType().Severity()
}

func (e *ScraperError) IsRetryable() bool {
	return e.Retryable
}

func (e *ScraperError) ErrorType() failure.ErrorType {
	switch e.Cause {
	case ErrCauseSearchURL:
		return failure.ErrorTypeConfiguration
	case ErrCauseExtractFailed:
		return failure.ErrorTypeParsing
	default:
		return failure.ErrorTypeNetwork
	}
}
