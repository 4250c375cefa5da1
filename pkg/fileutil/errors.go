package fileutil

import (
	"fmt"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type FileErrorCause string

const (
	ErrCausePathError  FileErrorCause = "path error"
	ErrCauseWriteError FileErrorCause = "write error"
	ErrCauseReadError  FileErrorCause = "read error"
)

type FileError struct {
	Message   string
	Retryable bool
	Cause     FileErrorCause
	Path      string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file error: %s %s: %s", e.Cause, e.Path, e.Message)
}

func (e *FileError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityMedium
	}
	return failure.SeverityCritical
}

func (e *FileError) IsRetryable() bool {
	return e.Retryable
}

// Local files back the persistence sink in dry runs, so failures are DATABASE_ERROR.
func (e *FileError) ErrorType() failure.ErrorType {
	return failure.ErrorTypeDatabase
}
