package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

type StorageErrorCause string

const (
	ErrCauseInvalidDSN    StorageErrorCause = "invalid connection string"
	ErrCauseConnectFailed StorageErrorCause = "connect failed"
	ErrCauseSchemaFailed  StorageErrorCause = "schema setup failed"
	ErrCauseWriteFailure  StorageErrorCause = "write failed"
	ErrCauseCacheFailure  StorageErrorCause = "seen-cache failed"
)

type StorageError struct {
	Message   string
	Retryable bool
	Cause     StorageErrorCause
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %s", e.Cause, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Severity() failure.Severity {
	switch {
	case e.Cause == ErrCauseInvalidDSN:
		return failure.SeverityCritical
	case e.Retryable:
		return failure.SeverityMedium
	default:
		return failure.SeverityHigh
	}
}

func (e *StorageError) IsRetryable() bool {
	return e.Retryable
}

func (e *StorageError) ErrorType() failure.ErrorType {
	if e.Cause == ErrCauseInvalidDSN {
		return failure.ErrorTypeConfiguration
	}
	return failure.ErrorTypeDatabase
}

// retryablePgError reports whether a postgres failure is worth another
// attempt: connection exceptions, serialization failures and deadlocks.
// Errors that never reached the server are retryable.
func retryablePgError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return true
	}
	switch {
	case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
		return true
	case pgErr.Code == "40001", pgErr.Code == "40P01":
		return true
	default:
		return false
	}
}
