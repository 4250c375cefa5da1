package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
	"github.com/rohmanhakim/event-scraper/pkg/fileutil"
)

const localFileName = "events.jsonl"

// LocalSink appends events to a JSONL file. It is the dry-run sink and
// dedups against everything already in the file.
type LocalSink struct {
	mu     sync.Mutex
	path   string
	hashes map[string]struct{}
}

func NewLocalSink(outputDir string) (*LocalSink, failure.ClassifiedError) {
	if err := fileutil.EnsureDir(outputDir); err != nil {
		return nil, fromFileError(err)
	}
	s := &LocalSink{
		path:   filepath.Join(outputDir, localFileName),
		hashes: make(map[string]struct{}),
	}
	err := fileutil.ReadJSONLines(s.path, func(e processor.Event) {
		s.hashes[e.ContentHash] = struct{}{}
	})
	if err != nil {
		return nil, fromFileError(err)
	}
	return s, nil
}

func (s *LocalSink) Path() string {
	return s.path
}

func (s *LocalSink) Upsert(ctx context.Context, event processor.Event) (Outcome, failure.ClassifiedError) {
	if err := ctx.Err(); err != nil {
		return "", &StorageError{Message: err.Error(), Cause: ErrCauseWriteFailure, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hashes[event.ContentHash]; ok {
		return OutcomeDuplicate, nil
	}
	if err := fileutil.AppendJSONLine(s.path, event); err != nil {
		return "", fromFileError(err)
	}
	s.hashes[event.ContentHash] = struct{}{}
	return OutcomeInserted, nil
}

func (s *LocalSink) Close() error {
	return nil
}

func fromFileError(err error) *StorageError {
	var fileErr *fileutil.FileError
	if errors.As(err, &fileErr) {
		return &StorageError{Message: fileErr.Error(), Retryable: fileErr.Retryable, Cause: ErrCauseWriteFailure, Err: err}
	}
	return &StorageError{Message: err.Error(), Cause: ErrCauseWriteFailure, Err: err}
}
