package fileutil

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) error {
	target := filepath.Join(append([]string{dir}, path...)...)
	if err := os.MkdirAll(target, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      target,
		}
	}
	return nil
}

// AppendJSONLine encodes v as one JSON line at the end of path, creating
// the file if needed.
func AppendJSONLine(path string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return &FileError{Message: err.Error(), Cause: ErrCauseWriteError, Path: path}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return &FileError{Message: err.Error(), Cause: ErrCausePathError, Path: path}
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return &FileError{Message: err.Error(), Retryable: true, Cause: ErrCauseWriteError, Path: path}
	}
	return nil
}

// ReadJSONLines decodes every line of path into a fresh T and passes it to fn.
// A missing file is not an error.
func ReadJSONLines[T any](path string, fn func(T)) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &FileError{Message: err.Error(), Cause: ErrCauseReadError, Path: path}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(scanner.Bytes(), &item); err != nil {
			return &FileError{Message: err.Error(), Cause: ErrCauseReadError, Path: path}
		}
		fn(item)
	}
	if err := scanner.Err(); err != nil {
		return &FileError{Message: err.Error(), Cause: ErrCauseReadError, Path: path}
	}
	return nil
}
