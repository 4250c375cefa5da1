package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
	"github.com/rohmanhakim/event-scraper/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_MultiplePathComponents(t *testing.T) {
	tmpDir := t.TempDir()
	targetDir := filepath.Join(tmpDir, "parent", "child")

	require.NoError(t, fileutil.EnsureDir(tmpDir, "parent", "child"))

	info, err := os.Stat(targetDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_DirectoryAlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, fileutil.EnsureDir(tmpDir))
	require.NoError(t, fileutil.EnsureDir(tmpDir))
}

func TestEnsureDir_PathIsAFile(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := fileutil.EnsureDir(file, "sub")
	require.Error(t, err)

	var fileErr *fileutil.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
	assert.Equal(t, failure.SeverityCritical, fileErr.Severity())
	assert.Equal(t, failure.ErrorTypeDatabase, fileErr.ErrorType())
}

type record struct {
	Hash  string `json:"hash"`
	Title string `json:"title"`
}

func TestAppendAndReadJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	require.NoError(t, fileutil.AppendJSONLine(path, record{Hash: "a", Title: "Show"}))
	require.NoError(t, fileutil.AppendJSONLine(path, record{Hash: "b", Title: "Peça"}))

	var got []record
	require.NoError(t, fileutil.ReadJSONLines(path, func(r record) { got = append(got, r) }))
	assert.Equal(t, []record{{Hash: "a", Title: "Show"}, {Hash: "b", Title: "Peça"}}, got)
}

func TestReadJSONLines_MissingFile(t *testing.T) {
	calls := 0
	err := fileutil.ReadJSONLines(filepath.Join(t.TempDir(), "none.jsonl"), func(record) { calls++ })
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestReadJSONLines_CorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"hash\":\"a\"}\nnot json\n"), 0644))

	err := fileutil.ReadJSONLines(path, func(record) {})
	var fileErr *fileutil.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, fileutil.ErrCauseReadError, fileErr.Cause)
}
