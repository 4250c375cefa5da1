package storage_test

import (
	"bufio"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/event-scraper/internal/storage"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n
}

func TestLocalSink_IdempotentAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	sink, err := storage.NewLocalSink(dir)
	require.Nil(t, err)

	got, err := sink.Upsert(ctx, sampleEvent("h1"))
	require.Nil(t, err)
	assert.Equal(t, storage.OutcomeInserted, got)

	got, err = sink.Upsert(ctx, sampleEvent("h1"))
	require.Nil(t, err)
	assert.Equal(t, storage.OutcomeDuplicate, got)

	got, err = sink.Upsert(ctx, sampleEvent("h2"))
	require.Nil(t, err)
	assert.Equal(t, storage.OutcomeInserted, got)
	require.NoError(t, sink.Close())

	reopened, err := storage.NewLocalSink(dir)
	require.Nil(t, err)
	got, err = reopened.Upsert(ctx, sampleEvent("h2"))
	require.Nil(t, err)
	assert.Equal(t, storage.OutcomeDuplicate, got)

	assert.Equal(t, 2, countLines(t, reopened.Path()))
}

func TestLocalSink_CancelledContext(t *testing.T) {
	sink, err := storage.NewLocalSink(t.TempDir())
	require.Nil(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sink.Upsert(ctx, sampleEvent("h1"))
	require.NotNil(t, err)
}

func TestPersistStats_Add(t *testing.T) {
	var s storage.PersistStats
	s.Add(storage.OutcomeInserted)
	s.Add(storage.OutcomeInserted)
	s.Add(storage.OutcomeDuplicate)
	s.Add(storage.OutcomeSkipped)
	assert.Equal(t, storage.PersistStats{Inserted: 2, Duplicates: 1, Skipped: 1}, s)
}
