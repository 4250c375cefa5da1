package metadata_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rohmanhakim/event-scraper/internal/metadata"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

func newObservedRecorder(t *testing.T) (*metadata.Recorder, *observer.ObservedLogs, *metadata.Metrics) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := metadata.NewMetrics()
	return metadata.NewRecorder("test", zap.New(core), metrics), logs, metrics
}

func TestRecorder_RecordError(t *testing.T) {
	rec, logs, metrics := newObservedRecorder(t)

	rec.RecordError(time.Now(), "storage", "PostgresSink.Upsert", failure.ErrorTypeDatabase, "connection refused",
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrContentHash, "abc")})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "DATABASE_ERROR", ctx["error_type"])
	assert.Equal(t, "CRITICAL", ctx["severity"])
	assert.Equal(t, "abc", ctx["content_hash"])
	assert.Equal(t, "test", ctx["worker"])

	count, err := testutil.GatherAndCount(metrics.Registry(), "eventscraper_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorder_SeverityToLevel(t *testing.T) {
	rec, logs, _ := newObservedRecorder(t)

	rec.RecordError(time.Now(), "p", "a", failure.ErrorTypeValidation, "x", nil)
	rec.RecordError(time.Now(), "p", "a", failure.ErrorTypeNetwork, "x", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestRecorder_RecordFetchAndEvents(t *testing.T) {
	rec, logs, metrics := newObservedRecorder(t)

	rec.RecordFetch("https://www.sympla.com.br/eventos", 200, 300*time.Millisecond, "sympla", 0)
	rec.RecordFetch("https://www.sympla.com.br/eventos", 429, 100*time.Millisecond, "sympla", 1)
	rec.RecordEvent(metadata.EventAccepted, "sympla", nil)
	rec.RecordEvent(metadata.EventAccepted, "sympla", nil)
	rec.RecordEvent(metadata.EventAlertRaised, "sympla", []metadata.Attribute{metadata.NewAttr(metadata.AttrSeverity, "high")})

	assert.Equal(t, 5, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("structure alert").Len())

	expected := `
# HELP eventscraper_events_total Pipeline outcomes by source and kind.
# TYPE eventscraper_events_total counter
eventscraper_events_total{kind="accepted",source="sympla"} 2
eventscraper_events_total{kind="alert_raised",source="sympla"} 1
`
	require.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "eventscraper_events_total"))

	count, err := testutil.GatherAndCount(metrics.Registry(), "eventscraper_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecorder_HealthAndFinalStats(t *testing.T) {
	rec, logs, metrics := newObservedRecorder(t)

	rec.RecordHealth("eventbrite", 72.5)
	rec.RecordFinalRunStats("eventbrite", 40, 30, 8, 2, 1500*time.Millisecond)

	require.Equal(t, 1, logs.FilterMessage("run finished").Len())
	entry := logs.FilterMessage("run finished").All()[0]
	assert.Equal(t, int64(30), entry.ContextMap()["successful"])
	assert.Equal(t, int64(1500), entry.ContextMap()["duration_ms"])

	expected := `
# HELP eventscraper_structure_health Latest structure monitor health score (0-100) by source.
# TYPE eventscraper_structure_health gauge
eventscraper_structure_health{source="eventbrite"} 72.5
`
	require.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "eventscraper_structure_health"))
}

func TestRecorder_NilMetricsAndLogger(t *testing.T) {
	rec := metadata.NewRecorder("nil", nil, nil)
	assert.NotPanics(t, func() {
		rec.RecordError(time.Now(), "p", "a", failure.ErrorTypeUnknown, "x", nil)
		rec.RecordFetch("u", 200, time.Second, "s", 0)
		rec.RecordEvent(metadata.EventPersisted, "s", nil)
		rec.RecordHealth("s", 10)
		rec.RecordFinalRunStats("s", 1, 1, 0, 0, time.Second)
	})
}

func TestNoopSink_ImplementsInterfaces(t *testing.T) {
	var sink metadata.MetadataSink = &metadata.NoopSink{}
	var fin metadata.RunFinalizer = &metadata.NoopSink{}
	assert.NotPanics(t, func() {
		sink.RecordEvent(metadata.EventAccepted, "s", nil)
		fin.RecordFinalRunStats("s", 0, 0, 0, 0, 0)
	})
}

func TestNewLogger(t *testing.T) {
	logger, err := metadata.NewLogger("debug", false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = metadata.NewLogger("loud", false)
	assert.Error(t, err)
}
