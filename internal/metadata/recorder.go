package metadata

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

/*
Metadata Collected
- Navigation timestamps, status codes and latencies
- Classified failures
- Per-listing pipeline outcomes
- Structure monitor health

Metadata is write-only.
No component may read metadata to influence scraping decisions.
*/

/*
Recorder captures structured scraper events as zap entries and
prometheus samples.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are recorded synchronously in the order they are received by a single worker.
- No global ordering across sources is guaranteed.
*/
type Recorder struct {
	workerID string
	logger   *zap.Logger
	metrics  *Metrics
}

func NewRecorder(workerID string, logger *zap.Logger, metrics *Metrics) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		workerID: workerID,
		logger:   logger.With(zap.String("worker", workerID)),
		metrics:  metrics,
	}
}

func (r *Recorder) Logger() *zap.Logger {
	return r.logger
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	errType failure.ErrorType,
	errorString string,
	attrs []Attribute,
) {
	fields := append([]zap.Field{
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.String("error_type", string(errType)),
		zap.String("severity", errType.Severity().String()),
		zap.String("error", errorString),
	}, attrFields(attrs)...)

	r.logger.Log(levelFor(errType.Severity()), "operation failed", fields...)
	r.metrics.incError(packageName, string(errType))
}

func (r *Recorder) RecordFetch(
	fetchURL string,
	httpStatus int,
	duration time.Duration,
	source string,
	retryCount int,
) {
	r.logger.Debug("page fetched",
		zap.String("source", source),
		zap.String("url", fetchURL),
		zap.Int("status", httpStatus),
		zap.Duration("duration", duration),
		zap.Int("retry_count", retryCount),
	)
	r.metrics.observeFetch(source, httpStatus, duration)
}

func (r *Recorder) RecordEvent(kind EventKind, source string, attrs []Attribute) {
	fields := append([]zap.Field{
		zap.String("source", source),
		zap.String("kind", string(kind)),
	}, attrFields(attrs)...)

	switch kind {
	case EventAlertRaised:
		r.logger.Warn("structure alert", fields...)
	case EventRejected, EventDuplicate, EventRetry:
		r.logger.Debug("pipeline event", fields...)
	default:
		r.logger.Info("pipeline event", fields...)
	}
	r.metrics.incEvent(source, kind)
}

func (r *Recorder) RecordHealth(source string, health float64) {
	r.logger.Info("structure health", zap.String("source", source), zap.Float64("health", health))
	r.metrics.setHealth(source, health)
}

/*
RecordFinalRunStats records a terminal, derived summary of a completed run.

Contract:
  - MUST be called exactly once per source per run, after the run returns.
  - The stats MUST be derived from orchestrator state, not accumulated via the recorder.
  - Recorded stats MUST NOT influence control flow.
*/
func (r *Recorder) RecordFinalRunStats(
	source string,
	totalAttempts int,
	successful int,
	rejected int,
	errors int,
	duration time.Duration,
) {
	stats := runStats{
		source:        source,
		totalAttempts: totalAttempts,
		successful:    successful,
		rejected:      rejected,
		errors:        errors,
		durationMs:    duration.Milliseconds(),
	}
	r.logger.Info("run finished",
		zap.String("source", stats.source),
		zap.Int("total_attempts", stats.totalAttempts),
		zap.Int("successful", stats.successful),
		zap.Int("rejected", stats.rejected),
		zap.Int("errors", stats.errors),
		zap.Int64("duration_ms", stats.durationMs),
	)
	r.metrics.setRun(stats)
}

func attrFields(attrs []Attribute) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, a := range attrs {
		fields = append(fields, zap.String(string(a.Key), a.Value))
	}
	return fields
}

func levelFor(s failure.Severity) zapcore.Level {
	switch s {
	case failure.SeverityCritical:
		return zapcore.ErrorLevel
	case failure.SeverityHigh, failure.SeverityMedium:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		errType failure.ErrorType,
		errorString string,
		attrs []Attribute,
	)
	RecordFetch(
		fetchURL string,
		httpStatus int,
		duration time.Duration,
		source string,
		retryCount int,
	)
	RecordEvent(kind EventKind, source string, attrs []Attribute)
	RecordHealth(source string, health float64)
}

type RunFinalizer interface {
	RecordFinalRunStats(
		source string,
		totalAttempts int,
		successful int,
		rejected int,
		errors int,
		duration time.Duration,
	)
}

// NoopSink, struct that implements metadata.MetadataSink but does nothing
// Orchestrator (or Test) can decide whether to inject Recorder or NoopSink
// Purpose is to make metadata orthogonal
type NoopSink struct{}

func (n *NoopSink) RecordError(time.Time, string, string, failure.ErrorType, string, []Attribute) {}

func (n *NoopSink) RecordFetch(string, int, time.Duration, string, int) {}

func (n *NoopSink) RecordEvent(EventKind, string, []Attribute) {}

func (n *NoopSink) RecordHealth(string, float64) {}

func (n *NoopSink) RecordFinalRunStats(string, int, int, int, int, time.Duration) {}
