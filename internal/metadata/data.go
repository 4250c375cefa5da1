package metadata

/*
runStats
  - Represents a terminal, derived summary of one source's scrape run
  - Contains only aggregate counts and durations
  - Is computed by the orchestrator after the run returns
  - Is recorded exactly once per source per run
  - Must not influence scraping, retries, or persistence
*/
type runStats struct {
	source        string
	totalAttempts int
	successful    int
	rejected      int
	errors        int
	durationMs    int64
}

// EventKind names a pipeline outcome for a single listing or alert.
type EventKind string

const (
	EventAccepted      EventKind = "accepted"
	EventRejected      EventKind = "rejected"
	EventDuplicate     EventKind = "duplicate"
	EventPersisted     EventKind = "persisted"
	EventAlertRaised   EventKind = "alert_raised"
	EventAlertResolved EventKind = "alert_resolved"
	EventRetry         EventKind = "retry"
	EventBreakerChange EventKind = "breaker_state"
	EventSourceSkipped EventKind = "source_skipped"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime        AttributeKey = "time"
	AttrURL         AttributeKey = "url"
	AttrHost        AttributeKey = "host"
	AttrQuery       AttributeKey = "query"
	AttrField       AttributeKey = "field"
	AttrSelector    AttributeKey = "selector"
	AttrHTTPStatus  AttributeKey = "http_status"
	AttrContentHash AttributeKey = "content_hash"
	AttrCategory    AttributeKey = "category"
	AttrReason      AttributeKey = "reason"
	AttrSeverity    AttributeKey = "severity"
	AttrDelay       AttributeKey = "delay"
	AttrState       AttributeKey = "state"
	AttrAttempt     AttributeKey = "attempt"
)
