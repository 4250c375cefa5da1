package storage

import (
	"context"
	"time"

	"github.com/rohmanhakim/event-scraper/internal/metadata"
	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

// CachedSink consults the seen-cache before writing to next. Cache failures
// are recorded and otherwise ignored; the backing store stays authoritative.
type CachedSink struct {
	next         Sink
	cache        *RedisSeenCache
	metadataSink metadata.MetadataSink
}

func NewCachedSink(next Sink, cache *RedisSeenCache, metadataSink metadata.MetadataSink) *CachedSink {
	return &CachedSink{next: next, cache: cache, metadataSink: metadataSink}
}

func (s *CachedSink) Upsert(ctx context.Context, event processor.Event) (Outcome, failure.ClassifiedError) {
	seen, err := s.cache.Seen(ctx, event.ContentHash)
	if err != nil {
		s.recordCacheError("CachedSink.Upsert", event, err)
	} else if seen {
		return OutcomeSkipped, nil
	}

	outcome, writeErr := s.next.Upsert(ctx, event)
	if writeErr != nil {
		return outcome, writeErr
	}
	if _, err := s.cache.Mark(ctx, event.ContentHash); err != nil {
		s.recordCacheError("CachedSink.Upsert", event, err)
	}
	return outcome, nil
}

func (s *CachedSink) Close() error {
	return s.next.Close()
}

func (s *CachedSink) recordCacheError(action string, event processor.Event, err error) {
	s.metadataSink.RecordError(
		time.Now(),
		"storage",
		action,
		failure.ErrorTypeDatabase,
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrContentHash, event.ContentHash)},
	)
}
