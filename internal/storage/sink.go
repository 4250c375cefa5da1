package storage

import (
	"context"

	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

/*
Responsibilities
- Persist processed events keyed by content hash
- Treat an already stored hash as a duplicate, never as an error

Upsert must be idempotent: writing the same event twice leaves one record.
*/

type Sink interface {
	Upsert(ctx context.Context, event processor.Event) (Outcome, failure.ClassifiedError)
	Close() error
}
