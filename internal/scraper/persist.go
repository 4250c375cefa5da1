package scraper

import (
	"context"

	"github.com/rohmanhakim/event-scraper/internal/metadata"
	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/internal/storage"
	"github.com/rohmanhakim/event-scraper/pkg/retry"
)

// Persist upserts events one by one through sink. Transient write failures
// are retried; the first terminal failure stops the batch and is returned
// together with the stats gathered so far.
func (o *Orchestrator) Persist(ctx context.Context, sink storage.Sink, events []processor.Event) (storage.PersistStats, error) {
	var stats storage.PersistStats
	for _, ev := range events {
		outcome, err := retry.Retry(ctx, o.retryHandler, o.param.Retry, func(ctx context.Context) (storage.Outcome, error) {
			out, upsertErr := sink.Upsert(ctx, ev)
			if upsertErr != nil {
				return out, upsertErr
			}
			return out, nil
		}).Unpack()
		if err != nil {
			stats.Failed++
			o.report(err, "", "Orchestrator.Persist")
			return stats, err
		}

		stats.Add(outcome)
		if outcome == storage.OutcomeInserted {
			o.metadataSink.RecordEvent(metadata.EventPersisted, o.source.Name(), []metadata.Attribute{
				metadata.NewAttr(metadata.AttrContentHash, ev.ContentHash),
			})
		}
	}
	return stats, nil
}
