package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rohmanhakim/event-scraper/internal/browser"
	"github.com/rohmanhakim/event-scraper/internal/category"
	"github.com/rohmanhakim/event-scraper/internal/errclass"
	"github.com/rohmanhakim/event-scraper/internal/metadata"
	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/internal/robots"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
	"github.com/rohmanhakim/event-scraper/pkg/limiter"
	"github.com/rohmanhakim/event-scraper/pkg/retry"
)

/*
 Orchestrator runs one source end to end.

 - One page per run, navigated strictly sequentially. The page is closed
   on every exit path.
 - Every navigation is gated by the source's RateLimiter, retried by the
   RetryHandler and guarded by a CircuitBreaker.
 - A query that still fails after retries is classified and recorded and
   the run moves to the next query. Only CRITICAL failures abort the run.
 - A single bad listing element is skipped, never fatal.

 Metadata emission is observational only and never drives control flow.
*/

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	Decide(ctx context.Context, rawURL string) (robots.Decision, error)
}

type Orchestrator struct {
	source       Source
	browser      browser.Browser
	limiter      *limiter.RateLimiter
	processor    *processor.Processor
	table        category.Table
	classifier   *errclass.Classifier
	retryHandler *retry.Handler
	breaker      *retry.CircuitBreaker
	param        Param
	metadataSink metadata.MetadataSink
	runFinalizer metadata.RunFinalizer
	robots       RobotsPolicy
	now          func() time.Time
}

func NewOrchestrator(
	source Source,
	b browser.Browser,
	rl *limiter.RateLimiter,
	proc *processor.Processor,
	table category.Table,
	param Param,
	metadataSink metadata.MetadataSink,
	runFinalizer metadata.RunFinalizer,
) *Orchestrator {
	classifier := errclass.NewClassifier()
	o := &Orchestrator{
		source:       source,
		browser:      b,
		limiter:      rl,
		processor:    proc,
		table:        table,
		classifier:   classifier,
		retryHandler: retry.NewHandler(classifier),
		breaker:      retry.NewCircuitBreaker(param.Breaker),
		param:        param,
		metadataSink: metadataSink,
		runFinalizer: runFinalizer,
		now:          time.Now,
	}
	o.retryHandler.OnRetry(func(ev retry.RetryEvent) {
		attrs := []metadata.Attribute{
			metadata.NewAttr(metadata.AttrAttempt, strconv.Itoa(ev.Attempt)),
			metadata.NewAttr(metadata.AttrDelay, ev.Delay.String()),
		}
		if ev.Error != nil {
			attrs = append(attrs, metadata.NewAttr(metadata.AttrReason, string(ev.Error.Type)))
		}
		metadataSink.RecordEvent(metadata.EventRetry, source.Name(), attrs)
	})
	o.breaker.OnStateChange(func(from, to retry.BreakerState) {
		metadataSink.RecordEvent(metadata.EventBreakerChange, source.Name(), []metadata.Attribute{
			metadata.NewAttr(metadata.AttrState, from.String()+"->"+to.String()),
		})
	})
	return o
}

// SetSleepFunc replaces the retry backoff sleep.
func (o *Orchestrator) SetSleepFunc(sleep func(ctx context.Context, d time.Duration) error) {
	o.retryHandler.SetSleepFunc(sleep)
}

func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
	o.classifier.SetClock(now)
	o.breaker.SetClock(now)
}

// SetRobots makes every search URL subject to p. Disallowed queries are
// skipped without counting as failures.
func (o *Orchestrator) SetRobots(p RobotsPolicy) {
	o.robots = p
}

func (o *Orchestrator) Source() Source {
	return o.source
}

func (o *Orchestrator) Breaker() *retry.CircuitBreaker {
	return o.breaker
}

func (o *Orchestrator) ClassifierStats() errclass.Stats {
	return o.classifier.Stats()
}

// ScrapeEvents runs every query derived from filters and returns the
// deduplicated, filtered and truncated events. It returns an error only for
// CRITICAL failures and cancellation; the partial result is returned with it.
func (o *Orchestrator) ScrapeEvents(ctx context.Context, filters Filters) (result RunResult, err error) {
	start := o.now()
	result = RunResult{Source: o.source.Name()}

	defer func() {
		result.Stats.Source = o.source.Name()
		result.Stats.Duration = o.now().Sub(start)
		o.runFinalizer.RecordFinalRunStats(
			o.source.Name(),
			result.Stats.TotalAttempts,
			result.Stats.Successful,
			result.Stats.Rejected,
			result.Stats.Errors,
			result.Stats.Duration,
		)
	}()

	page, openErr := o.browser.NewPage(ctx)
	if openErr != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		scraperErr := &ScraperError{Message: o.source.Name(), Retryable: true, Cause: ErrCauseOpenPage, Err: openErr}
		o.appendFailure(&result, o.report(scraperErr, "", "Orchestrator.ScrapeEvents"))
		return result, scraperErr
	}
	defer page.Close()

	seenHash := make(map[string]struct{})
	seenKey := make(map[string]struct{})

	for _, q := range BuildQueries(filters, o.table) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return o.finish(result, filters), ctxErr
		}

		result.Stats.Queries++
		events, queryErr := o.scrapeQuery(ctx, page, q, &result)
		if queryErr != nil {
			result.Stats.FailedQueries++
			if ctx.Err() != nil {
				return o.finish(result, filters), ctx.Err()
			}
			outcome := o.report(queryErr, q.Term, "Orchestrator.ScrapeEvents")
			o.appendFailure(&result, outcome)
			if outcome.IsCritical {
				return o.finish(result, filters), queryErr
			}
			continue
		}

		for _, ev := range events {
			key := dedupKey(ev)
			_, dupHash := seenHash[ev.ContentHash]
			_, dupKey := seenKey[key]
			if dupHash || dupKey {
				result.Stats.Duplicates++
				o.metadataSink.RecordEvent(metadata.EventDuplicate, o.source.Name(), []metadata.Attribute{
					metadata.NewAttr(metadata.AttrContentHash, ev.ContentHash),
					metadata.NewAttr(metadata.AttrQuery, q.Term),
				})
				continue
			}
			seenHash[ev.ContentHash] = struct{}{}
			seenKey[key] = struct{}{}
			result.Events = append(result.Events, ev)
		}
	}
	return o.finish(result, filters), nil
}

// finish applies the date-range filter and maxEvents truncation.
func (o *Orchestrator) finish(result RunResult, filters Filters) RunResult {
	now := o.now()
	kept := result.Events[:0]
	for _, ev := range result.Events {
		if filters.DateRange.InRange(ev.Date, now) {
			kept = append(kept, ev)
		}
	}
	if filters.MaxEvents > 0 && len(kept) > filters.MaxEvents {
		kept = kept[:filters.MaxEvents]
	}
	result.Events = kept
	result.Stats.Successful = len(kept)
	return result
}

func (o *Orchestrator) scrapeQuery(ctx context.Context, page browser.Page, q SearchQuery, result *RunResult) ([]processor.Event, error) {
	searchURL, err := o.source.SearchURL(q)
	if err != nil {
		return nil, &ScraperError{Message: q.Term, Cause: ErrCauseSearchURL, Err: err}
	}

	if o.robots != nil {
		decision, err := o.robots.Decide(ctx, searchURL)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			result.Stats.Disallowed++
			o.metadataSink.RecordEvent(metadata.EventSourceSkipped, o.source.Name(), []metadata.Attribute{
				metadata.NewAttr(metadata.AttrQuery, q.Term),
				metadata.NewAttr(metadata.AttrURL, searchURL),
				metadata.NewAttr(metadata.AttrReason, string(decision.Reason)),
			})
			return nil, nil
		}
	}

	// every query starts with a full retry budget
	o.limiter.ResetRetries()
	resp, err := retry.Guard(ctx, o.breaker, func(ctx context.Context) (browser.Response, error) {
		return retry.Retry(ctx, o.retryHandler, o.param.Retry, func(ctx context.Context) (browser.Response, error) {
			return o.navigate(ctx, page, searchURL)
		}).Unpack()
	})
	if err != nil {
		return nil, err
	}

	found, err := page.WaitFor(ctx, o.source.ContainerSelector(), o.param.WaitTimeout)
	if err != nil {
		return nil, err
	}
	if !found {
		// drift is the structure monitor's concern
		o.metadataSink.RecordEvent(metadata.EventSourceSkipped, o.source.Name(), []metadata.Attribute{
			metadata.NewAttr(metadata.AttrQuery, q.Term),
			metadata.NewAttr(metadata.AttrSelector, o.source.ContainerSelector()),
		})
		return nil, nil
	}

	if err := page.Scroll(ctx, o.param.ScrollTimes, o.param.ScrollDelay); err != nil {
		return nil, err
	}

	elements := retry.Retry(ctx, o.retryHandler, o.param.Retry, func(ctx context.Context) ([]browser.Element, error) {
		return page.Query(ctx, o.source.ContainerSelector())
	})
	if elements.IsFailure() {
		return nil, elements.Err()
	}

	var events []processor.Event
	for _, el := range elements.Value() {
		result.Stats.TotalAttempts++
		raw, err := o.source.ExtractEventData(el, resp.URL)
		if err != nil {
			result.Stats.Rejected++
			continue
		}
		raw.Source = o.source.Name()
		if raw.ScrapedAt.IsZero() {
			raw.ScrapedAt = o.now()
		}

		processed, procErr := o.processor.ProcessEventData(raw, o.source.Name())
		if procErr != nil {
			return events, procErr
		}
		if !processed.Success {
			result.Stats.Rejected++
			result.Rejected = append(result.Rejected, processor.Rejection{Raw: raw, Errors: processed.Errors})
			continue
		}
		events = append(events, *processed.Event)
	}
	return events, nil
}

// navigate performs one gated navigation. Error statuses are backed off by
// the limiter before returning, so the retry layer does not wait again.
func (o *Orchestrator) navigate(ctx context.Context, page browser.Page, url string) (browser.Response, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return browser.Response{}, err
	}

	started := o.now()
	resp, err := page.Navigate(ctx, url)
	latency := o.now().Sub(started)
	o.metadataSink.RecordFetch(url, resp.Status, latency, o.source.Name(), 0)
	if err != nil {
		return resp, err
	}

	if resp.Status < http.StatusBadRequest {
		o.limiter.AdjustDelay(latency, resp.Status)
		return resp, nil
	}

	if handleErr := o.limiter.HandleError(ctx, resp.Status, resp.RetryAfter); handleErr != nil {
		return resp, handleErr
	}
	return resp, &failure.HTTPError{URL: url, Status: resp.Status, Retry: resp.RetryAfter, BackedOff: true}
}

func (o *Orchestrator) appendFailure(result *RunResult, outcome errclass.Outcome) {
	result.Errors = append(result.Errors, outcome.Error)
	result.Stats.Errors++
}

// report classifies err and records it to the metadata sink.
func (o *Orchestrator) report(err error, query string, action string) errclass.Outcome {
	outcome := o.classifier.Handle(err, errclass.Context{
		Source:    o.source.Name(),
		Operation: action,
		URL:       query,
	})

	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrSeverity, outcome.Error.Severity().String()),
		metadata.NewAttr(metadata.AttrReason, outcome.Recommendation),
	}
	if query != "" {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrQuery, query))
	}
	var httpErr *failure.HTTPError
	if errors.As(err, &httpErr) {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrHTTPStatus, fmt.Sprintf("%d", httpErr.Status)))
	}
	o.metadataSink.RecordError(
		o.now(),
		"scraper",
		action,
		outcome.Error.Type,
		err.Error(),
		attrs,
	)
	return outcome
}
