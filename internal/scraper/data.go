package scraper

import (
	"time"

	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
	"github.com/rohmanhakim/event-scraper/pkg/retry"
)

type DateRange string

const (
	DateRangeAny      DateRange = "any"
	DateRangeToday    DateRange = "today"
	DateRangeTomorrow DateRange = "tomorrow"
	DateRangeWeek     DateRange = "week"
	DateRangeMonth    DateRange = "month"
)

// Filters is the caller's request for one scrape run.
type Filters struct {
	MaxEvents       int
	Categories      []string
	DateRange       DateRange
	IncludeRegional bool
	IncludeNational bool
}

func DefaultFilters() Filters {
	return Filters{
		MaxEvents:       100,
		DateRange:       DateRangeAny,
		IncludeRegional: true,
		IncludeNational: true,
	}
}

type Dimension string

const (
	DimensionRegional Dimension = "regional"
	DimensionNational Dimension = "national"
	DimensionCategory Dimension = "category"
)

// SearchQuery is one search issued against a source.
type SearchQuery struct {
	Dimension Dimension
	Term      string
	Category  string
}

type RunStats struct {
	Source        string
	Queries       int
	FailedQueries int
	TotalAttempts int
	Successful    int
	Rejected      int
	Duplicates    int
	// Disallowed counts queries skipped because robots.txt forbids them.
	Disallowed int
	Errors     int
	Duration   time.Duration
}

type RunResult struct {
	Source   string
	Events   []processor.Event
	Rejected []processor.Rejection
	Errors   []*failure.ScrapingError
	Stats    RunStats
}

type Param struct {
	WaitTimeout time.Duration
	ScrollTimes int
	ScrollDelay time.Duration
	Retry       retry.RetryParam
	Breaker     retry.BreakerParam
}

func DefaultParam() Param {
	return Param{
		WaitTimeout: 10 * time.Second,
		ScrollTimes: 3,
		ScrollDelay: time.Second,
		Retry:       retry.NewRetryParam(3, time.Second, 30*time.Second, 250*time.Millisecond, 1),
		Breaker:     retry.NewBreakerParam(5, time.Minute),
	}
}
