package scraper

import (
	"strings"
	"time"

	"github.com/rohmanhakim/event-scraper/internal/category"
	"github.com/rohmanhakim/event-scraper/internal/processor"
)

// BuildQueries expands filters into search queries: regions first, then
// national terms, then each requested category's search terms. An empty
// category list means every category. Repeated terms are issued once.
func BuildQueries(filters Filters, table category.Table) []SearchQuery {
	var out []SearchQuery
	seen := make(map[string]struct{})
	add := func(q SearchQuery) {
		key := strings.ToLower(strings.TrimSpace(q.Term))
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}

	if filters.IncludeRegional {
		for _, r := range table.Regions {
			add(SearchQuery{Dimension: DimensionRegional, Term: r})
		}
	}
	if filters.IncludeNational {
		for _, t := range table.NationalTerms {
			add(SearchQuery{Dimension: DimensionNational, Term: t})
		}
	}

	names := filters.Categories
	if len(names) == 0 {
		names = table.Names()
	}
	for _, name := range names {
		c, ok := table.Lookup(name)
		if !ok {
			continue
		}
		for _, term := range c.SearchTerms {
			add(SearchQuery{Dimension: DimensionCategory, Term: term, Category: c.Name})
		}
	}
	return out
}

// InRange reports whether an event date falls in r, measured from the start
// of now's day. Undated events only pass DateRangeAny.
func (r DateRange) InRange(date *time.Time, now time.Time) bool {
	if r == "" || r == DateRangeAny {
		return true
	}
	if date == nil {
		return false
	}
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var to time.Time
	switch r {
	case DateRangeToday:
		to = from.AddDate(0, 0, 1)
	case DateRangeTomorrow:
		from = from.AddDate(0, 0, 1)
		to = from.AddDate(0, 0, 1)
	case DateRangeWeek:
		to = from.AddDate(0, 0, 7)
	case DateRangeMonth:
		to = from.AddDate(0, 1, 0)
	default:
		return true
	}
	return !date.Before(from) && date.Before(to)
}

func dedupKey(e processor.Event) string {
	date := ""
	if e.Date != nil {
		date = e.Date.UTC().Format("2006-01-02")
	}
	return strings.ToLower(strings.Join(strings.Fields(e.Title), " ")) + "|" + date
}
