package scraper_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rohmanhakim/event-scraper/internal/category"
	"github.com/rohmanhakim/event-scraper/internal/scraper"
)

func TestBuildQueries(t *testing.T) {
	table := category.Table{
		Categories: []category.Category{
			{Name: "shows", SearchTerms: []string{"shows", "Festival"}},
			{Name: "teatro", SearchTerms: []string{"teatro"}},
		},
		Regions:       []string{"sao paulo", "recife", " "},
		NationalTerms: []string{"festival"},
	}

	tests := []struct {
		name    string
		filters scraper.Filters
		want    []scraper.SearchQuery
	}{
		{
			name:    "all dimensions, repeated terms issued once",
			filters: scraper.DefaultFilters(),
			want: []scraper.SearchQuery{
				{Dimension: scraper.DimensionRegional, Term: "sao paulo"},
				{Dimension: scraper.DimensionRegional, Term: "recife"},
				{Dimension: scraper.DimensionNational, Term: "festival"},
				{Dimension: scraper.DimensionCategory, Term: "shows", Category: "shows"},
				{Dimension: scraper.DimensionCategory, Term: "teatro", Category: "teatro"},
			},
		},
		{
			name:    "categories only",
			filters: scraper.Filters{Categories: []string{"teatro", "unknown"}},
			want: []scraper.SearchQuery{
				{Dimension: scraper.DimensionCategory, Term: "teatro", Category: "teatro"},
			},
		},
		{
			name:    "national only keeps its term ahead of the category",
			filters: scraper.Filters{IncludeNational: true, Categories: []string{"shows"}},
			want: []scraper.SearchQuery{
				{Dimension: scraper.DimensionNational, Term: "festival"},
				{Dimension: scraper.DimensionCategory, Term: "shows", Category: "shows"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scraper.BuildQueries(tt.filters, table))
		})
	}
}

func TestBuildQueries_DefaultTable(t *testing.T) {
	table := category.DefaultTable()
	queries := scraper.BuildQueries(scraper.DefaultFilters(), table)

	assert.Equal(t, scraper.DimensionRegional, queries[0].Dimension)
	assert.Equal(t, table.Regions[0], queries[0].Term)

	seen := map[string]bool{}
	for _, q := range queries {
		assert.False(t, seen[q.Term], "term %q issued twice", q.Term)
		seen[q.Term] = true
	}
}

func TestDateRange_InRange(t *testing.T) {
	now := time.Date(2024, time.January, 10, 15, 0, 0, 0, time.UTC)
	at := func(y int, m time.Month, d, h int) *time.Time {
		v := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
		return &v
	}

	tests := []struct {
		name string
		r    scraper.DateRange
		date *time.Time
		want bool
	}{
		{"any accepts undated", scraper.DateRangeAny, nil, true},
		{"empty behaves as any", "", nil, true},
		{"today rejects undated", scraper.DateRangeToday, nil, false},
		{"today from start of day", scraper.DateRangeToday, at(2024, 1, 10, 0), true},
		{"today excludes tomorrow", scraper.DateRangeToday, at(2024, 1, 11, 0), false},
		{"tomorrow excludes today", scraper.DateRangeTomorrow, at(2024, 1, 10, 23), false},
		{"tomorrow includes next day", scraper.DateRangeTomorrow, at(2024, 1, 11, 20), true},
		{"tomorrow excludes day after", scraper.DateRangeTomorrow, at(2024, 1, 12, 0), false},
		{"week includes day six", scraper.DateRangeWeek, at(2024, 1, 16, 23), true},
		{"week excludes day seven", scraper.DateRangeWeek, at(2024, 1, 17, 0), false},
		{"month includes next month's eve", scraper.DateRangeMonth, at(2024, 2, 9, 12), true},
		{"month excludes past", scraper.DateRangeMonth, at(2024, 1, 9, 23), false},
		{"unknown range passes", scraper.DateRange("year"), at(2030, 1, 1, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.InRange(tt.date, now))
		})
	}
}

func TestDefaultFilters(t *testing.T) {
	f := scraper.DefaultFilters()
	assert.Equal(t, 100, f.MaxEvents)
	assert.Equal(t, scraper.DateRangeAny, f.DateRange)
	assert.True(t, f.IncludeRegional)
	assert.True(t, f.IncludeNational)
	assert.Empty(t, f.Categories)
}
