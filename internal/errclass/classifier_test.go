package errclass_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/rohmanhakim/event-scraper/internal/errclass"
	"github.com/rohmanhakim/event-scraper/pkg/failure"
	"github.com/rohmanhakim/event-scraper/pkg/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o wait exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestCategorize(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantType     failure.ErrorType
		wantSeverity failure.Severity
	}{
		{
			name:         "dns failure",
			err:          &net.DNSError{Err: "no such host", Name: "sympla.com.br"},
			wantType:     failure.ErrorTypeNetwork,
			wantSeverity: failure.SeverityHigh,
		},
		{
			name:         "connection reset",
			err:          fmt.Errorf("read: %w", syscall.ECONNRESET),
			wantType:     failure.ErrorTypeNetwork,
			wantSeverity: failure.SeverityHigh,
		},
		{
			name:         "chrome net error code",
			err:          errors.New("page load error net::ERR_NAME_NOT_RESOLVED"),
			wantType:     failure.ErrorTypeNetwork,
			wantSeverity: failure.SeverityHigh,
		},
		{
			name:         "deadline exceeded",
			err:          fmt.Errorf("navigate: %w", context.DeadlineExceeded),
			wantType:     failure.ErrorTypeTimeout,
			wantSeverity: failure.SeverityMedium,
		},
		{
			name:         "net timeout",
			err:          timeoutErr{},
			wantType:     failure.ErrorTypeTimeout,
			wantSeverity: failure.SeverityMedium,
		},
		{
			name:         "timeout by message",
			err:          errors.New("waiting for selector timed out"),
			wantType:     failure.ErrorTypeTimeout,
			wantSeverity: failure.SeverityMedium,
		},
		{
			name:         "http 429",
			err:          &failure.HTTPError{URL: "https://a.example/", Status: 429, Retry: 30 * time.Second},
			wantType:     failure.ErrorTypeRateLimited,
			wantSeverity: failure.SeverityLow,
		},
		{
			name:         "http 503",
			err:          &failure.HTTPError{URL: "https://a.example/", Status: 503},
			wantType:     failure.ErrorTypeNetwork,
			wantSeverity: failure.SeverityHigh,
		},
		{
			name:         "http 404",
			err:          &failure.HTTPError{URL: "https://a.example/", Status: 404},
			wantType:     failure.ErrorTypeStructureChanged,
			wantSeverity: failure.SeverityMedium,
		},
		{
			name:         "parsing vocabulary",
			err:          errors.New("could not parse listing card"),
			wantType:     failure.ErrorTypeParsing,
			wantSeverity: failure.SeverityMedium,
		},
		{
			name:         "validation vocabulary",
			err:          errors.New("title is required"),
			wantType:     failure.ErrorTypeValidation,
			wantSeverity: failure.SeverityLow,
		},
		{
			name:         "database vocabulary",
			err:          errors.New("ERROR: relation \"events\" does not exist (SQLSTATE 42P01)"),
			wantType:     failure.ErrorTypeDatabase,
			wantSeverity: failure.SeverityCritical,
		},
		{
			name:         "database vocabulary wins over configuration",
			err:          errors.New("DATABASE_URL environment variable not set"),
			wantType:     failure.ErrorTypeDatabase,
			wantSeverity: failure.SeverityCritical,
		},
		{
			name:         "configuration only vocabulary",
			err:          errors.New("source sympla not configured"),
			wantType:     failure.ErrorTypeConfiguration,
			wantSeverity: failure.SeverityCritical,
		},
		{
			name:         "typed error keeps its type",
			err:          &limiter.LimiterError{Cause: limiter.ErrCauseRetriesExhausted, StatusCode: 429},
			wantType:     failure.ErrorTypeRateLimited,
			wantSeverity: failure.SeverityLow,
		},
		{
			name:         "unknown",
			err:          errors.New("something odd happened"),
			wantType:     failure.ErrorTypeUnknown,
			wantSeverity: failure.SeverityMedium,
		},
	}

	c := errclass.NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Categorize(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantSeverity, got.Severity())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestCategorize_RateLimitCarriesRetryAfter(t *testing.T) {
	c := errclass.NewClassifier()
	got := c.Categorize(&failure.HTTPError{URL: "https://a.example/", Status: 429, Retry: 12 * time.Second})
	assert.Equal(t, 12*time.Second, got.RetryAfter())
	assert.Equal(t, 429, got.Details["statusCode"])
}

func TestCategorize_ScrapingErrorPassesThrough(t *testing.T) {
	c := errclass.NewClassifier()
	se := errclass.Errorf(failure.ErrorTypeParsing, "bad card %d", 3)
	assert.Same(t, se, c.Categorize(fmt.Errorf("wrapped: %w", se)))
	assert.Nil(t, c.Categorize(nil))
}

func TestHandle(t *testing.T) {
	c := errclass.NewClassifier()
	ctx := errclass.Context{Source: "sympla", Operation: "navigate", URL: "https://www.sympla.com.br"}

	out := c.Handle(&failure.HTTPError{Status: 503}, ctx)
	assert.True(t, out.ShouldRetry)
	assert.False(t, out.IsCritical)
	assert.Equal(t, "sympla", out.Error.Details["source"])
	assert.Equal(t, "navigate", out.Error.Details["operation"])
	assert.NotEmpty(t, out.Recommendation)

	out = c.Handle(errors.New("postgres: connection pool exhausted"), ctx)
	assert.False(t, out.ShouldRetry)
	assert.True(t, out.IsCritical)

	out = c.Handle(errors.New("invalid date"), ctx)
	assert.False(t, out.ShouldRetry)
	assert.False(t, out.IsCritical)

	stats := c.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Critical)
	assert.Equal(t, 1, stats.ByType[failure.ErrorTypeNetwork])
	assert.Equal(t, 1, stats.ByType[failure.ErrorTypeDatabase])
	assert.Equal(t, 1, stats.BySeverity[failure.SeverityLow])

	c.Reset()
	assert.Zero(t, c.Stats().Total)
}

func TestRecommendation_EveryTypeHasOne(t *testing.T) {
	seen := map[string]bool{}
	for _, typ := range failure.AllErrorTypes {
		r := errclass.Recommendation(typ)
		assert.NotEmpty(t, r, typ)
		assert.False(t, seen[r], "duplicate recommendation for %s", typ)
		seen[r] = true
	}
}
