package browser

import (
	"context"
	"time"
)

/*
Responsibilities

- Open pages and navigate them to a URL
- Report the HTTP status of the main document
- Wait for selectors with a bounded timeout
- Expose matched elements for field extraction

Pages are not safe for concurrent use. A scraper owns one page for the
duration of a run and must Close it on every exit path.
*/

// Response describes the main document loaded by Navigate.
type Response struct {
	URL        string
	Status     int
	RetryAfter time.Duration
}

type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

type Page interface {
	Navigate(ctx context.Context, url string) (Response, error)
	// WaitFor reports whether selector matched before timeout. A timeout is
	// not an error.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	Scroll(ctx context.Context, times int, delay time.Duration) error
	Query(ctx context.Context, selector string) ([]Element, error)
	Title(ctx context.Context) (string, error)
	ReadyState(ctx context.Context) (string, error)
	Close() error
}

// Element is one matched node. Selectors are relative to the element; an
// empty selector addresses the element itself. Absence is reported through
// the boolean, never as an error.
type Element interface {
	Text(selector string) (string, bool)
	Attr(selector, name string) (string, bool)
	HTML(selector string) (string, bool)
}
