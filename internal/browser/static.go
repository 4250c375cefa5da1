package browser

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

// StaticBrowser loads pages over plain HTTP with colly. Nothing is rendered:
// scrolling is a no-op and selectors are checked against the served HTML.
type StaticBrowser struct {
	collector *colly.Collector
	now       func() time.Time
}

type StaticOptions struct {
	UserAgent string
	Timeout   time.Duration
}

func NewStaticBrowser(opts StaticOptions) *StaticBrowser {
	collectorOpts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if opts.UserAgent != "" {
		collectorOpts = append(collectorOpts, colly.UserAgent(opts.UserAgent))
	}
	c := colly.NewCollector(collectorOpts...)
	c.ParseHTTPErrorResponse = true
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}
	return &StaticBrowser{collector: c, now: time.Now}
}

// WithTransport replaces the HTTP transport of every page opened afterwards.
func (b *StaticBrowser) WithTransport(rt http.RoundTripper) *StaticBrowser {
	b.collector.WithTransport(rt)
	return b
}

func (b *StaticBrowser) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, &BrowserError{Message: "open page", Cause: ErrCauseTimeout, Err: err}
	}
	return &staticPage{browser: b}, nil
}

func (b *StaticBrowser) Close() error {
	return nil
}

type staticPage struct {
	browser *StaticBrowser
	snap    *snapshot
	closed  bool
}

func (p *staticPage) Navigate(ctx context.Context, url string) (Response, error) {
	if p.closed {
		return Response{}, &BrowserError{Message: url, Cause: ErrCausePageClosed, URL: url}
	}
	if err := ctx.Err(); err != nil {
		return Response{}, &BrowserError{Message: url, Cause: ErrCauseTimeout, URL: url, Err: err}
	}

	c := p.browser.collector.Clone()
	c.ParseHTTPErrorResponse = true

	var resp *colly.Response
	c.OnResponse(func(r *colly.Response) {
		resp = r
	})

	if err := c.Visit(url); err != nil {
		cause := ErrCauseNavigationFailed
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			cause = ErrCauseTimeout
		}
		return Response{}, &BrowserError{Message: url, Retryable: true, Cause: cause, URL: url, Err: err}
	}
	if resp == nil {
		return Response{}, &BrowserError{Message: "no response for " + url, Retryable: true, Cause: ErrCauseNavigationFailed, URL: url}
	}

	snap, err := parseSnapshot(resp.Body)
	if err != nil {
		return Response{}, &BrowserError{Message: url, Cause: ErrCauseParseFailed, URL: url, Err: err}
	}
	p.snap = snap

	out := Response{URL: url, Status: resp.StatusCode}
	if resp.Request != nil && resp.Request.URL != nil {
		out.URL = resp.Request.URL.String()
	}
	if resp.Headers != nil {
		out.RetryAfter = failure.ParseRetryAfter(resp.Headers.Get("Retry-After"), p.browser.now())
	}
	return out, nil
}

func (p *staticPage) WaitFor(ctx context.Context, selector string, _ time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &BrowserError{Message: selector, Cause: ErrCauseTimeout, Err: err}
	}
	return p.snap != nil && p.snap.has(selector), nil
}

func (p *staticPage) Scroll(ctx context.Context, _ int, _ time.Duration) error {
	return ctx.Err()
}

func (p *staticPage) Query(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, &BrowserError{Message: selector, Cause: ErrCauseTimeout, Err: err}
	}
	if p.snap == nil {
		return nil, nil
	}
	return p.snap.query(selector), nil
}

func (p *staticPage) Title(context.Context) (string, error) {
	if p.snap == nil {
		return "", nil
	}
	return p.snap.title(), nil
}

func (p *staticPage) ReadyState(context.Context) (string, error) {
	if p.snap == nil {
		return "loading", nil
	}
	return "complete", nil
}

func (p *staticPage) Close() error {
	p.closed = true
	p.snap = nil
	return nil
}
