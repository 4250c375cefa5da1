package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
	"github.com/rohmanhakim/event-scraper/pkg/timeutil"
)

const defaultNavigationTimeout = 30 * time.Second

type ChromeOptions struct {
	Headless          bool
	UserAgent         string
	ExecPath          string
	NavigationTimeout time.Duration
}

// ChromeBrowser drives one headless Chrome process. Each page is a tab.
type ChromeBrowser struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	navTimeout    time.Duration
}

func NewChromeBrowser(ctx context.Context, opts ChromeOptions) (*ChromeBrowser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, &BrowserError{Message: "start chrome", Cause: ErrCauseLaunchFailed, Err: err}
	}

	navTimeout := opts.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}
	return &ChromeBrowser{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		navTimeout:    navTimeout,
	}, nil
}

// NewPage opens a tab. The first Run on a tab context attaches it and ties
// the tab's event loop to that context, so it must run on tabCtx itself and
// never on a derived timeout.
func (b *ChromeBrowser) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	p := &chromePage{ctx: tabCtx, cancel: cancel, navTimeout: b.navTimeout}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		p.mu.Lock()
		p.status = int(e.Response.Status)
		p.retryAfter = headerValue(e.Response.Headers, "Retry-After")
		p.mu.Unlock()
	})

	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx, network.Enable())
	stop()
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &BrowserError{Message: "open tab", Cause: ErrCauseLaunchFailed, Err: err}
	}
	return p, nil
}

func (b *ChromeBrowser) Close() error {
	b.cancelBrowser()
	b.cancelAlloc()
	return nil
}

type chromePage struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration

	mu         sync.Mutex
	status     int
	retryAfter string
}

// run executes actions on the tab, bounded by timeout and cancelled with ctx.
// Cancelling a derived context leaves the tab open.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string) (Response, error) {
	p.mu.Lock()
	p.status, p.retryAfter = 0, ""
	p.mu.Unlock()

	var location string
	err := p.run(ctx, p.navTimeout,
		chromedp.Navigate(url),
		chromedp.Location(&location),
	)
	if err != nil {
		cause := ErrCauseNavigationFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			cause = ErrCauseTimeout
		}
		return Response{}, &BrowserError{Message: url, Retryable: true, Cause: cause, URL: url, Err: err}
	}

	p.mu.Lock()
	status, retryAfter := p.status, p.retryAfter
	p.mu.Unlock()
	if status == 0 {
		// served from cache or a same-document navigation
		status = 200
	}
	return Response{
		URL:        location,
		Status:     status,
		RetryAfter: failure.ParseRetryAfter(retryAfter, time.Now()),
	}, nil
}

func (p *chromePage) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	err := p.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, &BrowserError{Message: selector, Cause: ErrCauseTimeout, Err: ctx.Err()}
	case errors.Is(err, context.DeadlineExceeded):
		return false, nil
	default:
		return false, &BrowserError{Message: selector, Cause: ErrCauseEvaluateFailed, Err: err}
	}
}

func (p *chromePage) Scroll(ctx context.Context, times int, delay time.Duration) error {
	for i := 0; i < times; i++ {
		var height float64
		err := p.run(ctx, p.navTimeout, chromedp.Evaluate(
			`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`, &height))
		if err != nil {
			return &BrowserError{Message: "scroll", Cause: ErrCauseEvaluateFailed, Err: err}
		}
		if err := timeutil.Sleep(ctx, delay); err != nil {
			return &BrowserError{Message: "scroll", Cause: ErrCauseTimeout, Err: err}
		}
	}
	return nil
}

func (p *chromePage) Query(ctx context.Context, selector string) ([]Element, error) {
	var outer string
	if err := p.run(ctx, p.navTimeout, chromedp.OuterHTML("html", &outer, chromedp.ByQuery)); err != nil {
		return nil, &BrowserError{Message: selector, Cause: ErrCauseEvaluateFailed, Err: err}
	}
	snap, err := parseSnapshot([]byte(outer))
	if err != nil {
		return nil, &BrowserError{Message: selector, Cause: ErrCauseParseFailed, Err: err}
	}
	return snap.query(selector), nil
}

func (p *chromePage) Title(ctx context.Context) (string, error) {
	var title string
	if err := p.run(ctx, p.navTimeout, chromedp.Title(&title)); err != nil {
		return "", &BrowserError{Message: "title", Cause: ErrCauseEvaluateFailed, Err: err}
	}
	return title, nil
}

func (p *chromePage) ReadyState(ctx context.Context) (string, error) {
	var state string
	if err := p.run(ctx, p.navTimeout, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
		return "", &BrowserError{Message: "readyState", Cause: ErrCauseEvaluateFailed, Err: err}
	}
	return state, nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

func headerValue(h network.Headers, name string) string {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}
