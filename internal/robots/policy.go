package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rohmanhakim/event-scraper/internal/metadata"
)

/*
Policy answers whether a URL may be fetched under its host's robots.txt.

  - robots.txt is fetched once per scheme and host and cached for CacheTTL.
  - 4xx means no restrictions. 429, 5xx and transport failures leave the
    URL allowed; the failure is recorded and not cached, so the next
    decision tries again.
  - Crawl-delay of the matching group is reported with every decision.
*/
type Policy struct {
	client       *http.Client
	userAgent    string
	rules        *expirable.LRU[string, RuleSet]
	metadataSink metadata.MetadataSink
	now          func() time.Time
}

const (
	DefaultCacheTTL  = 24 * time.Hour
	defaultCacheSize = 256
)

type Option func(*Policy)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Policy) {
		p.client = c
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Policy) {
		p.rules = expirable.NewLRU[string, RuleSet](defaultCacheSize, nil, ttl)
	}
}

func NewPolicy(userAgent string, metadataSink metadata.MetadataSink, opts ...Option) *Policy {
	p := &Policy{
		client:       &http.Client{Timeout: 30 * time.Second},
		userAgent:    userAgent,
		rules:        expirable.NewLRU[string, RuleSet](defaultCacheSize, nil, DefaultCacheTTL),
		metadataSink: metadataSink,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Policy) SetClock(now func() time.Time) {
	p.now = now
}

// Decide reports whether rawURL may be fetched. Only an unparseable URL is
// an error.
func (p *Policy) Decide(ctx context.Context, rawURL string) (Decision, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Decision{}, &RobotsError{Message: rawURL, Cause: ErrCauseInvalidURL, Err: err}
	}

	rules, fetchErr := p.ruleSet(ctx, u.Scheme, u.Host)
	if fetchErr != nil {
		p.recordError("Policy.Decide", fetchErr, u.Host)
		return Decision{URL: rawURL, Allowed: true, Reason: RobotsUnavailable}, nil
	}

	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	allowed, reason, rule := rules.Decide(path)
	return Decision{
		URL:        rawURL,
		Allowed:    allowed,
		Reason:     reason,
		Rule:       rule,
		CrawlDelay: rules.CrawlDelay(),
	}, nil
}

// CrawlDelay returns the Crawl-delay that applies to the host of rawURL,
// zero when none is declared or robots.txt is unavailable.
func (p *Policy) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	d, err := p.Decide(ctx, rawURL)
	if err != nil {
		return 0
	}
	return d.CrawlDelay
}

func (p *Policy) ruleSet(ctx context.Context, scheme, host string) (RuleSet, *RobotsError) {
	if scheme == "" {
		scheme = "https"
	}
	key := scheme + "://" + host
	if rs, ok := p.rules.Get(key); ok {
		return rs, nil
	}

	file, err := p.fetch(ctx, key+"/robots.txt")
	if err != nil {
		return RuleSet{}, err
	}
	rs := file.RulesFor(host, p.userAgent)
	rs.fetchedAt = p.now()
	p.rules.Add(key, rs)
	return rs, nil
}

func (p *Policy) fetch(ctx context.Context, robotsURL string) (File, *RobotsError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return File{}, &RobotsError{Message: robotsURL, Cause: ErrCauseInvalidURL, Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/plain,*/*")

	started := p.now()
	resp, err := p.client.Do(req)
	if err != nil {
		return File{}, &RobotsError{Message: robotsURL, Retryable: true, Cause: ErrCauseFetchFailed, Err: err}
	}
	defer resp.Body.Close()
	p.metadataSink.RecordFetch(robotsURL, resp.StatusCode, p.now().Sub(started), "robots", 0)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
		if err != nil {
			return File{}, &RobotsError{Message: robotsURL, Retryable: true, Cause: ErrCauseFetchFailed, Err: err}
		}
		return Parse(string(body)), nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return File{}, &RobotsError{Message: robotsURL, Retryable: true, Cause: ErrCauseRateLimited}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return File{}, nil
	case resp.StatusCode >= 500:
		return File{}, &RobotsError{Message: fmt.Sprintf("%s: status %d", robotsURL, resp.StatusCode), Retryable: true, Cause: ErrCauseServerError}
	default:
		return File{}, &RobotsError{Message: fmt.Sprintf("%s: status %d", robotsURL, resp.StatusCode), Cause: ErrCauseUnexpectedCode}
	}
}

func (p *Policy) recordError(action string, err *RobotsError, host string) {
	p.metadataSink.RecordError(
		p.now(),
		"robots",
		action,
		err.ErrorType(),
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrHost, host)},
	)
}
