package failure

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPError reports a non-success status returned while loading a page.
// BackedOff is set when the caller already waited out the backoff for this
// response, so retry layers must not wait a second time.
type HTTPError struct {
	URL       string
	Status    int
	Retry     time.Duration
	BackedOff bool
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d for %s", e.Status, e.URL)
}

func (e *HTTPError) StatusCode() int {
	return e.Status
}

func (e *HTTPError) RetryAfter() time.Duration {
	return e.Retry
}

func (e *HTTPError) WasBackedOff() bool {
	return e.BackedOff
}

func (e *HTTPError) Severity() Severity {
	switch {
	case e.Status == http.StatusTooManyRequests:
		return SeverityLow
	case e.Status >= 500:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// ParseRetryAfter reads a Retry-After header value given either as
// delta-seconds or as an HTTP date. Unparseable or past values yield 0.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
