package limiter

import "time"

// Param holds the tunables of a single RateLimiter.
type Param struct {
	baseDelay     time.Duration
	maxDelay      time.Duration
	backoffFactor float64
	maxRetries    int
	jitter        time.Duration
}

func NewParam(
	baseDelay time.Duration,
	maxDelay time.Duration,
	backoffFactor float64,
	maxRetries int,
	jitter time.Duration,
) Param {
	return Param{
		baseDelay:     baseDelay,
		maxDelay:      maxDelay,
		backoffFactor: backoffFactor,
		maxRetries:    maxRetries,
		jitter:        jitter,
	}
}

// DefaultParam mirrors a polite single-host crawl: 1s between requests,
// doubling up to 30s, three rate-limit retries.
func DefaultParam() Param {
	return NewParam(time.Second, 30*time.Second, 2.0, 3, 0)
}

func (p Param) BaseDelay() time.Duration { return p.baseDelay }
func (p Param) MaxDelay() time.Duration  { return p.maxDelay }
func (p Param) BackoffFactor() float64   { return p.backoffFactor }
func (p Param) MaxRetries() int          { return p.maxRetries }
func (p Param) Jitter() time.Duration    { return p.jitter }
func (p Param) WithBaseDelay(d time.Duration) Param {
	p.baseDelay = d
	return p
}

// normalized fills in unusable values so the controller arithmetic stays bounded.
func (p Param) normalized() Param {
	if p.baseDelay < 0 {
		p.baseDelay = 0
	}
	if p.maxDelay < p.baseDelay {
		p.maxDelay = p.baseDelay
	}
	if p.backoffFactor < 1 {
		p.backoffFactor = 1
	}
	if p.maxRetries < 0 {
		p.maxRetries = 0
	}
	return p
}

// Stats is a point-in-time snapshot of a limiter's counters.
type Stats struct {
	TotalRequests int
	RateLimitHits int
	TotalWaitTime time.Duration
	CurrentDelay  time.Duration
	RetryCount    int
	LastRequestAt time.Time
}
