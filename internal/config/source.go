package config

import (
	"fmt"
	"time"

	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/pkg/limiter"
	"github.com/rohmanhakim/event-scraper/pkg/retry"
)

// SourceConfig holds the per-source politeness and quality settings.
type SourceConfig struct {
	// Base delay between two requests to the source
	rateLimit time.Duration
	// Cap for the adaptive delay after 429/5xx
	maxDelay time.Duration
	// Navigation timeout
	timeout time.Duration
	// Retries after the first attempt, for both the limiter and the retry handler
	maxRetries int

	requireImage       bool
	requireDescription bool
	minTitleLength     int
	futureOnly         bool
	// ISO 4217 code stamped on parsed prices
	currency string
}

type sourceConfigDTO struct {
	RateLimit          time.Duration `json:"rateLimit,omitempty"`
	MaxDelay           time.Duration `json:"maxDelay,omitempty"`
	Timeout            time.Duration `json:"timeout,omitempty"`
	MaxRetries         *int          `json:"maxRetries,omitempty"`
	RequireImage       *bool         `json:"requireImage,omitempty"`
	RequireDescription *bool         `json:"requireDescription,omitempty"`
	MinTitleLength     *int          `json:"minTitleLength,omitempty"`
	FutureOnly         *bool         `json:"futureOnly,omitempty"`
	Currency           string        `json:"currency,omitempty"`
}

func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		rateLimit:      2 * time.Second,
		maxDelay:       30 * time.Second,
		timeout:        30 * time.Second,
		maxRetries:     3,
		minTitleLength: 5,
		futureOnly:     true,
		currency:       "BRL",
	}
}

// apply overlays the fields present in dto onto s.
func (s SourceConfig) apply(dto sourceConfigDTO) SourceConfig {
	if dto.RateLimit != 0 {
		s.rateLimit = dto.RateLimit
	}
	if dto.MaxDelay != 0 {
		s.maxDelay = dto.MaxDelay
	}
	if dto.Timeout != 0 {
		s.timeout = dto.Timeout
	}
	if dto.MaxRetries != nil {
		s.maxRetries = *dto.MaxRetries
	}
	if dto.RequireImage != nil {
		s.requireImage = *dto.RequireImage
	}
	if dto.RequireDescription != nil {
		s.requireDescription = *dto.RequireDescription
	}
	if dto.MinTitleLength != nil {
		s.minTitleLength = *dto.MinTitleLength
	}
	if dto.FutureOnly != nil {
		s.futureOnly = *dto.FutureOnly
	}
	if dto.Currency != "" {
		s.currency = dto.Currency
	}
	return s
}

func (s SourceConfig) WithRateLimit(d time.Duration) SourceConfig {
	s.rateLimit = d
	return s
}

func (s SourceConfig) WithMaxDelay(d time.Duration) SourceConfig {
	s.maxDelay = d
	return s
}

func (s SourceConfig) WithTimeout(d time.Duration) SourceConfig {
	s.timeout = d
	return s
}

func (s SourceConfig) WithMaxRetries(n int) SourceConfig {
	s.maxRetries = n
	return s
}

func (s SourceConfig) WithRequireImage(v bool) SourceConfig {
	s.requireImage = v
	return s
}

func (s SourceConfig) WithRequireDescription(v bool) SourceConfig {
	s.requireDescription = v
	return s
}

func (s SourceConfig) WithMinTitleLength(n int) SourceConfig {
	s.minTitleLength = n
	return s
}

func (s SourceConfig) WithFutureOnly(v bool) SourceConfig {
	s.futureOnly = v
	return s
}

func (s SourceConfig) WithCurrency(code string) SourceConfig {
	s.currency = code
	return s
}

func (s SourceConfig) validate(name string) error {
	switch {
	case s.rateLimit < 0:
		return fmt.Errorf("%w: source %s: rateLimit must not be negative", ErrInvalidConfig, name)
	case s.maxDelay < s.rateLimit:
		return fmt.Errorf("%w: source %s: maxDelay must be at least rateLimit", ErrInvalidConfig, name)
	case s.timeout <= 0:
		return fmt.Errorf("%w: source %s: timeout must be positive", ErrInvalidConfig, name)
	case s.maxRetries < 0:
		return fmt.Errorf("%w: source %s: maxRetries must not be negative", ErrInvalidConfig, name)
	case s.minTitleLength < 0:
		return fmt.Errorf("%w: source %s: minTitleLength must not be negative", ErrInvalidConfig, name)
	case len(s.currency) != 3:
		return fmt.Errorf("%w: source %s: currency must be a 3-letter code", ErrInvalidConfig, name)
	}
	return nil
}

func (s SourceConfig) RateLimit() time.Duration {
	return s.rateLimit
}

func (s SourceConfig) MaxDelay() time.Duration {
	return s.maxDelay
}

func (s SourceConfig) Timeout() time.Duration {
	return s.timeout
}

func (s SourceConfig) MaxRetries() int {
	return s.maxRetries
}

func (s SourceConfig) RequireImage() bool {
	return s.requireImage
}

func (s SourceConfig) RequireDescription() bool {
	return s.requireDescription
}

func (s SourceConfig) MinTitleLength() int {
	return s.minTitleLength
}

func (s SourceConfig) FutureOnly() bool {
	return s.futureOnly
}

func (s SourceConfig) Currency() string {
	return s.currency
}

// LimiterParam derives the rate limiter tunables. Jitter is a tenth of the
// base delay.
func (s SourceConfig) LimiterParam() limiter.Param {
	return limiter.NewParam(s.rateLimit, s.maxDelay, 2.0, s.maxRetries, s.rateLimit/10)
}

func (s SourceConfig) Rules() processor.Rules {
	return processor.Rules{
		MinTitleLength:     s.minTitleLength,
		RequireImage:       s.requireImage,
		RequireDescription: s.requireDescription,
		FutureOnly:         s.futureOnly,
		Currency:           s.currency,
	}
}

func (s SourceConfig) RetryParam(seed int64) retry.RetryParam {
	return retry.NewRetryParam(s.maxRetries, time.Second, s.maxDelay, 250*time.Millisecond, seed)
}
