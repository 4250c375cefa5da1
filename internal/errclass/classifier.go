package errclass

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rohmanhakim/event-scraper/pkg/failure"
)

var (
	networkVocabulary = []string{
		"net::err_", "econnreset", "econnrefused", "enotfound", "eai_again",
		"connection reset", "connection refused", "no such host", "network is unreachable",
		"broken pipe", "tls handshake",
	}
	timeoutVocabulary = []string{
		"timeout", "timed out", "etimedout", "deadline exceeded",
	}
	parsingVocabulary = []string{
		"selector", "parse", "parsing", "unexpected token", "malformed", "no elements", "element not found",
	}
	validationVocabulary = []string{
		"validation", "invalid", "required", "missing", "too short",
	}
	databaseVocabulary = []string{
		"database", "sqlstate", "postgres", "pgx", "connection pool", "duplicate key", "relation", "redis",
	}
	configurationVocabulary = []string{
		"config", "configuration", "environment variable", "env var", "dsn", "not configured",
	}
)

// Classifier maps arbitrary failures into the closed taxonomy and keeps
// running counters. The zero value is not usable; use NewClassifier.
type Classifier struct {
	mu    sync.Mutex
	stats Stats
	now   func() time.Time
}

func NewClassifier() *Classifier {
	c := &Classifier{now: time.Now}
	c.stats = emptyStats()
	return c
}

func (c *Classifier) SetClock(now func() time.Time) {
	c.now = now
}

// Categorize converts err into a ScrapingError. The first matching rule wins:
// already-typed errors keep their type, then network failures, timeouts,
// HTTP 429, HTTP 5xx, HTTP 404, and finally message vocabularies for
// parsing, validation, database and configuration.
func (c *Classifier) Categorize(err error) *failure.ScrapingError {
	if err == nil {
		return nil
	}

	var se *failure.ScrapingError
	if errors.As(err, &se) {
		return se
	}

	details := map[string]any{}
	errType := c.detectType(err, details)

	return &failure.ScrapingError{
		Type:      errType,
		Level:     errType.Severity(),
		Message:   err.Error(),
		Details:   details,
		Timestamp: c.now(),
		Err:       err,
	}
}

func (c *Classifier) detectType(err error, details map[string]any) failure.ErrorType {
	var typed failure.Typed
	if errors.As(err, &typed) {
		if t := typed.ErrorType(); t != failure.ErrorTypeUnknown {
			addHTTPDetails(err, details)
			return t
		}
	}

	msg := strings.ToLower(err.Error())

	if isNetworkFailure(err) || containsAny(msg, networkVocabulary) {
		return failure.ErrorTypeNetwork
	}
	if isTimeout(err) || containsAny(msg, timeoutVocabulary) {
		return failure.ErrorTypeTimeout
	}

	if status := statusCodeOf(err); status != 0 {
		details["statusCode"] = status
		switch {
		case status == http.StatusTooManyRequests:
			addHTTPDetails(err, details)
			return failure.ErrorTypeRateLimited
		case status >= 500:
			return failure.ErrorTypeNetwork
		case status == http.StatusNotFound:
			return failure.ErrorTypeStructureChanged
		}
	}

	switch {
	case containsAny(msg, parsingVocabulary):
		return failure.ErrorTypeParsing
	case containsAny(msg, validationVocabulary):
		return failure.ErrorTypeValidation
	case containsAny(msg, databaseVocabulary):
		return failure.ErrorTypeDatabase
	case containsAny(msg, configurationVocabulary):
		return failure.ErrorTypeConfiguration
	}
	return failure.ErrorTypeUnknown
}

// Handle categorizes err, counts it and decides retry and criticality.
func (c *Classifier) Handle(err error, ctx Context) Outcome {
	classified := c.Categorize(err)
	if classified == nil {
		return Outcome{}
	}
	if ctx.Source != "" || ctx.Operation != "" || ctx.URL != "" {
		classified = withContext(classified, ctx)
	}

	critical := classified.Level == failure.SeverityCritical

	c.mu.Lock()
	c.stats.Total++
	c.stats.ByType[classified.Type]++
	c.stats.BySeverity[classified.Level]++
	if critical {
		c.stats.Critical++
	}
	c.mu.Unlock()

	return Outcome{
		Error:          classified,
		ShouldRetry:    classified.Type.IsRecoverable(),
		IsCritical:     critical,
		Recommendation: Recommendation(classified.Type),
	}
}

func (c *Classifier) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := emptyStats()
	out.Total = c.stats.Total
	out.Critical = c.stats.Critical
	for k, v := range c.stats.ByType {
		out.ByType[k] = v
	}
	for k, v := range c.stats.BySeverity {
		out.BySeverity[k] = v
	}
	return out
}

func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = emptyStats()
}

// Recommendation returns the operator-facing remediation for t.
func Recommendation(t failure.ErrorType) string {
	switch t {
	case failure.ErrorTypeNetwork:
		return "Check network connectivity and whether the source is reachable; the request will be retried."
	case failure.ErrorTypeTimeout:
		return "The source responded slowly; consider raising the navigation timeout for this source."
	case failure.ErrorTypeRateLimited:
		return "The source is throttling requests; increase the per-source rate limit delay."
	case failure.ErrorTypeStructureChanged:
		return "The page layout changed; review the selectors for this source and check the structure monitor."
	case failure.ErrorTypeParsing:
		return "Extraction failed on the page content; inspect the listing markup and the selector fallbacks."
	case failure.ErrorTypeValidation:
		return "A record failed validation; review the source quality filters."
	case failure.ErrorTypeDatabase:
		return "The persistence target is unavailable; verify the database connection and schema."
	case failure.ErrorTypeConfiguration:
		return "The scraper is misconfigured; check environment variables and the config file."
	default:
		return "Unexpected failure; inspect the logs for the full error chain."
	}
}

func withContext(se *failure.ScrapingError, ctx Context) *failure.ScrapingError {
	details := make(map[string]any, len(se.Details)+3)
	for k, v := range se.Details {
		details[k] = v
	}
	if ctx.Source != "" {
		details["source"] = ctx.Source
	}
	if ctx.Operation != "" {
		details["operation"] = ctx.Operation
	}
	if ctx.URL != "" {
		details["url"] = ctx.URL
	}
	cp := *se
	cp.Details = details
	return &cp
}

func emptyStats() Stats {
	return Stats{
		ByType:     make(map[failure.ErrorType]int),
		BySeverity: make(map[failure.Severity]int),
	}
}

func isNetworkFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && !opErr.Timeout() {
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func statusCodeOf(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

func addHTTPDetails(err error, details map[string]any) {
	var ra interface{ RetryAfter() time.Duration }
	if errors.As(err, &ra) {
		if d := ra.RetryAfter(); d > 0 {
			details["retryAfter"] = d
		}
	}
	if status := statusCodeOf(err); status != 0 {
		details["statusCode"] = status
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Errorf builds a ScrapingError of type t directly, for call sites that
// already know the category.
func Errorf(t failure.ErrorType, format string, args ...any) *failure.ScrapingError {
	return &failure.ScrapingError{
		Type:      t,
		Level:     t.Severity(),
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
	}
}
