package errclass

import "github.com/rohmanhakim/event-scraper/pkg/failure"

// Context locates a failure for reporting.
type Context struct {
	Source    string
	Operation string
	URL       string
}

// Outcome is what Handle tells the caller to do with a failure.
type Outcome struct {
	Error          *failure.ScrapingError
	ShouldRetry    bool
	IsCritical     bool
	Recommendation string
}

// Stats are the running counters kept by a Classifier.
type Stats struct {
	Total      int
	ByType     map[failure.ErrorType]int
	BySeverity map[failure.Severity]int
	Critical   int
}
