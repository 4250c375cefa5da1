package scraper

import (
	"github.com/rohmanhakim/event-scraper/internal/browser"
	"github.com/rohmanhakim/event-scraper/internal/monitor"
	"github.com/rohmanhakim/event-scraper/internal/processor"
)

// Source is one external listing site. Implementations only know their own
// URLs and markup; pacing, retries and validation belong to the Orchestrator.
type Source interface {
	Name() string
	// Domain keys the shared rate limiter.
	Domain() string
	ListingURL() string
	SearchURL(q SearchQuery) (string, error)
	ContainerSelector() string
	// FieldSelectors lists alternative selectors per field, in priority order.
	FieldSelectors() map[string][]string
	// ExtractEventData reads one listing element. An error means the element
	// is not a listing and is skipped.
	ExtractEventData(el browser.Element, pageURL string) (processor.RawEvent, error)
}

// FirstText returns the first non-empty text among selectors. Absence is
// the empty string, never an error.
func FirstText(el browser.Element, selectors []string) string {
	for _, sel := range selectors {
		if text, ok := el.Text(sel); ok {
			return text
		}
	}
	return ""
}

// FirstAttr returns the first non-empty value of any of names among selectors.
func FirstAttr(el browser.Element, selectors []string, names ...string) string {
	for _, sel := range selectors {
		for _, name := range names {
			if val, ok := el.Attr(sel, name); ok {
				return val
			}
		}
	}
	return ""
}

func FirstHTML(el browser.Element, selectors []string) string {
	for _, sel := range selectors {
		if out, ok := el.HTML(sel); ok {
			return out
		}
	}
	return ""
}

// MonitorTarget describes s for the structure monitor.
func MonitorTarget(s Source) monitor.Target {
	return monitor.Target{
		Source:    s.Name(),
		URL:       s.ListingURL(),
		Container: s.ContainerSelector(),
		Fields:    s.FieldSelectors(),
	}
}
