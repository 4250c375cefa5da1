package sources

import (
	"github.com/rohmanhakim/event-scraper/internal/browser"
	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/internal/scraper"
	"github.com/rohmanhakim/event-scraper/pkg/urlutil"
)

const (
	SymplaName    = "sympla"
	symplaBaseURL = "https://www.sympla.com.br"
)

// Sympla scrapes the sympla.com.br search listing. Every search dimension
// maps to the same full-text search page.
type Sympla struct {
	site
}

func NewSympla(opts ...Option) *Sympla {
	s := &Sympla{site: site{
		name:      SymplaName,
		baseURL:   symplaBaseURL,
		container: "a[href*='/evento/']",
		fields: map[string][]string{
			FieldTitle:       {"h3", "[data-testid='event-title']", ".event-name"},
			FieldDate:        {"time", "[data-testid='event-date']", ".event-date"},
			FieldLocation:    {"[data-testid='event-location']", ".event-location", "address"},
			FieldImage:       {"img"},
			FieldPrice:       {"[data-testid='event-price']", "[class*='price']"},
			FieldDescription: {".event-description"},
			FieldOrganizer:   {"[data-testid='event-organizer']", ".event-organizer"},
			FieldURL:         {"", "a"},
		},
	}}
	for _, opt := range opts {
		opt(&s.site)
	}
	return s
}

func (s *Sympla) ListingURL() string {
	return s.baseURL + "/eventos"
}

func (s *Sympla) SearchURL(q scraper.SearchQuery) (string, error) {
	return urlutil.WithQuery(s.baseURL+"/pesquisar", "s", q.Term)
}

func (s *Sympla) ExtractEventData(el browser.Element, pageURL string) (processor.RawEvent, error) {
	return s.extract(el, pageURL)
}
