package sources

import (
	"fmt"

	"github.com/rohmanhakim/event-scraper/internal/browser"
	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/internal/scraper"
)

const (
	EventbriteName    = "eventbrite"
	eventbriteBaseURL = "https://www.eventbrite.com.br"
)

// Eventbrite scrapes eventbrite's Brazilian discovery pages. Regional
// queries browse a place, the others search a keyword nationwide.
type Eventbrite struct {
	site
}

func NewEventbrite(opts ...Option) *Eventbrite {
	e := &Eventbrite{site: site{
		name:      EventbriteName,
		baseURL:   eventbriteBaseURL,
		container: "[data-testid='search-event']",
		fields: map[string][]string{
			FieldTitle:       {"h3", "h2", "[class*='event-card__title']"},
			FieldDate:        {"[class*='event-card__date']", "time", "p:nth-of-type(1)"},
			FieldLocation:    {"[class*='event-card__location']", "[class*='venue']", "p:nth-of-type(2)"},
			FieldImage:       {"img.event-card-image", "img"},
			FieldPrice:       {"[class*='event-card__price']", "[class*='price']"},
			FieldDescription: {"[class*='event-card__summary']"},
			FieldOrganizer:   {"[class*='organizer']"},
			FieldURL:         {"a.event-card-link", "a"},
		},
	}}
	for _, opt := range opts {
		opt(&e.site)
	}
	return e
}

func (e *Eventbrite) ListingURL() string {
	return e.baseURL + "/d/brazil/events/"
}

func (e *Eventbrite) SearchURL(q scraper.SearchQuery) (string, error) {
	s := slug(q.Term)
	if s == "" {
		return "", fmt.Errorf("eventbrite: empty search term %q", q.Term)
	}
	if q.Dimension == scraper.DimensionRegional {
		return fmt.Sprintf("%s/d/brazil--%s/events/", e.baseURL, s), nil
	}
	return fmt.Sprintf("%s/d/brazil/%s/", e.baseURL, s), nil
}

func (e *Eventbrite) ExtractEventData(el browser.Element, pageURL string) (processor.RawEvent, error) {
	return e.extract(el, pageURL)
}
