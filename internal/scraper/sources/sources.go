package sources

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/rohmanhakim/event-scraper/internal/browser"
	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/internal/scraper"
	"github.com/rohmanhakim/event-scraper/pkg/urlutil"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Option tweaks a source at construction time.
type Option func(*site)

// WithBaseURL points a source at another origin, e.g. a test server.
func WithBaseURL(base string) Option {
	return func(s *site) {
		s.baseURL = strings.TrimRight(base, "/")
	}
}

// WithContainerSelector overrides the listing container selector.
func WithContainerSelector(sel string) Option {
	return func(s *site) {
		s.container = sel
	}
}

// WithFieldSelectors replaces the fallback list of one field.
func WithFieldSelectors(field string, selectors ...string) Option {
	return func(s *site) {
		s.fields[field] = selectors
	}
}

// site holds what every concrete source shares: an origin, a container
// selector and per-field fallback lists.
type site struct {
	name      string
	baseURL   string
	container string
	fields    map[string][]string
}

func (s *site) Name() string {
	return s.name
}

func (s *site) Domain() string {
	return urlutil.Host(s.baseURL)
}

func (s *site) ContainerSelector() string {
	return s.container
}

func (s *site) FieldSelectors() map[string][]string {
	out := make(map[string][]string, len(s.fields))
	for k, v := range s.fields {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// extract reads the common listing fields. The link comes from the element
// itself when it is an anchor, otherwise from the url selectors.
func (s *site) extract(el browser.Element, pageURL string) (processor.RawEvent, error) {
	raw := processor.RawEvent{
		Title:        scraper.FirstText(el, s.fields[FieldTitle]),
		DateText:     firstTextOrAttr(el, s.fields[FieldDate], "datetime"),
		LocationText: scraper.FirstText(el, s.fields[FieldLocation]),
		ImageURL:     scraper.FirstAttr(el, s.fields[FieldImage], "src", "data-src"),
		ImageAlt:     scraper.FirstAttr(el, s.fields[FieldImage], "alt"),
		PriceText:    scraper.FirstText(el, s.fields[FieldPrice]),
		Description:  scraper.FirstHTML(el, s.fields[FieldDescription]),
		Organizer:    scraper.FirstText(el, s.fields[FieldOrganizer]),
	}

	href := scraper.FirstAttr(el, s.fields[FieldURL], "href")
	if href != "" {
		raw.URL = urlutil.Resolve(pageURL, href)
	}
	if raw.ImageURL != "" {
		raw.ImageURL = urlutil.Resolve(pageURL, raw.ImageURL)
	}

	if raw.Title == "" && raw.URL == "" {
		return processor.RawEvent{}, &scraper.ScraperError{
			Message: fmt.Sprintf("%s: element has neither title nor link", s.name),
			Cause:   scraper.ErrCauseExtractFailed,
		}
	}
	return raw, nil
}

// firstTextOrAttr prefers a machine-readable attribute over visible text.
func firstTextOrAttr(el browser.Element, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v, ok := el.Attr(sel, attr); ok {
			return v
		}
		if v, ok := el.Text(sel); ok {
			return v
		}
	}
	return ""
}

const (
	FieldTitle       = "title"
	FieldDate        = "date"
	FieldLocation    = "location"
	FieldImage       = "image"
	FieldPrice       = "price"
	FieldDescription = "description"
	FieldOrganizer   = "organizer"
	FieldURL         = "url"
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// slug lowercases, strips accents and joins words with dashes.
func slug(term string) string {
	folded, _, err := transform.String(foldAccents, strings.ToLower(term))
	if err != nil {
		folded = strings.ToLower(term)
	}
	var b strings.Builder
	dash := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}

type constructor func(opts ...Option) scraper.Source

var registry = map[string]constructor{
	SymplaName:     func(opts ...Option) scraper.Source { return NewSympla(opts...) },
	EventbriteName: func(opts ...Option) scraper.Source { return NewEventbrite(opts...) },
}

// Names lists every known source, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns one instance of every known source, sorted by name.
func All(opts ...Option) []scraper.Source {
	var out []scraper.Source
	for _, name := range Names() {
		out = append(out, registry[name](opts...))
	}
	return out
}

// ByName returns the named source.
func ByName(name string, opts ...Option) (scraper.Source, error) {
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(opts...), nil
}
