package sources_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/event-scraper/internal/browser"
)

// elem is a goquery-backed browser.Element for driving extractors directly.
type elem struct {
	sel *goquery.Selection
}

func (e elem) find(selector string) (*goquery.Selection, bool) {
	if selector == "" {
		return e.sel, true
	}
	found := e.sel.Find(selector).First()
	return found, found.Length() > 0
}

func (e elem) Text(selector string) (string, bool) {
	s, ok := e.find(selector)
	if !ok {
		return "", false
	}
	text := strings.Join(strings.Fields(s.Text()), " ")
	return text, text != ""
}

func (e elem) Attr(selector, name string) (string, bool) {
	s, ok := e.find(selector)
	if !ok {
		return "", false
	}
	v, ok := s.Attr(name)
	return v, ok && v != ""
}

func (e elem) HTML(selector string) (string, bool) {
	s, ok := e.find(selector)
	if !ok {
		return "", false
	}
	out, err := s.Html()
	return strings.TrimSpace(out), err == nil && strings.TrimSpace(out) != ""
}

func elementsOf(t *testing.T, markup, selector string) []browser.Element {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	var out []browser.Element
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, elem{sel: s})
	})
	return out
}
