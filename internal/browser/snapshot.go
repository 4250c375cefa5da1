package browser

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// snapshot is a parsed copy of a page's DOM at one point in time.
type snapshot struct {
	doc *goquery.Document
}

func parseSnapshot(body []byte) (*snapshot, error) {
	node, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &snapshot{doc: goquery.NewDocumentFromNode(node)}, nil
}

func (s *snapshot) has(selector string) bool {
	return s.doc.Find(selector).Length() > 0
}

func (s *snapshot) title() string {
	return collapse(s.doc.Find("title").First().Text())
}

func (s *snapshot) query(selector string) []Element {
	var out []Element
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, &element{sel: sel})
	})
	return out
}

type element struct {
	sel *goquery.Selection
}

func (e *element) find(selector string) (*goquery.Selection, bool) {
	if selector == "" {
		return e.sel, true
	}
	found := e.sel.Find(selector).First()
	return found, found.Length() > 0
}

func (e *element) Text(selector string) (string, bool) {
	sel, ok := e.find(selector)
	if !ok {
		return "", false
	}
	text := collapse(sel.Text())
	return text, text != ""
}

func (e *element) Attr(selector, name string) (string, bool) {
	sel, ok := e.find(selector)
	if !ok {
		return "", false
	}
	val, ok := sel.Attr(name)
	val = strings.TrimSpace(val)
	return val, ok && val != ""
}

func (e *element) HTML(selector string) (string, bool) {
	sel, ok := e.find(selector)
	if !ok {
		return "", false
	}
	out, err := sel.Html()
	if err != nil {
		return "", false
	}
	out = strings.TrimSpace(out)
	return out, out != ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
