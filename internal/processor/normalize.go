package processor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rohmanhakim/event-scraper/pkg/urlutil"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reCityState  = regexp.MustCompile(`^(.*?)\s*[/\-]\s*([A-Za-z]{2})$`)
	reAmount     = regexp.MustCompile(`\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?|\d+(?:[.,]\d{1,2})?`)
	reHTMLTag    = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

	brazilianStates = map[string]bool{
		"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true, "DF": true,
		"ES": true, "GO": true, "MA": true, "MT": true, "MS": true, "MG": true, "PA": true,
		"PB": true, "PR": true, "PE": true, "PI": true, "RJ": true, "RN": true, "RS": true,
		"RO": true, "RR": true, "SC": true, "SP": true, "SE": true, "TO": true,
	}

	freeVocabulary = []string{"gratis", "gratuito", "gratuita", "free", "entrada franca", "entrada livre", "sem custo"}
)

// normalizeTitle trims, collapses whitespace and caps length at a rune boundary.
func normalizeTitle(s string) string {
	s = collapse(s)
	if utf8.RuneCountInString(s) <= maxTitleLength {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:maxTitleLength]))
}

// parseLocation splits "venue, address, city - UF" shaped text. Text with a
// single segment becomes the venue as-is.
func parseLocation(text string) Location {
	text = collapse(text)
	if text == "" {
		return Location{}
	}

	var parts []string
	for _, p := range strings.Split(strings.ReplaceAll(text, " - ", ","), ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) <= 1 {
		return Location{Venue: text}
	}

	loc := Location{Venue: parts[0]}
	rest := parts[1:]

	last := rest[len(rest)-1]
	if st := strings.ToUpper(last); brazilianStates[st] && len(last) == 2 {
		loc.State = st
		rest = rest[:len(rest)-1]
	} else if m := reCityState.FindStringSubmatch(last); m != nil && brazilianStates[strings.ToUpper(m[2])] {
		loc.State = strings.ToUpper(m[2])
		rest[len(rest)-1] = strings.TrimSpace(m[1])
	}

	if len(rest) > 0 {
		loc.City = rest[len(rest)-1]
		if len(rest) > 1 {
			loc.Address = strings.Join(rest[:len(rest)-1], ", ")
		}
	}
	return loc
}

func normalizeImage(rawURL, alt, pageURL string) *Image {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.HasPrefix(rawURL, "data:") {
		return nil
	}
	if pageURL != "" {
		rawURL = urlutil.Resolve(pageURL, rawURL)
	}
	return &Image{URL: urlutil.ForceHTTPS(rawURL), Alt: collapse(alt)}
}

// parsePrice reads free vocabulary or a range of Brazilian-formatted
// amounts ("R$ 1.234,50 - R$ 2.000"). Unreadable text yields nil.
func parsePrice(text, currency string) *Price {
	folded := fold(text)
	if folded == "" {
		return nil
	}
	for _, w := range freeVocabulary {
		if strings.Contains(folded, w) {
			return &Price{Currency: currency, IsFree: true}
		}
	}

	var amounts []float64
	for _, m := range reAmount.FindAllString(folded, -1) {
		if v, ok := parseAmount(m); ok {
			amounts = append(amounts, v)
		}
	}
	if len(amounts) == 0 {
		return nil
	}

	p := &Price{Min: amounts[0], Max: amounts[0], Currency: currency}
	for _, v := range amounts[1:] {
		if v < p.Min {
			p.Min = v
		}
		if v > p.Max {
			p.Max = v
		}
	}
	p.IsFree = p.Max == 0
	return p
}

func parseAmount(s string) (float64, bool) {
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Count(s, ".") == 1 && len(s)-strings.Index(s, ".") <= 3:
		// "50.00" keeps its decimal point
	default:
		s = strings.ReplaceAll(s, ".", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func markdownConverter(s string) (string, error) {
	return htmltomarkdown.ConvertString(s)
}

// normalizeDescription renders HTML fragments to markdown text and caps length.
func normalizeDescription(s string, toMarkdown func(string) (string, error)) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if reHTMLTag.MatchString(s) {
		md, err := toMarkdown(s)
		if err != nil {
			return "", err
		}
		s = strings.TrimSpace(md)
	} else {
		s = collapse(s)
	}
	if utf8.RuneCountInString(s) > maxDescriptionLength {
		s = strings.TrimSpace(string([]rune(s)[:maxDescriptionLength]))
	}
	return s, nil
}

func collapse(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
