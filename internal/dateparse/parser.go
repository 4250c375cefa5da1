package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// validWindow bounds how far from now a listing date may lie.
const validWindow = 10

var (
	reNumeric     = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})\b`)
	reNumericYY   = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2})\b`)
	reNumericDM   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})\b`)
	reISO         = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	reLongPT      = regexp.MustCompile(`^(\d{1,2})(?:º|o)?\s+de\s+(\p{L}+)\.?(?:\s+de\s+(\d{4}))?`)
	reDayMonth    = regexp.MustCompile(`^(\d{1,2})\s+(\p{L}+)\.?,?(?:\s+(\d{4}))?`)
	reMonthDay    = regexp.MustCompile(`^(\p{L}+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?(?:\s+(\d{4}))?`)
	reTime        = regexp.MustCompile(`(\d{1,2})(?::(\d{2})(?::(\d{2}))?|h(\d{2})?)`)
	reConnector   = regexp.MustCompile(`\s+(?:às|as|at|a partir das)\s+`)
	reSpaces      = regexp.MustCompile(`\s+`)
	fallbackForms = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		time.RFC1123Z,
		time.RFC1123,
		"Jan 2 2006",
		"2 Jan 2006",
	}
)

// Stats counts parse outcomes since creation or the last Reset.
type Stats struct {
	Successes int
	Failures  int
}

// Parser interprets free-text Portuguese and English listing dates.
// All results are calendar dates at midnight in the parser's location
// unless a time component is parsed.
type Parser struct {
	now func() time.Time
	loc *time.Location

	mu    sync.Mutex
	stats Stats
}

type Option func(*Parser)

func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(p *Parser) { p.loc = loc }
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseDate returns the calendar date in text. ok is false when nothing
// could be read or the date is impossible.
func (p *Parser) ParseDate(text string) (time.Time, bool) {
	t, ok := p.parseDate(text)
	p.count(ok)
	return t, ok
}

// ParseDateTime parses a date and layers an HH:mm, HH:mm:ss, HHh or HHhMM
// time onto it. A missing time leaves the date at midnight.
func (p *Parser) ParseDateTime(text string) (time.Time, bool) {
	date, ok := p.parseDate(text)
	if !ok {
		p.count(false)
		return time.Time{}, false
	}
	if date.Hour() != 0 || date.Minute() != 0 || date.Second() != 0 {
		p.count(true)
		return date, true
	}

	rest := p.clean(text)
	if m := findTime(rest); m != nil {
		date = time.Date(date.Year(), date.Month(), date.Day(), m[0], m[1], m[2], 0, p.loc)
	}
	p.count(true)
	return date, true
}

func (p *Parser) parseDate(text string) (time.Time, bool) {
	s := p.clean(text)
	if s == "" {
		return time.Time{}, false
	}

	now := p.now().In(p.loc)

	for word, offset := range relativeDays {
		if s == word || strings.HasPrefix(s, word+" ") || strings.HasPrefix(s, word+",") {
			d := now.AddDate(0, 0, offset)
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, p.loc), true
		}
	}

	if m := reNumeric.FindStringSubmatch(s); m != nil {
		return p.build(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := reLongPT.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[m[2]]; ok {
			return p.withOptionalYear(atoi(m[1]), month, m[3], now)
		}
	}
	if m := reDayMonth.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[m[2]]; ok {
			return p.withOptionalYear(atoi(m[1]), month, m[3], now)
		}
	}
	if m := reISO.FindStringSubmatch(s); m != nil {
		return p.build(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reNumericYY.FindStringSubmatch(s); m != nil {
		return p.build(2000+atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := reNumericDM.FindStringSubmatch(s); m != nil {
		month := atoi(m[2])
		if month < 1 || month > 12 {
			return time.Time{}, false
		}
		return p.withOptionalYear(atoi(m[1]), time.Month(month), "", now)
	}
	if m := reMonthDay.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[m[1]]; ok {
			return p.withOptionalYear(atoi(m[2]), month, m[3], now)
		}
	}

	raw := strings.TrimSpace(text)
	for _, layout := range fallbackForms {
		if t, err := time.ParseInLocation(layout, raw, p.loc); err == nil {
			return t.In(p.loc), true
		}
	}
	return time.Time{}, false
}

func (p *Parser) withOptionalYear(day int, month time.Month, year string, now time.Time) (time.Time, bool) {
	if year != "" {
		return p.build(atoi(year), int(month), day)
	}
	return p.build(DetermineYear(day, month, now), int(month), day)
}

// build rejects impossible dates such as 31/02 instead of letting time.Date normalize them.
func (p *Parser) build(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// clean folds accents, lowercases, drops weekday tokens and normalizes
// connectors and whitespace.
func (p *Parser) clean(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = reConnector.ReplaceAllString(" "+s+" ", " ")
	s = foldAccents(s)
	s = strings.NewReplacer(",", " , ", "|", " ", "•", " ").Replace(s)
	s = reSpaces.ReplaceAllString(strings.TrimSpace(s), " ")

	for {
		stripped := false
		for _, wd := range weekdayTokens {
			for _, sep := range []string{" , ", " - ", ". ", " "} {
				if strings.HasPrefix(s, wd+sep) {
					s = strings.TrimSpace(strings.TrimPrefix(s, wd+sep))
					stripped = true
				}
			}
		}
		if !stripped {
			break
		}
	}
	s = strings.ReplaceAll(s, " , ", ", ")
	return strings.TrimPrefix(s, ", ")
}

// DetermineYear picks the year for a day/month given without one. Listings
// look forward, so a date already past this year belongs to next year.
func DetermineYear(day int, month time.Month, now time.Time) int {
	year := now.Year()
	if month < now.Month() || (month == now.Month() && day < now.Day()) {
		return year + 1
	}
	return year
}

// IsValidDate reports whether t lies within validWindow years of now.
func (p *Parser) IsValidDate(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	now := p.now()
	return t.After(now.AddDate(-validWindow, 0, 0)) && t.Before(now.AddDate(validWindow, 0, 0))
}

func (p *Parser) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Parser) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = Stats{}
}

func (p *Parser) count(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok {
		p.stats.Successes++
	} else {
		p.stats.Failures++
	}
}

// findTime returns hour, minute, second of the first valid time in s.
func findTime(s string) []int {
	for _, m := range reTime.FindAllStringSubmatch(s, -1) {
		h := atoi(m[1])
		min := atoi(m[2])
		if m[4] != "" {
			min = atoi(m[4])
		}
		sec := atoi(m[3])
		if h > 23 || min > 59 || sec > 59 {
			continue
		}
		return []int{h, min, sec}
	}
	return nil
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
