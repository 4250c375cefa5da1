package category

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rohmanhakim/event-scraper/pkg/hashutil"
)

const (
	titleWeight       = 3.0
	descriptionWeight = 1.0
	partialFactor     = 0.5
	priorityStep      = 0.05
	// confidenceScale is the score that maps to full confidence: one exact title hit.
	confidenceScale = titleWeight
	// MinConfidence is the floor below which a listing falls back to Other.
	MinConfidence = 0.15

	defaultCacheSize = 1024
)

// Result is the outcome of classifying one listing.
type Result struct {
	Category        string
	Confidence      float64
	MatchedKeywords []string
	Scores          map[string]float64
}

// Stats counts classifications and cache effectiveness.
type Stats struct {
	Classified int
	CacheHits  int
	ByCategory map[string]int
}

// Classifier scores listings against a Table. It is safe for concurrent use.
type Classifier struct {
	table Table
	cache *lru.Cache[string, Result]
	words map[string]*regexp.Regexp

	mu    sync.Mutex
	stats Stats
}

func NewClassifier(table Table) *Classifier {
	cache, _ := lru.New[string, Result](defaultCacheSize)
	c := &Classifier{
		table: table,
		cache: cache,
		words: make(map[string]*regexp.Regexp),
		stats: Stats{ByCategory: make(map[string]int)},
	}
	for _, cat := range table.Categories {
		for _, kw := range cat.Keywords {
			key := fold(kw)
			if _, ok := c.words[key]; !ok {
				c.words[key] = regexp.MustCompile(`(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(key) + `($|[^\p{L}\p{N}])`)
			}
		}
	}
	return c
}

func (c *Classifier) Table() Table {
	return c.table
}

// ClassifyEvent picks the category whose priority-adjusted keyword score is
// highest. Title hits weigh three times description hits, substring-only
// hits count half, and ties go to the higher priority.
func (c *Classifier) ClassifyEvent(title, description string) Result {
	key := hashutil.Fingerprint(title, description)
	if cached, ok := c.cache.Get(key); ok {
		c.mu.Lock()
		c.stats.CacheHits++
		c.stats.Classified++
		c.stats.ByCategory[cached.Category]++
		c.mu.Unlock()
		return cached
	}

	t := fold(title)
	d := fold(description)

	type scored struct {
		cat      Category
		adjusted float64
		raw      float64
		matched  []string
	}
	candidates := make([]scored, 0, len(c.table.Categories))
	scores := make(map[string]float64, len(c.table.Categories))

	for _, cat := range c.table.Categories {
		var raw float64
		var matched []string
		for _, kw := range cat.Keywords {
			k := fold(kw)
			s := c.keywordScore(k, t)*titleWeight + c.keywordScore(k, d)*descriptionWeight
			if s > 0 {
				raw += s
				matched = append(matched, kw)
			}
		}
		adjusted := raw * (1 + float64(cat.Priority)*priorityStep)
		scores[cat.Name] = adjusted
		candidates = append(candidates, scored{cat: cat, adjusted: adjusted, raw: raw, matched: matched})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].adjusted != candidates[j].adjusted {
			return candidates[i].adjusted > candidates[j].adjusted
		}
		if candidates[i].cat.Priority != candidates[j].cat.Priority {
			return candidates[i].cat.Priority > candidates[j].cat.Priority
		}
		return candidates[i].cat.Name < candidates[j].cat.Name
	})

	result := Result{Category: Other, Scores: scores}
	if len(candidates) > 0 {
		best := candidates[0]
		confidence := best.raw / confidenceScale
		if confidence > 1 {
			confidence = 1
		}
		if confidence >= MinConfidence {
			result.Category = best.cat.Name
			result.Confidence = confidence
			result.MatchedKeywords = best.matched
		}
	}

	c.cache.Add(key, result)
	c.mu.Lock()
	c.stats.Classified++
	c.stats.ByCategory[result.Category]++
	c.mu.Unlock()
	return result
}

// keywordScore counts whole-word occurrences at full weight and
// substring-only occurrences at half weight.
func (c *Classifier) keywordScore(keyword, text string) float64 {
	if keyword == "" || text == "" {
		return 0
	}
	total := strings.Count(text, keyword)
	if total == 0 {
		return 0
	}
	re, ok := c.words[keyword]
	exact := 0
	if ok {
		exact = countWholeWord(re, text)
	}
	if exact > total {
		exact = total
	}
	return float64(exact) + float64(total-exact)*partialFactor
}

// ExtractTags returns the sorted set of tags whose vocabulary appears in
// the title or description.
func (c *Classifier) ExtractTags(title, description string) []string {
	text := fold(title + " " + description)
	var tags []string
	for tag, vocab := range c.table.Tags {
		for _, v := range vocab {
			if strings.Contains(text, fold(v)) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

func (c *Classifier) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := Stats{Classified: c.stats.Classified, CacheHits: c.stats.CacheHits, ByCategory: make(map[string]int, len(c.stats.ByCategory))}
	for k, v := range c.stats.ByCategory {
		out.ByCategory[k] = v
	}
	return out
}

// countWholeWord counts non-overlapping whole-word matches. The pattern
// consumes one boundary rune on each side, so adjacent matches that share
// a separator are found by rescanning from the separator.
func countWholeWord(re *regexp.Regexp, text string) int {
	n := 0
	for start := 0; start <= len(text); {
		loc := re.FindStringSubmatchIndex(text[start:])
		if loc == nil {
			break
		}
		n++
		// resume at the trailing boundary so it can lead the next match
		next := start + loc[5]
		if loc[5] > loc[4] {
			next = start + loc[4]
		}
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return n
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
