package monitor

// alternativeSelectors lists selectors worth trying when a field stops
// matching. Keys are source name, then field. The "*" source applies to all.
var alternativeSelectors = map[string]map[string][]string{
	"sympla": {
		"container": {"[data-testid='event-card']", "a[href*='/evento/']", ".sympla-card", "article"},
		"title":     {"h3", "[data-testid='event-title']", ".event-name", "[class*='title']"},
		"date":      {"time", "[data-testid='event-date']", ".event-date", "[class*='date']"},
		"location":  {"[data-testid='event-location']", ".event-location", "[class*='location']", "address"},
		"image":     {"img[src]", "picture img", "[style*='background-image']"},
	},
	"eventbrite": {
		"container": {"[data-testid='search-event']", "article.event-card", "li[class*='SearchResults'] article", "div.discover-search-desktop-card"},
		"title":     {"h3", "h2", "[class*='event-card__title']", "a[aria-label]"},
		"date":      {"[class*='event-card__date']", "p:nth-of-type(1)", "time"},
		"location":  {"[class*='event-card__location']", "p:nth-of-type(2)", "[class*='venue']"},
		"image":     {"img.event-card-image", "img[src]", "picture img"},
	},
	"*": {
		"container": {"article", "[class*='event']", "li[class*='card']"},
		"title":     {"h1", "h2", "h3", "[class*='title']"},
		"date":      {"time", "[datetime]", "[class*='date']"},
		"location":  {"address", "[class*='location']", "[class*='venue']"},
		"image":     {"img[src]", "picture img"},
		"price":     {"[class*='price']", "[class*='ticket']"},
	},
}

// SuggestAlternatives returns candidate selectors for field, excluding the
// ones already configured.
func SuggestAlternatives(source, field string, configured []string) []string {
	skip := make(map[string]struct{}, len(configured))
	for _, s := range configured {
		skip[s] = struct{}{}
	}
	var out []string
	for _, key := range []string{source, "*"} {
		for _, s := range alternativeSelectors[key][field] {
			if _, ok := skip[s]; ok {
				continue
			}
			skip[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
