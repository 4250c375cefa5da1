package robots_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/event-scraper/internal/robots"
)

const symplaRobots = `# robots for a ticketing site
User-agent: *
Disallow: /checkout/
Disallow: /*?utm_
Allow: /checkout/help
Crawl-delay: 2

User-agent: BadBot
User-agent: WorseBot
Disallow: /

User-agent: event-scraper
Disallow: /pesquisar$
Crawl-delay: 0.5

Sitemap: https://www.sympla.com.br/sitemap.xml
`

func TestParse_Groups(t *testing.T) {
	f := robots.Parse(symplaRobots)

	require.Len(t, f.Groups, 3)
	assert.Equal(t, []string{"*"}, f.Groups[0].UserAgents)
	assert.Equal(t, []string{"/checkout/", "/*?utm_"}, f.Groups[0].Disallows)
	assert.Equal(t, []string{"/checkout/help"}, f.Groups[0].Allows)
	assert.Equal(t, 2*time.Second, f.Groups[0].CrawlDelay)
	assert.Equal(t, []string{"BadBot", "WorseBot"}, f.Groups[1].UserAgents)
	assert.Equal(t, 500*time.Millisecond, f.Groups[2].CrawlDelay)
	assert.Equal(t, []string{"https://www.sympla.com.br/sitemap.xml"}, f.Sitemaps)
}

func TestParse_RulesBeforeUserAgentApplyToAll(t *testing.T) {
	f := robots.Parse("Disallow: /private\nUser-agent: other\nDisallow: /x\n")

	require.Len(t, f.Groups, 2)
	assert.Equal(t, []string{"*"}, f.Groups[0].UserAgents)
	assert.Equal(t, []string{"/private"}, f.Groups[0].Disallows)
}

func TestRuleSet_Decide(t *testing.T) {
	f := robots.Parse(symplaRobots)

	tests := []struct {
		name      string
		userAgent string
		path      string
		allowed   bool
		reason    robots.DecisionReason
		rule      string
	}{
		{"no rule matches", "Mozilla/5.0", "/eventos", true, robots.NoMatchingRules, ""},
		{"prefix disallow", "Mozilla/5.0", "/checkout/cart", false, robots.DisallowedByRobots, "/checkout/"},
		{"longer allow wins", "Mozilla/5.0", "/checkout/help/faq", true, robots.AllowedByRobots, "/checkout/help"},
		{"wildcard", "Mozilla/5.0", "/eventos?utm_source=x", false, robots.DisallowedByRobots, "/*?utm_"},
		{"blocked agent", "badbot/2.1", "/eventos", false, robots.DisallowedByRobots, "/"},
		{"exact product match", "event-scraper/1.0", "/pesquisar", false, robots.DisallowedByRobots, "/pesquisar$"},
		{"end anchor", "event-scraper/1.0", "/pesquisar?s=rock", true, robots.NoMatchingRules, ""},
		{"own group replaces wildcard", "event-scraper/1.0", "/checkout/cart", true, robots.NoMatchingRules, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, reason, rule := f.RulesFor("www.sympla.com.br", tt.userAgent).Decide(tt.path)
			assert.Equal(t, tt.allowed, allowed)
			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

func TestRuleSet_DecideWithoutGroups(t *testing.T) {
	allowed, reason, _ := robots.Parse("").RulesFor("h", "ua").Decide("/anything")
	assert.True(t, allowed)
	assert.Equal(t, robots.EmptyRuleSet, reason)

	allowed, reason, _ = robots.Parse("User-agent: googlebot\nDisallow: /\n").RulesFor("h", "event-scraper").Decide("/")
	assert.True(t, allowed)
	assert.Equal(t, robots.UserAgentNotMatched, reason)
}
