package robots

import "time"

type DecisionReason string

const (
	AllowedByRobots     DecisionReason = "allowed_by_robots"
	DisallowedByRobots  DecisionReason = "disallowed_by_robots"
	UserAgentNotMatched DecisionReason = "user_agent_not_matched"
	EmptyRuleSet        DecisionReason = "empty_rule_set"
	NoMatchingRules     DecisionReason = "no_matching_rules"
	// RobotsUnavailable means robots.txt could not be fetched; the URL is
	// allowed and the failure is recorded.
	RobotsUnavailable DecisionReason = "robots_unavailable"
)

type Decision struct {
	URL     string
	Allowed bool
	Reason  DecisionReason
	// Rule is the pattern that decided, empty when none matched.
	Rule       string
	CrawlDelay time.Duration
}

// Group is one user-agent block of a robots.txt file.
type Group struct {
	UserAgents []string
	Allows     []string
	Disallows  []string
	CrawlDelay time.Duration
}

// File is a parsed robots.txt.
type File struct {
	Groups   []Group
	Sitemaps []string
}

// RuleSet is the group of a File that applies to one user agent.
type RuleSet struct {
	Host         string
	matchedGroup bool
	hasGroups    bool
	allows       []string
	disallows    []string
	crawlDelay   time.Duration
	fetchedAt    time.Time
}

func (r RuleSet) CrawlDelay() time.Duration {
	return r.crawlDelay
}

func (r RuleSet) FetchedAt() time.Time {
	return r.fetchedAt
}
