package robots

import (
	"bufio"
	"strconv"
	"strings"
	"time"
)

// maxFileSize caps how much of a robots.txt body is parsed.
const maxFileSize = 500 * 1024

// Parse reads robots.txt content. Consecutive user-agent lines share the
// rules that follow them. Rules before any user-agent line apply to "*".
// Unknown fields and malformed lines are ignored.
func Parse(content string) File {
	var (
		file    File
		current *Group
		global  Group
	)

	flush := func() {
		if current != nil {
			file.Groups = append(file.Groups, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxFileSize)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx != -1 {
			line = line[:idx]
		}
		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			if current != nil && (len(current.Allows) > 0 || len(current.Disallows) > 0 || current.CrawlDelay > 0) {
				flush()
			}
			if current == nil {
				current = &Group{}
			}
			current.UserAgents = append(current.UserAgents, value)
		case "allow":
			target := &global
			if current != nil {
				target = current
			}
			if value != "" {
				target.Allows = append(target.Allows, value)
			}
		case "disallow":
			target := &global
			if current != nil {
				target = current
			}
			// an empty Disallow allows everything, which is the default
			if value != "" {
				target.Disallows = append(target.Disallows, value)
			}
		case "crawl-delay":
			if current == nil {
				continue
			}
			if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds >= 0 {
				current.CrawlDelay = time.Duration(seconds * float64(time.Second))
			}
		case "sitemap":
			if value != "" {
				file.Sitemaps = append(file.Sitemaps, value)
			}
		}
	}
	flush()

	if len(global.Allows) > 0 || len(global.Disallows) > 0 {
		global.UserAgents = []string{"*"}
		file.Groups = append([]Group{global}, file.Groups...)
	}
	return file
}

// RulesFor selects the group that applies to userAgent: an exact
// (case-insensitive) product match first, then the longest product prefix,
// then "*".
func (f File) RulesFor(host, userAgent string) RuleSet {
	rs := RuleSet{Host: host, hasGroups: len(f.Groups) > 0}

	product := strings.ToLower(userAgent)
	if i := strings.IndexByte(product, '/'); i != -1 {
		product = product[:i]
	}

	var best *Group
	bestLen := -1
	for i := range f.Groups {
		g := &f.Groups[i]
		for _, ua := range g.UserAgents {
			name := strings.ToLower(ua)
			switch {
			case name == product:
				best, bestLen = g, len(name)+1
			case name == "*":
				if bestLen < 0 {
					best, bestLen = g, 0
				}
			case strings.HasPrefix(product, name) && len(name) > bestLen:
				best, bestLen = g, len(name)
			}
		}
	}
	if best == nil {
		return rs
	}
	rs.matchedGroup = true
	rs.allows = best.Allows
	rs.disallows = best.Disallows
	rs.crawlDelay = best.CrawlDelay
	return rs
}

// Decide applies the longest-match rule to path. On equal length Allow
// wins.
func (r RuleSet) Decide(path string) (bool, DecisionReason, string) {
	if !r.hasGroups {
		return true, EmptyRuleSet, ""
	}
	if !r.matchedGroup {
		return true, UserAgentNotMatched, ""
	}
	if path == "" {
		path = "/"
	}

	allowed, rule, best := true, "", -1
	for _, p := range r.disallows {
		if len(p) > best && matchPattern(p, path) {
			allowed, rule, best = false, p, len(p)
		}
	}
	for _, p := range r.allows {
		if len(p) >= best && matchPattern(p, path) {
			allowed, rule, best = true, p, len(p)
		}
	}

	switch {
	case best < 0:
		return true, NoMatchingRules, ""
	case allowed:
		return true, AllowedByRobots, rule
	default:
		return false, DisallowedByRobots, rule
	}
}

// matchPattern matches a path prefix pattern supporting "*" (any run of
// characters) and a trailing "$" (end of path).
func matchPattern(pattern, path string) bool {
	if !strings.HasPrefix(pattern, "/") && !strings.HasPrefix(pattern, "*") {
		pattern = "/" + pattern
	}
	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = strings.TrimSuffix(pattern, "$")
	}

	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(path, parts[0]) {
		return false
	}
	rest := path[len(parts[0]):]
	for i, part := range parts[1:] {
		last := i == len(parts)-2
		if last && anchored {
			return strings.HasSuffix(rest, part)
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	return !anchored || rest == ""
}
