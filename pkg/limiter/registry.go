package limiter

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry hands out one RateLimiter per domain so scrapers hitting the
// same host share backpressure. The orchestrator owns its lifecycle.
type Registry struct {
	mu       sync.Mutex
	defaults Param
	limiters map[string]*RateLimiter
}

func NewRegistry(defaults Param) *Registry {
	return &Registry{
		defaults: defaults,
		limiters: make(map[string]*RateLimiter),
	}
}

// ForDomain returns the shared limiter for domain, creating it with
// baseDelay on first use. A zero baseDelay falls back to the registry
// defaults. Later calls ignore baseDelay.
func (g *Registry) ForDomain(domain string, baseDelay time.Duration) *RateLimiter {
	key := strings.ToLower(strings.TrimSpace(domain))

	g.mu.Lock()
	defer g.mu.Unlock()

	if rl, ok := g.limiters[key]; ok {
		return rl
	}
	param := g.defaults
	if baseDelay > 0 {
		param = param.WithBaseDelay(baseDelay)
	}
	rl := NewRateLimiter(param)
	g.limiters[key] = rl
	return rl
}

// Register installs a preconfigured limiter for domain, replacing any existing one.
func (g *Registry) Register(domain string, rl *RateLimiter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limiters[strings.ToLower(strings.TrimSpace(domain))] = rl
}

// Cleanup drops every registered limiter.
func (g *Registry) Cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limiters = make(map[string]*RateLimiter)
}

func (g *Registry) Domains() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	domains := make([]string, 0, len(g.limiters))
	for d := range g.limiters {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

func (g *Registry) Stats() map[string]Stats {
	g.mu.Lock()
	snapshot := make(map[string]*RateLimiter, len(g.limiters))
	for d, rl := range g.limiters {
		snapshot[d] = rl
	}
	g.mu.Unlock()

	out := make(map[string]Stats, len(snapshot))
	for d, rl := range snapshot {
		out[d] = rl.Stats()
	}
	return out
}
