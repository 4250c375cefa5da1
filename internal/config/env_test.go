package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/event-scraper/internal/config"
	"github.com/rohmanhakim/event-scraper/internal/scraper"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("EVENTSCRAPER_DATABASE_URL", testDSN)
	t.Setenv("EVENTSCRAPER_REDIS_ADDR", "localhost:6379")
	t.Setenv("EVENTSCRAPER_REDIS_TTL", "12h")
	t.Setenv("EVENTSCRAPER_BROWSER", "STATIC")
	t.Setenv("EVENTSCRAPER_MAX_EVENTS", "40")
	t.Setenv("EVENTSCRAPER_CATEGORIES", "shows, teatro")
	t.Setenv("EVENTSCRAPER_DATE_RANGE", "week")
	t.Setenv("EVENTSCRAPER_RATE_LIMIT", "4s")
	t.Setenv("EVENTSCRAPER_MAX_RETRIES", "5")
	t.Setenv("EVENTSCRAPER_REQUIRE_DESCRIPTION", "true")
	t.Setenv("EVENTSCRAPER_RESPECT_ROBOTS", "false")

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseURL() != testDSN {
		t.Errorf("unexpected DatabaseURL %q", cfg.DatabaseURL())
	}
	if cfg.RedisAddr() != "localhost:6379" || cfg.RedisTTL() != 12*time.Hour {
		t.Errorf("unexpected redis settings %q %v", cfg.RedisAddr(), cfg.RedisTTL())
	}
	if cfg.RespectRobots() {
		t.Error("expected robots.txt checks to be disabled")
	}
	if cfg.BrowserMode() != config.BrowserStatic {
		t.Errorf("expected static browser, got %q", cfg.BrowserMode())
	}
	if cfg.MaxEvents() != 40 || cfg.DateRange() != scraper.DateRangeWeek {
		t.Errorf("unexpected run settings %d %q", cfg.MaxEvents(), cfg.DateRange())
	}
	if got := cfg.Categories(); len(got) != 2 || got[0] != "shows" || got[1] != "teatro" {
		t.Errorf("unexpected categories %v", got)
	}

	s := cfg.Source("sympla")
	if s.RateLimit() != 4*time.Second || s.MaxRetries() != 5 || !s.RequireDescription() {
		t.Errorf("unexpected source settings %v %d %v", s.RateLimit(), s.MaxRetries(), s.RequireDescription())
	}
	if s.MaxDelay() != 30*time.Second || s.MinTitleLength() != 5 {
		t.Errorf("expected defaults for unset keys, got %v %d", s.MaxDelay(), s.MinTitleLength())
	}
}

func TestFromEnv_MissingDatabaseURL(t *testing.T) {
	t.Setenv("EVENTSCRAPER_DATABASE_URL", "")

	_, err := config.FromEnv()
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFromViper_OverridesEnv(t *testing.T) {
	t.Setenv("EVENTSCRAPER_DATABASE_URL", "")
	t.Setenv("EVENTSCRAPER_MAX_EVENTS", "40")

	v := config.NewViper()
	v.Set(config.KeyDryRun, true)
	v.Set(config.KeyMaxEvents, 7)

	cfg, err := config.FromViper(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.DryRun() || cfg.MaxEvents() != 7 {
		t.Errorf("expected explicit values to win, got dryRun=%v maxEvents=%d", cfg.DryRun(), cfg.MaxEvents())
	}
}
