package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/event-scraper/internal/monitor"
	"github.com/rohmanhakim/event-scraper/internal/scraper"
	"github.com/rohmanhakim/event-scraper/pkg/retry"
)

type BrowserMode string

const (
	// BrowserChrome renders pages in headless Chrome.
	BrowserChrome BrowserMode = "chrome"
	// BrowserStatic fetches plain HTML without running scripts.
	BrowserStatic BrowserMode = "static"
)

type Config struct {
	//===============
	// Persistence
	//===============
	// Postgres connection string. Required unless dryRun.
	databaseURL string
	// Redis address for the cross-run seen cache. Empty disables the cache.
	redisAddr string
	// How long a content hash stays in the seen cache
	redisTTL time.Duration
	// Directory of the local JSONL sink used in dry runs
	outputDir string
	// Whether to skip the database and write to outputDir instead
	dryRun bool

	//===============
	// Browser
	//===============
	browserMode BrowserMode
	headless    bool
	userAgent   string
	// Path to the Chrome binary. Empty lets chromedp discover it.
	chromePath string

	//===============
	// Scrape run
	//===============
	maxEvents       int
	categories      []string
	dateRange       scraper.DateRange
	includeRegional bool
	includeNational bool
	// Maximum time to wait for the results container
	waitTimeout time.Duration
	// Scroll passes to trigger lazy loading
	scrollTimes int
	scrollDelay time.Duration
	// Consecutive failed queries that open a source's circuit breaker
	breakerThreshold int
	breakerReset     time.Duration
	// Controls the random number generator of retry jitter
	randomSeed int64
	// Skip search URLs disallowed by the site's robots.txt
	respectRobots bool

	//===============
	// Monitor
	//===============
	monitorAddr     string
	monitorInterval time.Duration

	//===============
	// Logging
	//===============
	logLevel   string
	devLogging bool

	//===============
	// Sources
	//===============
	// Applies to every source without an entry in sources
	defaultSource SourceConfig
	sources       map[string]SourceConfig
}

type configDTO struct {
	DatabaseURL      string                     `json:"databaseUrl,omitempty"`
	RedisAddr        string                     `json:"redisAddr,omitempty"`
	RedisTTL         time.Duration              `json:"redisTtl,omitempty"`
	OutputDir        string                     `json:"outputDir,omitempty"`
	DryRun           bool                       `json:"dryRun,omitempty"`
	Browser          BrowserMode                `json:"browser,omitempty"`
	Headless         *bool                      `json:"headless,omitempty"`
	UserAgent        string                     `json:"userAgent,omitempty"`
	ChromePath       string                     `json:"chromePath,omitempty"`
	MaxEvents        int                        `json:"maxEvents,omitempty"`
	Categories       []string                   `json:"categories,omitempty"`
	DateRange        scraper.DateRange          `json:"dateRange,omitempty"`
	IncludeRegional  *bool                      `json:"includeRegional,omitempty"`
	IncludeNational  *bool                      `json:"includeNational,omitempty"`
	WaitTimeout      time.Duration              `json:"waitTimeout,omitempty"`
	ScrollTimes      *int                       `json:"scrollTimes,omitempty"`
	ScrollDelay      time.Duration              `json:"scrollDelay,omitempty"`
	BreakerThreshold int                        `json:"breakerThreshold,omitempty"`
	BreakerReset     time.Duration              `json:"breakerReset,omitempty"`
	RandomSeed       int64                      `json:"randomSeed,omitempty"`
	RespectRobots    *bool                      `json:"respectRobots,omitempty"`
	MonitorAddr      string                     `json:"monitorAddr,omitempty"`
	MonitorInterval  time.Duration              `json:"monitorInterval,omitempty"`
	LogLevel         string                     `json:"logLevel,omitempty"`
	DevLogging       bool                       `json:"devLogging,omitempty"`
	DefaultSource    sourceConfigDTO            `json:"defaultSource,omitempty"`
	Sources          map[string]sourceConfigDTO `json:"sources,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := WithDefault()

	// Only override if a non-zero value is provided
	if dto.DatabaseURL != "" {
		cfg.databaseURL = dto.DatabaseURL
	}
	if dto.RedisAddr != "" {
		cfg.redisAddr = dto.RedisAddr
	}
	if dto.RedisTTL != 0 {
		cfg.redisTTL = dto.RedisTTL
	}
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	cfg.dryRun = dto.DryRun

	if dto.Browser != "" {
		cfg.browserMode = dto.Browser
	}
	if dto.Headless != nil {
		cfg.headless = *dto.Headless
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.ChromePath != "" {
		cfg.chromePath = dto.ChromePath
	}

	if dto.MaxEvents != 0 {
		cfg.maxEvents = dto.MaxEvents
	}
	cfg.categories = dto.Categories
	if dto.DateRange != "" {
		cfg.dateRange = dto.DateRange
	}
	if dto.IncludeRegional != nil {
		cfg.includeRegional = *dto.IncludeRegional
	}
	if dto.IncludeNational != nil {
		cfg.includeNational = *dto.IncludeNational
	}
	if dto.WaitTimeout != 0 {
		cfg.waitTimeout = dto.WaitTimeout
	}
	// zero scroll passes is valid
	if dto.ScrollTimes != nil {
		cfg.scrollTimes = *dto.ScrollTimes
	}
	if dto.ScrollDelay != 0 {
		cfg.scrollDelay = dto.ScrollDelay
	}
	if dto.BreakerThreshold != 0 {
		cfg.breakerThreshold = dto.BreakerThreshold
	}
	if dto.BreakerReset != 0 {
		cfg.breakerReset = dto.BreakerReset
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.RespectRobots != nil {
		cfg.respectRobots = *dto.RespectRobots
	}

	if dto.MonitorAddr != "" {
		cfg.monitorAddr = dto.MonitorAddr
	}
	if dto.MonitorInterval != 0 {
		cfg.monitorInterval = dto.MonitorInterval
	}
	if dto.LogLevel != "" {
		cfg.logLevel = dto.LogLevel
	}
	cfg.devLogging = dto.DevLogging

	cfg.defaultSource = cfg.defaultSource.apply(dto.DefaultSource)
	for name, s := range dto.Sources {
		cfg.sources[strings.ToLower(name)] = cfg.defaultSource.apply(s)
	}

	return cfg.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with default values for all fields.
// The database URL has no default; Build rejects it unless dry run is set.
func WithDefault() *Config {
	defaultConfig := Config{
		redisTTL:         7 * 24 * time.Hour,
		outputDir:        "output",
		browserMode:      BrowserChrome,
		headless:         true,
		userAgent:        "event-scraper/1.0",
		maxEvents:        100,
		dateRange:        scraper.DateRangeAny,
		includeRegional:  true,
		includeNational:  true,
		waitTimeout:      10 * time.Second,
		scrollTimes:      3,
		scrollDelay:      time.Second,
		breakerThreshold: 5,
		breakerReset:     time.Minute,
		randomSeed:       time.Now().UnixNano(),
		respectRobots:    true,
		monitorAddr:      ":8080",
		monitorInterval:  30 * time.Minute,
		logLevel:         "info",
		defaultSource:    DefaultSourceConfig(),
		sources:          map[string]SourceConfig{},
	}
	return &defaultConfig
}

func (c *Config) WithDatabaseURL(dsn string) *Config {
	c.databaseURL = dsn
	return c
}

func (c *Config) WithRedisAddr(addr string) *Config {
	c.redisAddr = addr
	return c
}

func (c *Config) WithRedisTTL(ttl time.Duration) *Config {
	c.redisTTL = ttl
	return c
}

func (c *Config) WithOutputDir(dir string) *Config {
	c.outputDir = dir
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

func (c *Config) WithBrowserMode(mode BrowserMode) *Config {
	c.browserMode = mode
	return c
}

func (c *Config) WithHeadless(headless bool) *Config {
	c.headless = headless
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithChromePath(path string) *Config {
	c.chromePath = path
	return c
}

func (c *Config) WithMaxEvents(n int) *Config {
	c.maxEvents = n
	return c
}

func (c *Config) WithCategories(categories []string) *Config {
	c.categories = categories
	return c
}

func (c *Config) WithDateRange(r scraper.DateRange) *Config {
	c.dateRange = r
	return c
}

func (c *Config) WithIncludeRegional(v bool) *Config {
	c.includeRegional = v
	return c
}

func (c *Config) WithIncludeNational(v bool) *Config {
	c.includeNational = v
	return c
}

func (c *Config) WithWaitTimeout(d time.Duration) *Config {
	c.waitTimeout = d
	return c
}

func (c *Config) WithScroll(times int, delay time.Duration) *Config {
	c.scrollTimes = times
	c.scrollDelay = delay
	return c
}

func (c *Config) WithBreaker(threshold int, reset time.Duration) *Config {
	c.breakerThreshold = threshold
	c.breakerReset = reset
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithRespectRobots(v bool) *Config {
	c.respectRobots = v
	return c
}

func (c *Config) WithMonitorAddr(addr string) *Config {
	c.monitorAddr = addr
	return c
}

func (c *Config) WithMonitorInterval(d time.Duration) *Config {
	c.monitorInterval = d
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithDevLogging(dev bool) *Config {
	c.devLogging = dev
	return c
}

func (c *Config) WithDefaultSource(s SourceConfig) *Config {
	c.defaultSource = s
	return c
}

func (c *Config) WithSource(name string, s SourceConfig) *Config {
	if c.sources == nil {
		c.sources = map[string]SourceConfig{}
	}
	c.sources[strings.ToLower(name)] = s
	return c
}

func (c *Config) Build() (Config, error) {
	if !c.dryRun {
		if err := validateDatabaseURL(c.databaseURL); err != nil {
			return Config{}, err
		}
	}

	switch c.browserMode {
	case BrowserChrome, BrowserStatic:
	default:
		return Config{}, fmt.Errorf("%w: unknown browser mode %q", ErrInvalidConfig, c.browserMode)
	}

	switch c.dateRange {
	case scraper.DateRangeAny, scraper.DateRangeToday, scraper.DateRangeTomorrow, scraper.DateRangeWeek, scraper.DateRangeMonth:
	default:
		return Config{}, fmt.Errorf("%w: unknown date range %q", ErrInvalidConfig, c.dateRange)
	}

	if c.maxEvents <= 0 {
		return Config{}, fmt.Errorf("%w: maxEvents must be positive", ErrInvalidConfig)
	}
	if c.redisAddr != "" && c.redisTTL <= 0 {
		return Config{}, fmt.Errorf("%w: redisTtl must be positive when redisAddr is set", ErrInvalidConfig)
	}
	if c.breakerThreshold <= 0 {
		return Config{}, fmt.Errorf("%w: breakerThreshold must be positive", ErrInvalidConfig)
	}
	if c.monitorInterval <= 0 {
		return Config{}, fmt.Errorf("%w: monitorInterval must be positive", ErrInvalidConfig)
	}

	if err := c.defaultSource.validate("default"); err != nil {
		return Config{}, err
	}
	for name, s := range c.sources {
		if err := s.validate(name); err != nil {
			return Config{}, err
		}
	}

	cfg := *c
	cfg.sources = make(map[string]SourceConfig, len(c.sources))
	for k, v := range c.sources {
		cfg.sources[k] = v
	}
	return cfg, nil
}

// validateDatabaseURL accepts postgres URLs with a host.
func validateDatabaseURL(dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		return fmt.Errorf("%w: databaseUrl is required unless dry run is set", ErrInvalidConfig)
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("%w: databaseUrl: %s", ErrInvalidConfig, err.Error())
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("%w: databaseUrl scheme must be postgres, got %q", ErrInvalidConfig, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: databaseUrl has no host", ErrInvalidConfig)
	}
	return nil
}

func (c Config) DatabaseURL() string {
	return c.databaseURL
}

func (c Config) RedisAddr() string {
	return c.redisAddr
}

func (c Config) RedisTTL() time.Duration {
	return c.redisTTL
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) DryRun() bool {
	return c.dryRun
}

func (c Config) BrowserMode() BrowserMode {
	return c.browserMode
}

func (c Config) Headless() bool {
	return c.headless
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) ChromePath() string {
	return c.chromePath
}

func (c Config) MaxEvents() int {
	return c.maxEvents
}

func (c Config) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c Config) DateRange() scraper.DateRange {
	return c.dateRange
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) RespectRobots() bool {
	return c.respectRobots
}

func (c Config) MonitorAddr() string {
	return c.monitorAddr
}

func (c Config) MonitorInterval() time.Duration {
	return c.monitorInterval
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) DevLogging() bool {
	return c.devLogging
}

// Source returns the settings of the named source, falling back to the
// default source settings.
func (c Config) Source(name string) SourceConfig {
	if s, ok := c.sources[strings.ToLower(name)]; ok {
		return s
	}
	return c.defaultSource
}

func (c Config) Filters() scraper.Filters {
	return scraper.Filters{
		MaxEvents:       c.maxEvents,
		Categories:      c.Categories(),
		DateRange:       c.dateRange,
		IncludeRegional: c.includeRegional,
		IncludeNational: c.includeNational,
	}
}

// ScraperParam builds the orchestrator tunables for the named source.
func (c Config) ScraperParam(source string) scraper.Param {
	return scraper.Param{
		WaitTimeout: c.waitTimeout,
		ScrollTimes: c.scrollTimes,
		ScrollDelay: c.scrollDelay,
		Retry:       c.Source(source).RetryParam(c.randomSeed),
		Breaker:     retry.NewBreakerParam(c.breakerThreshold, c.breakerReset),
	}
}

func (c Config) MonitorParam() monitor.Param {
	p := monitor.DefaultParam()
	p.WaitTimeout = c.waitTimeout
	return p
}
