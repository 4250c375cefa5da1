package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/rohmanhakim/event-scraper/internal/scraper"
)

// EnvPrefix namespaces every environment variable read by FromEnv.
const EnvPrefix = "EVENTSCRAPER"

// Keys understood by FromViper. As environment variables they are upper
// cased and prefixed, e.g. EVENTSCRAPER_DATABASE_URL.
const (
	KeyDatabaseURL        = "database_url"
	KeyRedisAddr          = "redis_addr"
	KeyRedisTTL           = "redis_ttl"
	KeyOutputDir          = "output_dir"
	KeyDryRun             = "dry_run"
	KeyBrowser            = "browser"
	KeyHeadless           = "headless"
	KeyUserAgent          = "user_agent"
	KeyChromePath         = "chrome_path"
	KeyMaxEvents          = "max_events"
	KeyCategories         = "categories"
	KeyDateRange          = "date_range"
	KeyRespectRobots      = "respect_robots"
	KeyMonitorAddr        = "monitor_addr"
	KeyMonitorInterval    = "monitor_interval"
	KeyLogLevel           = "log_level"
	KeyDevLogging         = "dev_logging"
	KeyRateLimit          = "rate_limit"
	KeyMaxDelay           = "max_delay"
	KeyTimeout            = "timeout"
	KeyMaxRetries         = "max_retries"
	KeyRequireImage       = "require_image"
	KeyRequireDescription = "require_description"
	KeyMinTitleLength     = "min_title_length"
)

// NewViper returns a viper instance reading prefixed environment variables
// with the package defaults registered.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	d := WithDefault()
	s := d.defaultSource
	v.SetDefault(KeyRedisTTL, d.redisTTL)
	v.SetDefault(KeyOutputDir, d.outputDir)
	v.SetDefault(KeyDryRun, d.dryRun)
	v.SetDefault(KeyBrowser, string(d.browserMode))
	v.SetDefault(KeyHeadless, d.headless)
	v.SetDefault(KeyUserAgent, d.userAgent)
	v.SetDefault(KeyMaxEvents, d.maxEvents)
	v.SetDefault(KeyDateRange, string(d.dateRange))
	v.SetDefault(KeyRespectRobots, d.respectRobots)
	v.SetDefault(KeyMonitorAddr, d.monitorAddr)
	v.SetDefault(KeyMonitorInterval, d.monitorInterval)
	v.SetDefault(KeyLogLevel, d.logLevel)
	v.SetDefault(KeyRateLimit, s.rateLimit)
	v.SetDefault(KeyMaxDelay, s.maxDelay)
	v.SetDefault(KeyTimeout, s.timeout)
	v.SetDefault(KeyMaxRetries, s.maxRetries)
	v.SetDefault(KeyRequireImage, s.requireImage)
	v.SetDefault(KeyRequireDescription, s.requireDescription)
	v.SetDefault(KeyMinTitleLength, s.minTitleLength)
	return v
}

// FromEnv builds a Config from EVENTSCRAPER_* environment variables.
func FromEnv() (Config, error) {
	return FromViper(NewViper())
}

// FromViper builds a Config from v. Flags bound to v by the CLI take
// precedence over the environment.
func FromViper(v *viper.Viper) (Config, error) {
	source := DefaultSourceConfig().
		WithRateLimit(v.GetDuration(KeyRateLimit)).
		WithMaxDelay(v.GetDuration(KeyMaxDelay)).
		WithTimeout(v.GetDuration(KeyTimeout)).
		WithMaxRetries(v.GetInt(KeyMaxRetries)).
		WithRequireImage(v.GetBool(KeyRequireImage)).
		WithRequireDescription(v.GetBool(KeyRequireDescription)).
		WithMinTitleLength(v.GetInt(KeyMinTitleLength))

	return WithDefault().
		WithDatabaseURL(v.GetString(KeyDatabaseURL)).
		WithRedisAddr(v.GetString(KeyRedisAddr)).
		WithRedisTTL(v.GetDuration(KeyRedisTTL)).
		WithOutputDir(v.GetString(KeyOutputDir)).
		WithDryRun(v.GetBool(KeyDryRun)).
		WithBrowserMode(BrowserMode(strings.ToLower(v.GetString(KeyBrowser)))).
		WithHeadless(v.GetBool(KeyHeadless)).
		WithUserAgent(v.GetString(KeyUserAgent)).
		WithChromePath(v.GetString(KeyChromePath)).
		WithMaxEvents(v.GetInt(KeyMaxEvents)).
		WithCategories(splitList(v.GetStringSlice(KeyCategories))).
		WithDateRange(scraper.DateRange(strings.ToLower(v.GetString(KeyDateRange)))).
		WithRespectRobots(v.GetBool(KeyRespectRobots)).
		WithMonitorAddr(v.GetString(KeyMonitorAddr)).
		WithMonitorInterval(v.GetDuration(KeyMonitorInterval)).
		WithLogLevel(v.GetString(KeyLogLevel)).
		WithDevLogging(v.GetBool(KeyDevLogging)).
		WithDefaultSource(source).
		Build()
}

// splitList accepts both repeated values and a single comma separated one.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
