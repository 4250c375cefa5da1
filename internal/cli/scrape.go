package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rohmanhakim/event-scraper/internal/browser"
	"github.com/rohmanhakim/event-scraper/internal/category"
	"github.com/rohmanhakim/event-scraper/internal/config"
	"github.com/rohmanhakim/event-scraper/internal/dateparse"
	"github.com/rohmanhakim/event-scraper/internal/metadata"
	"github.com/rohmanhakim/event-scraper/internal/processor"
	"github.com/rohmanhakim/event-scraper/internal/robots"
	"github.com/rohmanhakim/event-scraper/internal/scraper"
	"github.com/rohmanhakim/event-scraper/internal/storage"
	"github.com/rohmanhakim/event-scraper/pkg/limiter"
)

func newScrapeCmd(root *rootOptions) *cobra.Command {
	var sourceNames []string

	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every configured source once and store the results",
		Example: `  event-scraper scrape --source sympla --max-events 50
  event-scraper scrape --dry-run --browser static --date-range week`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			// unknown names fail before a browser is started
			srcs, err := resolveSources(sourceNames)
			if err != nil {
				return err
			}
			return runScrape(cmd.Context(), cfg, srcs, cmd.OutOrStdout())
		},
	}

	flags := scrapeCmd.Flags()
	flags.StringSliceVar(&sourceNames, "source", nil, "sources to scrape (default all)")
	flags.Int("max-events", 0, "maximum number of events kept per source")
	flags.StringSlice("category", nil, "only keep these categories")
	flags.String("date-range", "", "any, today, tomorrow, week or month")
	flags.Bool("dry-run", false, "write JSON lines to the output directory instead of the database")
	flags.String("output-dir", "", "output directory for dry runs")
	flags.String("browser", "", "chrome or static")
	bindFlags(root.viper, flags, map[string]string{
		config.KeyMaxEvents:  "max-events",
		config.KeyCategories: "category",
		config.KeyDateRange:  "date-range",
		config.KeyDryRun:     "dry-run",
		config.KeyOutputDir:  "output-dir",
		config.KeyBrowser:    "browser",
	})
	return scrapeCmd
}

func runScrape(ctx context.Context, cfg config.Config, srcs []scraper.Source, out io.Writer) error {
	obs, err := newObservability(cfg, "scrape")
	if err != nil {
		return err
	}
	defer func() { _ = obs.logger.Sync() }()

	b, err := openBrowser(ctx, cfg)
	if err != nil {
		obs.logger.Error("open browser", zap.Error(err))
		return err
	}
	defer b.Close()

	sink, closeSink, err := openSink(ctx, cfg, obs.recorder)
	if err != nil {
		obs.logger.Error("open sink", zap.Error(err))
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			obs.logger.Warn("close sink", zap.Error(err))
		}
	}()

	summaries, runErr := NewScrapeRunner(cfg, b, sink, obs.recorder, obs.recorder).Run(ctx, srcs)
	PrintSummary(out, summaries)
	return runErr
}

// SourceSummary is the outcome of one source's scrape and persist pass.
type SourceSummary struct {
	Source    string
	Stats     scraper.RunStats
	Persisted storage.PersistStats
	Limiter   limiter.Stats
	Err       error
}

// ScrapeRunner fans a scrape out across sources. Sources on the same domain
// share a rate limiter; everything else is per source.
type ScrapeRunner struct {
	cfg          config.Config
	browser      browser.Browser
	sink         storage.Sink
	processor    *processor.Processor
	limiters     *limiter.Registry
	table        category.Table
	robots       *robots.Policy
	metadataSink metadata.MetadataSink
	runFinalizer metadata.RunFinalizer
	now          func() time.Time
}

func NewScrapeRunner(
	cfg config.Config,
	b browser.Browser,
	sink storage.Sink,
	metadataSink metadata.MetadataSink,
	runFinalizer metadata.RunFinalizer,
) *ScrapeRunner {
	r := &ScrapeRunner{
		cfg:          cfg,
		browser:      b,
		sink:         sink,
		limiters:     limiter.NewRegistry(cfg.Source("").LimiterParam()),
		table:        category.DefaultTable(),
		metadataSink: metadataSink,
		runFinalizer: runFinalizer,
		now:          time.Now,
	}
	if cfg.RespectRobots() {
		r.robots = robots.NewPolicy(cfg.UserAgent(), metadataSink,
			robots.WithHTTPClient(&http.Client{Timeout: cfg.Source("").Timeout()}))
	}
	return r
}

// WithRobots replaces the robots.txt policy. Nil turns the checks off.
func (r *ScrapeRunner) WithRobots(p *robots.Policy) *ScrapeRunner {
	r.robots = p
	return r
}

// WithClock pins the clock used for date parsing and validation.
func (r *ScrapeRunner) WithClock(now func() time.Time) *ScrapeRunner {
	r.now = now
	return r
}

// Limiters exposes the per-domain registry so callers can preinstall limiters.
func (r *ScrapeRunner) Limiters() *limiter.Registry {
	return r.limiters
}

// Run scrapes and persists every source concurrently. A source that fails
// with a critical error cancels the others; the returned summaries cover
// every source regardless, in input order.
func (r *ScrapeRunner) Run(ctx context.Context, srcs []scraper.Source) ([]SourceSummary, error) {
	proc := processor.NewProcessor(
		dateparse.NewParser(dateparse.WithClock(r.now)),
		category.NewClassifier(r.table),
		r.metadataSink,
	).WithClock(r.now).WithDefaultRules(r.cfg.Source("").Rules())
	for _, src := range srcs {
		proc.WithRules(src.Name(), r.cfg.Source(src.Name()).Rules())
	}

	// limiters live for one run
	defer r.limiters.Cleanup()

	summaries := make([]SourceSummary, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		summaries[i].Source = src.Name()
		g.Go(func() error {
			err := r.runSource(gctx, src, proc, &summaries[i])
			summaries[i].Err = err
			return err
		})
	}
	err := g.Wait()
	return summaries, err
}

func (r *ScrapeRunner) runSource(ctx context.Context, src scraper.Source, proc *processor.Processor, summary *SourceSummary) error {
	baseDelay := r.cfg.Source(src.Name()).RateLimit()
	if r.robots != nil {
		// a declared Crawl-delay is a floor for the base delay
		if d := r.robots.CrawlDelay(ctx, src.ListingURL()); d > baseDelay {
			baseDelay = d
		}
	}
	rl := r.limiters.ForDomain(src.Domain(), baseDelay)

	o := scraper.NewOrchestrator(
		src, r.browser, rl, proc, r.table,
		r.cfg.ScraperParam(src.Name()),
		r.metadataSink, r.runFinalizer,
	)
	o.SetClock(r.now)
	if r.robots != nil {
		o.SetRobots(r.robots)
	}

	result, err := o.ScrapeEvents(ctx, r.cfg.Filters())
	summary.Stats = result.Stats
	summary.Limiter = rl.Stats()
	if err != nil {
		return fmt.Errorf("scrape %s: %w", src.Name(), err)
	}

	persisted, err := o.Persist(ctx, r.sink, result.Events)
	summary.Persisted = persisted
	if err != nil {
		return fmt.Errorf("persist %s: %w", src.Name(), err)
	}
	return nil
}

// PrintSummary writes one row per source.
func PrintSummary(w io.Writer, summaries []SourceSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tQUERIES\tFOUND\tKEPT\tREJECTED\tDUPLICATES\tINSERTED\tSTORED DUPES\tSKIPPED\tDURATION\tSTATUS")
	for _, s := range summaries {
		status := "ok"
		switch {
		case errors.Is(s.Err, context.Canceled):
			status = "cancelled"
		case s.Err != nil:
			status = "failed: " + s.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			s.Source,
			s.Stats.Queries,
			s.Stats.TotalAttempts,
			s.Stats.Successful,
			s.Stats.Rejected,
			s.Stats.Duplicates,
			s.Persisted.Inserted,
			s.Persisted.Duplicates,
			s.Persisted.Skipped,
			s.Stats.Duration.Round(time.Millisecond),
			status,
		)
	}
	_ = tw.Flush()
}
