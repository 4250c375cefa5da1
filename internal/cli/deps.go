package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rohmanhakim/event-scraper/internal/browser"
	"github.com/rohmanhakim/event-scraper/internal/config"
	"github.com/rohmanhakim/event-scraper/internal/metadata"
	"github.com/rohmanhakim/event-scraper/internal/scraper"
	"github.com/rohmanhakim/event-scraper/internal/scraper/sources"
	"github.com/rohmanhakim/event-scraper/internal/storage"
)

// observability is the logger, prometheus collectors and the recorder
// feeding both.
type observability struct {
	logger   *zap.Logger
	metrics  *metadata.Metrics
	recorder *metadata.Recorder
}

func newObservability(cfg config.Config, workerID string) (observability, error) {
	logger, err := metadata.NewLogger(cfg.LogLevel(), cfg.DevLogging())
	if err != nil {
		return observability{}, err
	}
	metrics := metadata.NewMetrics()
	return observability{
		logger:   logger,
		metrics:  metrics,
		recorder: metadata.NewRecorder(workerID, logger, metrics),
	}, nil
}

func openBrowser(ctx context.Context, cfg config.Config) (browser.Browser, error) {
	timeout := cfg.Source("").Timeout()
	switch cfg.BrowserMode() {
	case config.BrowserStatic:
		return browser.NewStaticBrowser(browser.StaticOptions{
			UserAgent: cfg.UserAgent(),
			Timeout:   timeout,
		}), nil
	default:
		return browser.NewChromeBrowser(ctx, browser.ChromeOptions{
			Headless:          cfg.Headless(),
			UserAgent:         cfg.UserAgent(),
			ExecPath:          cfg.ChromePath(),
			NavigationTimeout: timeout,
		})
	}
}

// openSink picks the persistence target: the local JSONL file in dry runs,
// otherwise Postgres, fronted by the Redis seen cache when configured.
// The returned cleanup closes everything that was opened.
func openSink(ctx context.Context, cfg config.Config, md metadata.MetadataSink) (storage.Sink, func() error, error) {
	if cfg.DryRun() {
		local, err := storage.NewLocalSink(cfg.OutputDir())
		if err != nil {
			return nil, nil, err
		}
		return local, local.Close, nil
	}

	pg, err := storage.OpenPostgres(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	if cfg.RedisAddr() == "" {
		return pg, pg.Close, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	cached := storage.NewCachedSink(pg, storage.NewRedisSeenCache(client, cfg.RedisTTL()), md)
	cleanup := func() error {
		return errors.Join(cached.Close(), client.Close())
	}
	return cached, cleanup, nil
}

// resolveSources returns the named sources, or all of them when names is empty.
func resolveSources(names []string) ([]scraper.Source, error) {
	if len(names) == 0 {
		return sources.All(), nil
	}
	seen := make(map[string]struct{}, len(names))
	var out []scraper.Source
	for _, name := range names {
		src, err := sources.ByName(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", config.ErrInvalidConfig, err.Error())
		}
		if _, dup := seen[src.Name()]; dup {
			continue
		}
		seen[src.Name()] = struct{}{}
		out = append(out, src)
	}
	return out, nil
}
