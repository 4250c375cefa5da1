package cmd

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rohmanhakim/event-scraper/internal/config"
	"github.com/rohmanhakim/event-scraper/internal/monitor"
	"github.com/rohmanhakim/event-scraper/internal/scraper"
)

const shutdownTimeout = 10 * time.Second

func newMonitorCmd(root *rootOptions) *cobra.Command {
	var (
		sourceNames []string
		once        bool
	)

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Probe source markup on a timer and serve health endpoints",
		Long: `monitor loads each source's listing page, checks that the container and
field selectors still match, and keeps a health score per source.

It serves GET /health, GET /health/structure and GET /metrics until
interrupted. With --once it runs a single round and prints the report.`,
		Args: cobra.NoArgs,
		PreRun: func(*cobra.Command, []string) {
			// probing does not touch the database
			root.viper.SetDefault(config.KeyDryRun, true)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			srcs, err := resolveSources(sourceNames)
			if err != nil {
				return err
			}
			if once {
				return runMonitorOnce(cmd.Context(), cfg, srcs, cmd.OutOrStdout())
			}
			return runMonitor(cmd.Context(), cfg, srcs)
		},
	}

	flags := monitorCmd.Flags()
	flags.StringSliceVar(&sourceNames, "source", nil, "sources to monitor (default all)")
	flags.BoolVar(&once, "once", false, "run one round of checks, print the report and exit")
	flags.Duration("interval", 0, "time between check rounds")
	flags.String("addr", "", "listen address of the health server")
	bindFlags(root.viper, flags, map[string]string{
		config.KeyMonitorInterval: "interval",
		config.KeyMonitorAddr:     "addr",
	})
	return monitorCmd
}

func newStructureMonitor(ctx context.Context, cfg config.Config, srcs []scraper.Source) (*monitor.Monitor, observability, func() error, error) {
	obs, err := newObservability(cfg, "monitor")
	if err != nil {
		return nil, observability{}, nil, err
	}
	b, err := openBrowser(ctx, cfg)
	if err != nil {
		return nil, observability{}, nil, err
	}
	targets := make([]monitor.Target, 0, len(srcs))
	for _, src := range srcs {
		targets = append(targets, scraper.MonitorTarget(src))
	}
	return monitor.NewMonitor(b, targets, cfg.MonitorParam(), obs.recorder), obs, b.Close, nil
}

func runMonitorOnce(ctx context.Context, cfg config.Config, srcs []scraper.Source, out io.Writer) error {
	m, obs, closeBrowser, err := newStructureMonitor(ctx, cfg, srcs)
	if err != nil {
		return err
	}
	defer func() { _ = obs.logger.Sync() }()
	defer closeBrowser()

	if _, err := m.RunOnce(ctx); err != nil {
		return err
	}
	return writeReport(out, m.GetHealthReport())
}

func runMonitor(ctx context.Context, cfg config.Config, srcs []scraper.Source) error {
	m, obs, closeBrowser, err := newStructureMonitor(ctx, cfg, srcs)
	if err != nil {
		return err
	}
	defer func() { _ = obs.logger.Sync() }()
	defer closeBrowser()

	server := monitor.NewServer(m, obs.metrics.Handler(), obs.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.Run(gctx, cfg.MonitorInterval())
	})
	g.Go(func() error {
		return server.Start(cfg.MonitorAddr())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			obs.logger.Warn("shutdown monitor server", zap.Error(err))
		}
		return nil
	})

	obs.logger.Info("monitor started",
		zap.Int("sources", len(srcs)),
		zap.Duration("interval", cfg.MonitorInterval()),
		zap.String("addr", cfg.MonitorAddr()),
	)
	return g.Wait()
}

func writeReport(w io.Writer, report monitor.HealthReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
