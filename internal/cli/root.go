package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rohmanhakim/event-scraper/internal/config"
)

type rootOptions struct {
	configFile string
	viper      *viper.Viper
}

// NewRootCmd builds the command tree. Flags are bound to a fresh viper
// instance so EVENTSCRAPER_* variables fill in whatever is not passed.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{viper: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "event-scraper",
		Short: "Scrapes event listings from Brazilian ticketing sites.",
		Long: `event-scraper collects event listings from ticketing sites, normalizes
them into a single record shape, deduplicates them by content hash and
stores them in Postgres.

A separate monitor command probes each site's markup on a timer and raises
alerts when selectors stop matching.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Bool("dev-log", false, "human readable console logs")
	bindFlags(opts.viper, flags, map[string]string{
		config.KeyLogLevel:   "log-level",
		config.KeyDevLogging: "dev-log",
	})

	rootCmd.AddCommand(
		newScrapeCmd(opts),
		newMonitorCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the CLI until it finishes or the process is interrupted.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file when one is given, otherwise flags and
// environment variables.
func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configFile != "" {
		cfg, err := config.WithConfigFile(o.configFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}
	return config.FromViper(o.viper)
}

// bindFlags maps viper keys to flag names.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}
