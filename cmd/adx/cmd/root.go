package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brynbeaudry/loserbot9000-sub002/config"
	"github.com/brynbeaudry/loserbot9000-sub002/journal"
)

var rootCmd = &cobra.Command{
	Use:   "adx",
	Short: "Incremental trend-strength engine and host toolkit",
	Long: `adx computes Wilder-smoothed trend strength over growing bar history,
recomputing only the newly available portion on each tick.

It provides tools for:
  - One-shot computation over CSV history (plain, .xz or .zip)
  - Bar-by-bar replay with a full-vs-incremental determinism check
  - Live streaming from a websocket bar feed
  - Journaling runs and readings to SQLite or CSV
  - Prometheus metrics and a health endpoint`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override logging format (console, json)")
}

// loadConfig resolves the effective configuration: defaults, then the
// config file when given, then ADX_* environment overrides, then flags.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v := os.Getenv("ADX_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("ADX_JOURNAL_DB"); v != "" {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = v
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := cfg.Logging.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}

// openJournal builds the configured journal; a "none" type yields nil.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.RunsFile, cfg.Journal.ReadingsFile)
	default:
		return nil, nil
	}
}
