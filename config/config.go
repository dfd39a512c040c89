package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brynbeaudry/loserbot9000-sub002/indicators"
)

// Config represents the complete runner configuration
type Config struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Feed    FeedConfig    `json:"feed" yaml:"feed"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Display DisplayConfig `json:"display" yaml:"display"`
}

// EngineConfig contains the calculation parameters
type EngineConfig struct {
	Period         int     `json:"period" yaml:"period"`
	SmoothPeriod   int     `json:"smooth_period" yaml:"smooth_period"`
	ThresholdLevel float64 `json:"threshold_level" yaml:"threshold_level"`
	// MaxBars caps the in-memory history; zero means unbounded. When the
	// cap is hit the oldest bars are dropped and the series rebuilt.
	MaxBars int `json:"max_bars,omitempty" yaml:"max_bars,omitempty"`
}

// ADXConfig converts the section into engine parameters.
func (e EngineConfig) ADXConfig() indicators.ADXConfig {
	return indicators.ADXConfig{
		Period:         e.Period,
		SmoothPeriod:   e.SmoothPeriod,
		ThresholdLevel: e.ThresholdLevel,
	}
}

// FeedConfig selects and parameterizes the bar source
type FeedConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "websocket" or "synthetic"
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Instrument string `json:"instrument" yaml:"instrument"`
	Timeframe  string `json:"timeframe,omitempty" yaml:"timeframe,omitempty"` // e.g., "1m", "1h"
	Seed       int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	Bars       int    `json:"bars,omitempty" yaml:"bars,omitempty"`
}

// ParseTimeframe converts the timeframe string to time.Duration
func (f FeedConfig) ParseTimeframe() (time.Duration, error) {
	if f.Timeframe == "" {
		return 0, nil
	}
	return time.ParseDuration(f.Timeframe)
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type         string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	DBPath       string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	RunsFile     string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	ReadingsFile string `json:"readings_file,omitempty" yaml:"readings_file,omitempty"`
}

// MetricsConfig controls the observability endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // console or json
}

// DisplayConfig carries presentation-only flags. The engine never reads
// them; they ride along for hosts that render the series.
type DisplayConfig struct {
	ShowThreshold bool `json:"show_threshold" yaml:"show_threshold"`
	FillTrend     bool `json:"fill_trend" yaml:"fill_trend"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Engine.Period < 1 {
		return fmt.Errorf("engine.period must be >= 1")
	}
	if c.Engine.SmoothPeriod < 1 {
		return fmt.Errorf("engine.smooth_period must be >= 1")
	}
	if c.Engine.ThresholdLevel < 0 || c.Engine.ThresholdLevel > 100 {
		return fmt.Errorf("engine.threshold_level must be between 0 and 100")
	}
	if c.Engine.MaxBars < 0 {
		return fmt.Errorf("engine.max_bars must not be negative")
	}
	if c.Engine.MaxBars > 0 && c.Engine.MaxBars < c.Engine.Period+c.Engine.SmoothPeriod {
		return fmt.Errorf("engine.max_bars must be at least period+smooth_period (%d)",
			c.Engine.Period+c.Engine.SmoothPeriod)
	}

	switch c.Feed.Type {
	case "csv":
		if c.Feed.Path == "" {
			return fmt.Errorf("feed.path required for CSV type")
		}
	case "websocket":
		if c.Feed.URL == "" {
			return fmt.Errorf("feed.url required for websocket type")
		}
		if c.Feed.Instrument == "" {
			return fmt.Errorf("feed.instrument required for websocket type")
		}
	case "synthetic":
		if c.Feed.Bars < 1 {
			return fmt.Errorf("feed.bars must be positive for synthetic type")
		}
	default:
		return fmt.Errorf("feed.type must be 'csv', 'websocket' or 'synthetic'")
	}
	if _, err := c.Feed.ParseTimeframe(); err != nil {
		return fmt.Errorf("feed.timeframe: %w", err)
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for SQLite type")
		}
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.ReadingsFile == "" {
			return fmt.Errorf("journal runs_file and readings_file required for CSV type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr required when metrics are enabled")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn' or 'error'")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be 'console' or 'json'")
	}

	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Period:         14,
			SmoothPeriod:   14,
			ThresholdLevel: 20,
		},
		Feed: FeedConfig{
			Type:       "csv",
			Path:       "./bars.csv",
			Instrument: "EUR_USD",
			Timeframe:  "1m",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./readings.db",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9273",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Display: DisplayConfig{
			ShowThreshold: true,
		},
	}
}
