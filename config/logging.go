package config

import (
	"fmt"

	"go.uber.org/zap"
)

// Build constructs a zap logger from the logging section. Console format
// uses the development encoder, json the production one.
func (l LoggingConfig) Build() (*zap.Logger, error) {
	level := l.Level
	if level == "" {
		level = "info"
	}
	atom, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging.level %q: %w", l.Level, err)
	}

	var zc zap.Config
	if l.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = atom

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
