// Package cli consolidates the startup steps shared by cmd/tally and
// cmd/tally-mirror.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"

	"tally/internal/config"
	applog "tally/internal/log"
)

// Bootstrap loads the optional .env file, installs a component-scoped
// default logger, and returns the validated configuration.
func Bootstrap(component string) (*applog.Logger, *config.Config, error) {
	// .env is a local development convenience; absence is not an error
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: component,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return logger, nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return logger, cfg, nil
}
