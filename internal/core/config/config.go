// Package config provides configuration management for RuleFlow commands.
package config

import (
	"fmt"

	"github.com/caribou-health/ruleflow/internal/types"
)

// Config holds settings for the RuleFlow CLI and the evaluation engine.
type Config struct {
	// DBURL is the metadata store connection URL
	// (sqlite://path or postgres://...).
	DBURL string

	LogLevel  string
	LogFormat string

	Engine EngineConfig
}

// EngineConfig holds evaluation engine tunables.
type EngineConfig struct {
	// MaxIterations caps the assignment cascade. Exposed as
	// configuration rather than a hidden constant so deployments with
	// deep assignment dependency chains can raise it.
	MaxIterations int
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DBURL:     "sqlite://ruleflow.db",
		LogLevel:  "info",
		LogFormat: "json",
		Engine: EngineConfig{
			MaxIterations: types.DefaultCascadeIterations,
		},
	}
}

// validateConfig checks iteration bounds and log settings.
func validateConfig(cfg *Config) error {
	if cfg.Engine.MaxIterations < 1 || cfg.Engine.MaxIterations > types.MaxCascadeIterations {
		return fmt.Errorf("%w: engine.max_iterations must be between 1 and %d, got %d",
			types.ErrBadIterationCap, types.MaxCascadeIterations, cfg.Engine.MaxIterations)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", cfg.LogFormat)
	}
	if cfg.DBURL == "" {
		return fmt.Errorf("db_url must not be empty")
	}
	return nil
}
