package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/caribou-health/ruleflow/internal/types"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults matching DefaultConfig
	v.SetDefault("db_url", "sqlite://ruleflow.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("engine.max_iterations", types.DefaultCascadeIterations)

	// Bind environment variables with RF_ prefix
	v.SetEnvPrefix("RF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DBURL:     v.GetString("db_url"),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		Engine: EngineConfig{
			MaxIterations: v.GetInt("engine.max_iterations"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
