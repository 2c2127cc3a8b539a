// Package config provides configuration management for the Clever Goals application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CLEVER_GOALS"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for every model,
// rating and staking parameter. A missing file is not an error.
func LoadWithDefaults(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "clever-goals")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite_path", "data/matches.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("redis.key_prefix", "clever-goals")
	v.SetDefault("redis.ttl_minutes", 1440)

	v.SetDefault("model.half_life_days", 180.0)
	v.SetDefault("model.min_matches", 50)
	v.SetDefault("model.max_iterations", 500)
	v.SetDefault("model.tolerance", 1e-8)
	v.SetDefault("model.regularization_weight", 10.0)
	v.SetDefault("model.initial_home_advantage", 1.15)
	v.SetDefault("model.initial_rho", -0.05)
	v.SetDefault("model.concurrency", 4)
	v.SetDefault("model.params_path", "data/dc_params.json")
	v.SetDefault("model.history_lookback_days", 730)

	v.SetDefault("ratings.shrinkage_k", 5.0)
	v.SetDefault("ratings.default_home_advantage", 1.15)
	v.SetDefault("ratings.default_home_goal_ratio", 0.55)
	v.SetDefault("ratings.default_home_conceded_ratio", 0.45)
	v.SetDefault("ratings.cache_ttl_seconds", 3600)

	v.SetDefault("prediction.fallback_rho", -0.05)

	v.SetDefault("strategy.min_expected_value", 0.05)
	v.SetDefault("strategy.min_edge", 0.03)
	v.SetDefault("strategy.kelly_fraction", 0.25)
	v.SetDefault("strategy.max_single_stake_pct", 0.10)
	v.SetDefault("strategy.max_daily_stake_pct", 0.25)
	v.SetDefault("strategy.max_odds", 6.0)
	v.SetDefault("strategy.min_stake", 1.0)

	v.SetDefault("bankroll.amount", 1000.0)
	v.SetDefault("bankroll.currency", "EUR")

	v.SetDefault("calibration.bins", 5)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.refit_cron", "0 6 * * *")
	v.SetDefault("schedule.refit_timeout_minutes", 30)

	v.SetDefault("server.port", 8080)

	v.SetDefault("leagues", []string{"EPL", "La_Liga", "Bundesliga", "Serie_A", "Ligue_1"})
}
