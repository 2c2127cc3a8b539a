// Package config provides configuration management for the Clever Goals application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Model       ModelConfig       `mapstructure:"model" validate:"required"`
	Ratings     RatingsConfig     `mapstructure:"ratings" validate:"required"`
	Prediction  PredictionConfig  `mapstructure:"prediction" validate:"required"`
	Strategy    StrategyConfig    `mapstructure:"strategy" validate:"required"`
	Bankroll    BankrollConfig    `mapstructure:"bankroll" validate:"required"`
	Calibration CalibrationConfig `mapstructure:"calibration" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Server      ServerConfig      `mapstructure:"server"`
	Leagues     []string          `mapstructure:"leagues" validate:"required,min=1,dive,required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents match-history storage configuration.
// Driver "sqlite" uses SQLitePath; "postgres" uses the connection fields.
type DatabaseConfig struct {
	Driver         string `mapstructure:"driver" validate:"required,dbdriver"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// RedisConfig configures the fitted-parameter cache. Empty Addr disables it.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	TTLMinutes int    `mapstructure:"ttl_minutes" validate:"gte=0"`
}

// ModelConfig holds the Dixon-Coles fitting parameters
type ModelConfig struct {
	HalfLifeDays         float64 `mapstructure:"half_life_days" validate:"required,gt=0"`
	MinMatches           int     `mapstructure:"min_matches" validate:"required,gt=0"`
	MaxIterations        int     `mapstructure:"max_iterations" validate:"required,gt=0"`
	Tolerance            float64 `mapstructure:"tolerance" validate:"required,gt=0"`
	RegularizationWeight float64 `mapstructure:"regularization_weight" validate:"gte=0"`
	InitialHomeAdvantage float64 `mapstructure:"initial_home_advantage" validate:"required,gt=0"`
	InitialRho           float64 `mapstructure:"initial_rho" validate:"gte=-0.5,lte=0.5"`
	Concurrency          int     `mapstructure:"concurrency" validate:"required,gt=0"`
	ParamsPath           string  `mapstructure:"params_path" validate:"required"`
	HistoryLookbackDays  int     `mapstructure:"history_lookback_days" validate:"gte=0"`
}

// RatingsConfig holds empirical rating parameters
type RatingsConfig struct {
	ShrinkageK               float64 `mapstructure:"shrinkage_k" validate:"gte=0"`
	DefaultHomeAdvantage     float64 `mapstructure:"default_home_advantage" validate:"required,gt=0"`
	DefaultHomeGoalRatio     float64 `mapstructure:"default_home_goal_ratio" validate:"required,gt=0,lt=1"`
	DefaultHomeConcededRatio float64 `mapstructure:"default_home_conceded_ratio" validate:"required,gt=0,lt=1"`
	CacheTTLSeconds          int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// PredictionConfig holds prediction engine parameters
type PredictionConfig struct {
	FallbackRho float64 `mapstructure:"fallback_rho" validate:"gte=-0.5,lte=0.5"`
}

// StrategyConfig represents value-bet selection and staking thresholds
type StrategyConfig struct {
	MinExpectedValue  float64 `mapstructure:"min_expected_value" validate:"gte=0"`
	MinEdge           float64 `mapstructure:"min_edge" validate:"gte=0"`
	KellyFraction     float64 `mapstructure:"kelly_fraction" validate:"required,gt=0,lte=1"`
	MaxSingleStakePct float64 `mapstructure:"max_single_stake_pct" validate:"required,gt=0,lte=1"`
	MaxDailyStakePct  float64 `mapstructure:"max_daily_stake_pct" validate:"required,gt=0,lte=1"`
	MaxOdds           float64 `mapstructure:"max_odds" validate:"required,gt=1"`
	MinStake          float64 `mapstructure:"min_stake" validate:"gte=0"`
}

// BankrollConfig represents the staking bankroll
type BankrollConfig struct {
	Amount   float64 `mapstructure:"amount" validate:"required,gt=0"`
	Currency string  `mapstructure:"currency" validate:"required,len=3"`
}

// CalibrationConfig represents calibration report settings
type CalibrationConfig struct {
	Bins int `mapstructure:"bins" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ScheduleConfig configures periodic refits for the serve command
type ScheduleConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	RefitCron        string `mapstructure:"refit_cron"`
	RefitTimeoutMins int    `mapstructure:"refit_timeout_minutes" validate:"gte=0"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RedisTTL returns the fitted-parameter cache TTL.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLMinutes) * time.Minute
}

// RefitTimeout returns the per-run timeout for scheduled refits.
func (c *Config) RefitTimeout() time.Duration {
	if c.Schedule.RefitTimeoutMins <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Schedule.RefitTimeoutMins) * time.Minute
}
