// Package main provides the clever-goals command line: fitting, prediction,
// value-bet planning, calibration and the HTTP API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/clever-goals/internal/config"
	"github.com/yourusername/clever-goals/internal/database"
	"github.com/yourusername/clever-goals/internal/fitter"
	"github.com/yourusername/clever-goals/internal/logger"
	"github.com/yourusername/clever-goals/internal/paramstore"
	"github.com/yourusername/clever-goals/internal/prediction"
	"github.com/yourusername/clever-goals/internal/ratings"
	"github.com/yourusername/clever-goals/internal/repository"
	"github.com/yourusername/clever-goals/internal/service"
	"github.com/yourusername/clever-goals/internal/valuebet"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	statsFile  string
	cfg        *config.Config
	log        *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&statsFile, "stats", "s", "", "Path to a JSON stats feed for empirical ratings")

	rootCmd.AddCommand(importCmd, fitCmd, predictCmd, valueCmd, calibrateCmd, serveCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "clever-goals",
	Short: "Dixon-Coles football predictions and value bets",
	Long: `Fits Dixon-Coles team strengths from match history, predicts scorelines and
market probabilities, selects value bets against bookmaker odds and sizes
stakes with fractional Kelly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return loadConfig(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("clever-goals %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	log.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"db_driver":   cfg.Database.Driver,
		"version":     Version,
	}).Debug("Configuration loaded")
	return nil
}

// app holds the wired dependencies of one command run
type app struct {
	pg       *database.DB
	sqlite   *sql.DB
	repos    *repository.Repositories
	redis    *paramstore.RedisStore
	ratings  *ratings.Store
	analysis *service.AnalysisService
}

// newApp opens the match history, the parameter stores and the rating feed,
// then loads the last fitted parameters. Missing parameters are not an
// error: predictions fall back to empirical ratings.
func newApp(ctx context.Context) (*app, error) {
	a := &app{}

	var err error
	switch cfg.Database.Driver {
	case "postgres":
		a.pg, err = database.NewDB(ctx, cfg.GetDatabaseDSN(), cfg.Database.MaxConnections)
		if err == nil {
			err = a.pg.Migrate(ctx)
		}
		if err == nil {
			a.repos, err = repository.NewPostgresRepositories(a.pg)
		}
	default:
		a.sqlite, err = database.OpenSQLite(ctx, cfg.Database.SQLitePath)
		if err == nil {
			a.repos, err = repository.NewSQLiteRepositories(a.sqlite)
		}
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open match history: %w", err)
	}

	var stores []paramstore.Store
	if cfg.Redis.Addr != "" {
		a.redis, err = paramstore.NewRedisStore(ctx, paramstore.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.RedisTTL(),
		})
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, continuing without parameter cache")
		} else {
			stores = append(stores, a.redis)
		}
	}
	stores = append(stores, paramstore.NewFileStore(cfg.Model.ParamsPath), a.repos.Fits)

	a.ratings = ratings.NewStore(ratings.Config{
		ShrinkageK:               cfg.Ratings.ShrinkageK,
		DefaultHomeAdvantage:     cfg.Ratings.DefaultHomeAdvantage,
		DefaultHomeGoalRatio:     cfg.Ratings.DefaultHomeGoalRatio,
		DefaultHomeConcededRatio: cfg.Ratings.DefaultHomeConcededRatio,
		CacheTTL:                 time.Duration(cfg.Ratings.CacheTTLSeconds) * time.Second,
	}, log)
	if statsFile != "" {
		if err := loadStats(a.ratings, statsFile); err != nil {
			a.Close()
			return nil, err
		}
	}

	f := fitter.NewFitter(a.repos.Matches, fitter.Config{
		HalfLifeDays:         cfg.Model.HalfLifeDays,
		MinMatches:           cfg.Model.MinMatches,
		MaxIterations:        cfg.Model.MaxIterations,
		Tolerance:            cfg.Model.Tolerance,
		RegularizationWeight: cfg.Model.RegularizationWeight,
		InitialHomeAdvantage: cfg.Model.InitialHomeAdvantage,
		InitialRho:           cfg.Model.InitialRho,
		Concurrency:          cfg.Model.Concurrency,
		LookbackDays:         cfg.Model.HistoryLookbackDays,
	}, log)

	a.analysis = service.NewAnalysisService(service.AnalysisDeps{
		Fitter:      f,
		Engine:      prediction.NewEngine(a.ratings, cfg.Prediction.FallbackRho, log),
		Strategy:    strategyFromConfig(),
		Matches:     a.repos.Matches,
		Predictions: a.repos.Predictions,
		Stores:      stores,
	}, cfg.Calibration.Bins, log)

	if _, err := a.analysis.LoadParameters(ctx); err != nil {
		log.WithError(err).Info("No fitted parameters loaded, using empirical ratings only")
	}
	return a, nil
}

func loadStats(store *ratings.Store, path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open stats feed: %w", err)
	}
	defer fh.Close()

	feed, err := ratings.DecodeFeed(fh)
	if err != nil {
		return err
	}
	if err := store.Apply(feed); err != nil {
		log.WithError(err).Warn("Some leagues in the stats feed were not applied")
	}
	return nil
}

func strategyFromConfig() valuebet.Strategy {
	return valuebet.Strategy{
		MinEV:             cfg.Strategy.MinExpectedValue,
		MinEdge:           cfg.Strategy.MinEdge,
		KellyFraction:     cfg.Strategy.KellyFraction,
		MaxSingleStakePct: cfg.Strategy.MaxSingleStakePct,
		MaxDailyStakePct:  cfg.Strategy.MaxDailyStakePct,
		MaxOdds:           cfg.Strategy.MaxOdds,
		MinStake:          cfg.Strategy.MinStake,
	}
}

// Ping reports match-history connectivity to the readiness probe.
func (a *app) Ping(ctx context.Context) error {
	var err error
	if a.pg != nil {
		err = a.pg.HealthCheck(ctx)
	} else {
		err = a.sqlite.PingContext(ctx)
	}
	if err != nil {
		return err
	}
	if a.redis != nil {
		return a.redis.Ping(ctx)
	}
	return nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Warn("Failed to close redis client")
		}
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			log.WithError(err).Warn("Failed to close sqlite database")
		}
	}
}
