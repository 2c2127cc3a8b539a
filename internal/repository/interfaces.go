package repository

import (
	"context"
	"time"

	"github.com/yourusername/clever-goals/internal/models"
)

// MatchRepository defines the interface for match history access
type MatchRepository interface {
	// Upsert inserts a match keyed by (date, league, home, away) and returns
	// its ID. An existing row keeps known scores and never leaves "finished".
	Upsert(ctx context.Context, match *models.MatchRecord) (int64, error)
	UpdateResult(ctx context.Context, id int64, homeGoals, awayGoals int) error
	GetByID(ctx context.Context, id int64) (*models.MatchRecord, error)
	// FinishedMatches returns finished matches with both scores, oldest first.
	// since is inclusive; nil reads everything.
	FinishedMatches(ctx context.Context, league string, since *time.Time) ([]models.MatchRecord, error)
	Leagues(ctx context.Context) ([]string, error)
	TeamsInLeague(ctx context.Context, league string) ([]string, error)
	Summary(ctx context.Context) (*models.HistorySummary, error)
}

// PredictionRepository defines the interface for prediction snapshots
type PredictionRepository interface {
	Record(ctx context.Context, snapshot *models.PredictionSnapshot) error
	// WithResults joins every prediction to its finished match, oldest match
	// first. An empty league reads all leagues.
	WithResults(ctx context.Context, league string) ([]models.ResolvedPrediction, error)
}

// FitRepository keeps every fit run and serves the latest per league
type FitRepository interface {
	Save(ctx context.Context, params map[string]*models.LeagueFitParameters) error
	Load(ctx context.Context) (map[string]*models.LeagueFitParameters, error)
	Latest(ctx context.Context, league string) (*models.LeagueFitParameters, error)
}
