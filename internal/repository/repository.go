package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/yourusername/clever-goals/internal/database"
)

// Fixed-width so stored text timestamps order lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteDateLayout = "2006-01-02"

// Repositories holds all repository implementations
type Repositories struct {
	Matches     MatchRepository
	Predictions PredictionRepository
	Fits        FitRepository
}

// NewPostgresRepositories creates the PostgreSQL implementations
func NewPostgresRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Matches:     NewPostgresMatchRepository(db),
		Predictions: NewPostgresPredictionRepository(db),
		Fits:        NewPostgresFitRepository(db),
	}, nil
}

// NewSQLiteRepositories creates the SQLite implementations
func NewSQLiteRepositories(db *sql.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Matches:     NewSQLiteMatchRepository(db),
		Predictions: NewSQLitePredictionRepository(db),
		Fits:        NewSQLiteFitRepository(db),
	}, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatSQLiteDate(t time.Time) string {
	return t.UTC().Format(sqliteDateLayout)
}

func parseSQLiteDate(s string) (time.Time, error) {
	t, err := time.Parse(sqliteDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	return t, nil
}
