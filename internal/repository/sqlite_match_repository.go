package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/clever-goals/internal/models"
)

const errScanMatch = "failed to scan match: %w"

const sqliteMatchColumns = `id, match_date, league, home_team, away_team, home_goals, away_goals, status, source`

// SQLiteMatchRepository implements MatchRepository for SQLite
type SQLiteMatchRepository struct {
	db *sql.DB
}

// NewSQLiteMatchRepository creates a new match repository
func NewSQLiteMatchRepository(db *sql.DB) MatchRepository {
	return &SQLiteMatchRepository{db: db}
}

// Upsert inserts or merges a match
func (r *SQLiteMatchRepository) Upsert(ctx context.Context, m *models.MatchRecord) (int64, error) {
	query := `
		INSERT INTO matches (match_date, league, home_team, away_team, home_goals, away_goals, status, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_date, league, home_team, away_team) DO UPDATE SET
			home_goals = COALESCE(excluded.home_goals, matches.home_goals),
			away_goals = COALESCE(excluded.away_goals, matches.away_goals),
			status = CASE WHEN matches.status = 'finished' THEN 'finished' ELSE excluded.status END,
			source = CASE WHEN excluded.source = '' THEN matches.source ELSE excluded.source END,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	status := m.Status
	if status == "" {
		status = models.MatchStatusScheduled
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		formatSQLiteDate(m.Date), m.League, m.Home, m.Away,
		nullableInt(m.HomeGoals), nullableInt(m.AwayGoals), string(status), m.Source,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert match: %w", err)
	}

	m.ID = id
	return id, nil
}

// UpdateResult records the final score and marks the match finished
func (r *SQLiteMatchRepository) UpdateResult(ctx context.Context, id int64, homeGoals, awayGoals int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE matches SET home_goals = ?, away_goals = ?, status = 'finished', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, homeGoals, awayGoals, id)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByID retrieves a match by ID
func (r *SQLiteMatchRepository) GetByID(ctx context.Context, id int64) (*models.MatchRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteMatchColumns+` FROM matches WHERE id = ?`, id)
	m, err := scanSQLiteMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// FinishedMatches retrieves the fitting corpus of a league
func (r *SQLiteMatchRepository) FinishedMatches(ctx context.Context, league string, since *time.Time) ([]models.MatchRecord, error) {
	query := `SELECT ` + sqliteMatchColumns + ` FROM matches
		WHERE status = 'finished' AND home_goals IS NOT NULL AND away_goals IS NOT NULL AND league = ?`
	args := []interface{}{league}
	if since != nil {
		query += ` AND match_date >= ?`
		args = append(args, formatSQLiteDate(*since))
	}
	query += ` ORDER BY match_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query finished matches: %w", err)
	}
	defer rows.Close()

	var matches []models.MatchRecord
	for rows.Next() {
		m, err := scanSQLiteMatch(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanMatch, err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// Leagues lists the leagues in the history
func (r *SQLiteMatchRepository) Leagues(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, r.db, `SELECT DISTINCT league FROM matches ORDER BY league`)
}

// TeamsInLeague lists every team that appears in a league
func (r *SQLiteMatchRepository) TeamsInLeague(ctx context.Context, league string) ([]string, error) {
	return queryStrings(ctx, r.db, `
		SELECT team FROM (
			SELECT home_team AS team FROM matches WHERE league = ?
			UNION
			SELECT away_team AS team FROM matches WHERE league = ?
		) ORDER BY team
	`, league, league)
}

// Summary counts matches and predictions
func (r *SQLiteMatchRepository) Summary(ctx context.Context) (*models.HistorySummary, error) {
	s := &models.HistorySummary{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM matches),
			(SELECT COUNT(*) FROM matches WHERE status = 'finished'),
			(SELECT COUNT(*) FROM predictions)
	`).Scan(&s.TotalMatches, &s.FinishedMatches, &s.Predictions)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise history: %w", err)
	}

	if s.Leagues, err = r.Leagues(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteMatch(row rowScanner) (*models.MatchRecord, error) {
	var (
		m          models.MatchRecord
		date       string
		status     string
		home, away sql.NullInt64
	)
	if err := row.Scan(&m.ID, &date, &m.League, &m.Home, &m.Away, &home, &away, &status, &m.Source); err != nil {
		return nil, err
	}

	d, err := parseSQLiteDate(date)
	if err != nil {
		return nil, err
	}
	m.Date = d
	m.Status = models.MatchStatus(status)
	m.HomeGoals = intPtr(home)
	m.AwayGoals = intPtr(away)
	return &m, nil
}

func queryStrings(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
