package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/clever-goals/internal/database"
	"github.com/yourusername/clever-goals/internal/models"
)

const pgMatchColumns = `id, match_date, league, home_team, away_team, home_goals, away_goals, status, source`

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

// Upsert inserts or merges a match
func (r *PostgresMatchRepository) Upsert(ctx context.Context, m *models.MatchRecord) (int64, error) {
	query := `
		INSERT INTO matches (match_date, league, home_team, away_team, home_goals, away_goals, status, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (match_date, league, home_team, away_team) DO UPDATE SET
			home_goals = COALESCE(EXCLUDED.home_goals, matches.home_goals),
			away_goals = COALESCE(EXCLUDED.away_goals, matches.away_goals),
			status = CASE WHEN matches.status = 'finished' THEN 'finished' ELSE EXCLUDED.status END,
			source = CASE WHEN EXCLUDED.source = '' THEN matches.source ELSE EXCLUDED.source END,
			updated_at = NOW()
		RETURNING id
	`

	status := m.Status
	if status == "" {
		status = models.MatchStatusScheduled
	}

	var id int64
	err := r.db.GetPool().QueryRow(ctx, query,
		m.Date.UTC(), m.League, m.Home, m.Away, m.HomeGoals, m.AwayGoals, string(status), m.Source,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert match: %w", err)
	}

	m.ID = id
	return id, nil
}

// UpdateResult records the final score and marks the match finished
func (r *PostgresMatchRepository) UpdateResult(ctx context.Context, id int64, homeGoals, awayGoals int) error {
	tag, err := r.db.GetPool().Exec(ctx, `
		UPDATE matches SET home_goals = $1, away_goals = $2, status = 'finished', updated_at = NOW()
		WHERE id = $3
	`, homeGoals, awayGoals, id)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByID retrieves a match by ID
func (r *PostgresMatchRepository) GetByID(ctx context.Context, id int64) (*models.MatchRecord, error) {
	row := r.db.GetPool().QueryRow(ctx, `SELECT `+pgMatchColumns+` FROM matches WHERE id = $1`, id)
	m, err := scanPostgresMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// FinishedMatches retrieves the fitting corpus of a league
func (r *PostgresMatchRepository) FinishedMatches(ctx context.Context, league string, since *time.Time) ([]models.MatchRecord, error) {
	query := `SELECT ` + pgMatchColumns + ` FROM matches
		WHERE status = 'finished' AND home_goals IS NOT NULL AND away_goals IS NOT NULL AND league = $1`
	args := []interface{}{league}
	if since != nil {
		query += ` AND match_date >= $2`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY match_date ASC, id ASC`

	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query finished matches: %w", err)
	}
	defer rows.Close()

	var matches []models.MatchRecord
	for rows.Next() {
		m, err := scanPostgresMatch(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanMatch, err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// Leagues lists the leagues in the history
func (r *PostgresMatchRepository) Leagues(ctx context.Context) ([]string, error) {
	return r.strings(ctx, `SELECT DISTINCT league FROM matches ORDER BY league`)
}

// TeamsInLeague lists every team that appears in a league
func (r *PostgresMatchRepository) TeamsInLeague(ctx context.Context, league string) ([]string, error) {
	return r.strings(ctx, `
		SELECT home_team AS team FROM matches WHERE league = $1
		UNION
		SELECT away_team AS team FROM matches WHERE league = $1
		ORDER BY team
	`, league)
}

// Summary counts matches and predictions
func (r *PostgresMatchRepository) Summary(ctx context.Context) (*models.HistorySummary, error) {
	s := &models.HistorySummary{}
	err := r.db.GetPool().QueryRow(ctx, `
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

func (r *PostgresMatchRepository) strings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
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

func scanPostgresMatch(row pgx.Row) (*models.MatchRecord, error) {
	var (
		m      models.MatchRecord
		status string
	)
	err := row.Scan(&m.ID, &m.Date, &m.League, &m.Home, &m.Away, &m.HomeGoals, &m.AwayGoals, &status, &m.Source)
	if err != nil {
		return nil, err
	}
	m.Status = models.MatchStatus(status)
	return &m, nil
}
