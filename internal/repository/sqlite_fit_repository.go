package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourusername/clever-goals/internal/models"
	"github.com/yourusername/clever-goals/internal/paramstore"
)

// SQLiteFitRepository implements FitRepository for SQLite
type SQLiteFitRepository struct {
	db *sql.DB
}

// NewSQLiteFitRepository creates a new fit repository
func NewSQLiteFitRepository(db *sql.DB) FitRepository {
	return &SQLiteFitRepository{db: db}
}

// Save appends one row per league in a single transaction
func (r *SQLiteFitRepository) Save(ctx context.Context, params map[string]*models.LeagueFitParameters) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, league := range paramstore.Leagues(params) {
		p := params[league]
		if p == nil {
			continue
		}
		payload, err := paramstore.Encode(map[string]*models.LeagueFitParameters{league: p})
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO fit_parameters (run_id, league, fitted_at, converged, n_matches, log_likelihood, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (run_id) DO NOTHING
		`, p.RunID.String(), league, formatSQLiteTime(p.FittedAt), p.Converged, p.NMatches, p.LogLikelihood, string(payload))
		if err != nil {
			return fmt.Errorf("failed to save fit for %s: %w", league, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load returns the latest fit of every league, or models.ErrNotFound
func (r *SQLiteFitRepository) Load(ctx context.Context) (map[string]*models.LeagueFitParameters, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.payload FROM fit_parameters f
		WHERE f.fitted_at = (SELECT MAX(fitted_at) FROM fit_parameters WHERE league = f.league)
		ORDER BY f.league
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fits: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.LeagueFitParameters)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan fit: %w", err)
		}
		decoded, err := paramstore.Decode([]byte(payload))
		if err != nil {
			return nil, err
		}
		for league, p := range decoded {
			out[league] = p
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no stored fits", models.ErrNotFound)
	}
	return out, nil
}

// Latest returns the most recent fit of a league
func (r *SQLiteFitRepository) Latest(ctx context.Context, league string) (*models.LeagueFitParameters, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `
		SELECT payload FROM fit_parameters WHERE league = ? ORDER BY fitted_at DESC LIMIT 1
	`, league).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fit: %w", err)
	}

	decoded, err := paramstore.Decode([]byte(payload))
	if err != nil {
		return nil, err
	}
	p, ok := decoded[league]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}
