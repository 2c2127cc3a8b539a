package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/clever-goals/internal/database"
	"github.com/yourusername/clever-goals/internal/models"
	"github.com/yourusername/clever-goals/internal/paramstore"
)

// PostgresFitRepository implements FitRepository for PostgreSQL
type PostgresFitRepository struct {
	db *database.DB
}

// NewPostgresFitRepository creates a new fit repository
func NewPostgresFitRepository(db *database.DB) FitRepository {
	return &PostgresFitRepository{db: db}
}

// Save appends one row per league in a single transaction
func (r *PostgresFitRepository) Save(ctx context.Context, params map[string]*models.LeagueFitParameters) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, league := range paramstore.Leagues(params) {
			p := params[league]
			if p == nil {
				continue
			}
			payload, err := paramstore.Encode(map[string]*models.LeagueFitParameters{league: p})
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO fit_parameters (run_id, league, fitted_at, converged, n_matches, log_likelihood, payload)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (run_id) DO NOTHING
			`, p.RunID, league, p.FittedAt, p.Converged, p.NMatches, p.LogLikelihood, payload)
			if err != nil {
				return fmt.Errorf("failed to save fit for %s: %w", league, err)
			}
		}
		return nil
	})
}

// Load returns the latest fit of every league, or models.ErrNotFound
func (r *PostgresFitRepository) Load(ctx context.Context) (map[string]*models.LeagueFitParameters, error) {
	rows, err := r.db.GetPool().Query(ctx, `
		SELECT DISTINCT ON (league) payload
		FROM fit_parameters
		ORDER BY league, fitted_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fits: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.LeagueFitParameters)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan fit: %w", err)
		}
		decoded, err := paramstore.Decode(payload)
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
func (r *PostgresFitRepository) Latest(ctx context.Context, league string) (*models.LeagueFitParameters, error) {
	var payload []byte
	err := r.db.GetPool().QueryRow(ctx, `
		SELECT payload FROM fit_parameters WHERE league = $1 ORDER BY fitted_at DESC LIMIT 1
	`, league).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fit: %w", err)
	}

	decoded, err := paramstore.Decode(payload)
	if err != nil {
		return nil, err
	}
	p, ok := decoded[league]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}
