package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/clever-goals/internal/database"
	"github.com/yourusername/clever-goals/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Record stores a prediction snapshot, assigning an ID and timestamp if unset
func (r *PostgresPredictionRepository) Record(ctx context.Context, s *models.PredictionSnapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	var market *string
	if s.BetMarket != nil {
		m := string(*s.BetMarket)
		market = &m
	}

	_, err := r.db.GetPool().Exec(ctx, `
		INSERT INTO predictions (id, match_id, home_xg, away_xg, home_win, draw, away_win,
			over25, btts, source, bet_market, bet_odds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		s.ID, s.MatchID, s.HomeXG, s.AwayXG, s.HomeWin, s.Draw, s.AwayWin,
		s.Over25, s.BTTS, string(s.Source), market, s.BetOdds, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record prediction: %w", err)
	}
	return nil
}

// WithResults joins predictions to finished matches
func (r *PostgresPredictionRepository) WithResults(ctx context.Context, league string) ([]models.ResolvedPrediction, error) {
	query := `
		SELECT m.id, m.league, m.home_team, m.away_team,
		       p.home_win, p.draw, p.away_win, p.over25, p.btts,
		       m.home_goals, m.away_goals
		FROM predictions p
		JOIN matches m ON p.match_id = m.id
		WHERE m.status = 'finished' AND m.home_goals IS NOT NULL AND m.away_goals IS NOT NULL
		  AND ($1 = '' OR m.league = $1)
		ORDER BY m.match_date ASC, p.created_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, league)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.ResolvedPrediction
	for rows.Next() {
		var p models.ResolvedPrediction
		err := rows.Scan(&p.MatchID, &p.League, &p.Home, &p.Away,
			&p.HomeWin, &p.Draw, &p.AwayWin, &p.Over25, &p.BTTS,
			&p.HomeGoals, &p.AwayGoals)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
