package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/clever-goals/internal/models"
)

// SQLitePredictionRepository implements PredictionRepository for SQLite
type SQLitePredictionRepository struct {
	db *sql.DB
}

// NewSQLitePredictionRepository creates a new prediction repository
func NewSQLitePredictionRepository(db *sql.DB) PredictionRepository {
	return &SQLitePredictionRepository{db: db}
}

// Record stores a prediction snapshot, assigning an ID and timestamp if unset
func (r *SQLitePredictionRepository) Record(ctx context.Context, s *models.PredictionSnapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	var market interface{}
	if s.BetMarket != nil {
		market = string(*s.BetMarket)
	}
	var odds interface{}
	if s.BetOdds != nil {
		odds = *s.BetOdds
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO predictions (id, match_id, home_xg, away_xg, home_win, draw, away_win,
			over25, btts, source, bet_market, bet_odds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID.String(), s.MatchID, s.HomeXG, s.AwayXG, s.HomeWin, s.Draw, s.AwayWin,
		s.Over25, s.BTTS, string(s.Source), market, odds, formatSQLiteTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record prediction: %w", err)
	}
	return nil
}

// WithResults joins predictions to finished matches
func (r *SQLitePredictionRepository) WithResults(ctx context.Context, league string) ([]models.ResolvedPrediction, error) {
	query := `
		SELECT m.id, m.league, m.home_team, m.away_team,
		       p.home_win, p.draw, p.away_win, p.over25, p.btts,
		       m.home_goals, m.away_goals
		FROM predictions p
		JOIN matches m ON p.match_id = m.id
		WHERE m.status = 'finished' AND m.home_goals IS NOT NULL AND m.away_goals IS NOT NULL`
	var args []interface{}
	if league != "" {
		query += ` AND m.league = ?`
		args = append(args, league)
	}
	query += ` ORDER BY m.match_date ASC, p.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.ResolvedPrediction
	for rows.Next() {
		var (
			p            models.ResolvedPrediction
			over25, btts sql.NullFloat64
		)
		err := rows.Scan(&p.MatchID, &p.League, &p.Home, &p.Away,
			&p.HomeWin, &p.Draw, &p.AwayWin, &over25, &btts,
			&p.HomeGoals, &p.AwayGoals)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		p.Over25 = floatPtr(over25)
		p.BTTS = floatPtr(btts)
		out = append(out, p)
	}
	return out, rows.Err()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
