package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus represents the lifecycle state of a fixture
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusFinished  MatchStatus = "finished"
)

// MatchRecord is one fixture or result in the match history
type MatchRecord struct {
	ID        int64       `db:"id" json:"id"`
	Date      time.Time   `db:"date" json:"date" validate:"required"`
	League    string      `db:"league" json:"league" validate:"required"`
	Home      string      `db:"home_team" json:"home_team" validate:"required"`
	Away      string      `db:"away_team" json:"away_team" validate:"required,nefield=Home"`
	HomeGoals *int        `db:"home_goals" json:"home_goals,omitempty" validate:"omitempty,gte=0"`
	AwayGoals *int        `db:"away_goals" json:"away_goals,omitempty" validate:"omitempty,gte=0"`
	Status    MatchStatus `db:"status" json:"status" validate:"required,oneof=scheduled finished"`
	Source    string      `db:"source" json:"source"`
}

// IsComplete reports whether the match finished with both scores known.
func (m *MatchRecord) IsComplete() bool {
	return m.Status == MatchStatusFinished && m.HomeGoals != nil && m.AwayGoals != nil
}

// Outcome returns "H", "D" or "A" for a complete match and "" otherwise.
func (m *MatchRecord) Outcome() string {
	if !m.IsComplete() {
		return ""
	}
	return OutcomeOf(*m.HomeGoals, *m.AwayGoals)
}

// OutcomeOf maps a score to its 1X2 outcome code.
func OutcomeOf(homeGoals, awayGoals int) string {
	switch {
	case homeGoals > awayGoals:
		return "H"
	case homeGoals < awayGoals:
		return "A"
	default:
		return "D"
	}
}

// Fixture is one match of a betting slate with the best available odds
type Fixture struct {
	Date   time.Time `json:"date"`
	League string    `json:"league" validate:"required"`
	Home   string    `json:"home_team" validate:"required"`
	Away   string    `json:"away_team" validate:"required"`
	Odds   OddsQuote `json:"odds"`
}

// Key identifies the fixture within a slate.
func (f Fixture) Key() string {
	return f.League + ":" + f.Home + " vs " + f.Away
}

// PredictionSnapshot is the stored record of a prediction made for a match
type PredictionSnapshot struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	MatchID   int64            `db:"match_id" json:"match_id"`
	HomeXG    float64          `db:"pred_home_xg" json:"pred_home_xg"`
	AwayXG    float64          `db:"pred_away_xg" json:"pred_away_xg"`
	HomeWin   float64          `db:"pred_home_win" json:"pred_home_win"`
	Draw      float64          `db:"pred_draw" json:"pred_draw"`
	AwayWin   float64          `db:"pred_away_win" json:"pred_away_win"`
	Over25    float64          `db:"pred_over25" json:"pred_over25"`
	BTTS      float64          `db:"pred_btts" json:"pred_btts"`
	Source    PredictionSource `db:"source" json:"source"`
	BetMarket *Market          `db:"bet_market" json:"bet_market,omitempty"`
	BetOdds   *float64         `db:"bet_odds" json:"bet_odds,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// ResolvedPrediction pairs a stored prediction with the realised score
type ResolvedPrediction struct {
	MatchID   int64    `json:"match_id"`
	League    string   `json:"league"`
	Home      string   `json:"home_team"`
	Away      string   `json:"away_team"`
	HomeWin   float64  `json:"pred_home_win"`
	Draw      float64  `json:"pred_draw"`
	AwayWin   float64  `json:"pred_away_win"`
	Over25    *float64 `json:"pred_over25,omitempty"`
	BTTS      *float64 `json:"pred_btts,omitempty"`
	HomeGoals int      `json:"home_goals"`
	AwayGoals int      `json:"away_goals"`
}

// HistorySummary describes the contents of the match-history store
type HistorySummary struct {
	TotalMatches    int      `json:"total_matches"`
	FinishedMatches int      `json:"finished_matches"`
	Predictions     int      `json:"predictions"`
	Leagues         []string `json:"leagues"`
}
