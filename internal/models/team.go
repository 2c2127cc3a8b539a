package models

// TeamSeasonStats holds season aggregates for one team from the stats feed
type TeamSeasonStats struct {
	Team          string  `json:"team" validate:"required"`
	League        string  `json:"league"`
	TotalXG       float64 `json:"total_xg" validate:"gte=0"`
	TotalXGA      float64 `json:"total_xga" validate:"gte=0"`
	MatchesPlayed int     `json:"matches" validate:"gte=0"`
}

// VenueSplit holds home/away scoring splits for one team.
// Zero ratios mean "not supplied" and are derived from goals when possible.
type VenueSplit struct {
	HomeGoals         float64 `json:"home_goals"`
	HomeConceded      float64 `json:"home_conceded"`
	HomePlayed        int     `json:"home_played"`
	AwayGoals         float64 `json:"away_goals"`
	AwayConceded      float64 `json:"away_conceded"`
	AwayPlayed        int     `json:"away_played"`
	HomeGoalRatio     float64 `json:"home_goal_ratio"`
	AwayGoalRatio     float64 `json:"away_goal_ratio"`
	HomeConcededRatio float64 `json:"home_conceded_ratio"`
	AwayConcededRatio float64 `json:"away_conceded_ratio"`
}

// LeagueVenueData holds venue splits for a league keyed by the feed's team names
type LeagueVenueData struct {
	Teams               map[string]VenueSplit `json:"teams"`
	LeagueHomeAdvantage float64               `json:"league_home_advantage,omitempty"`
}

// TeamRating is the shrunk empirical rating of a team within its league
type TeamRating struct {
	Team                string  `json:"team"`
	League              string  `json:"league"`
	Attack              float64 `json:"attack"`
	Defense             float64 `json:"defense"`
	HomeAttack          float64 `json:"home_attack"`
	HomeDefense         float64 `json:"home_defense"`
	AwayAttack          float64 `json:"away_attack"`
	AwayDefense         float64 `json:"away_defense"`
	LeagueHomeAdvantage float64 `json:"league_home_advantage"`
	LeagueAvgXG         float64 `json:"league_avg_xg"`
	Matches             int     `json:"matches"`
}
