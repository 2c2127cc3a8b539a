package models

// PredictionSource tells which rating path produced a prediction
type PredictionSource string

const (
	SourceFitted PredictionSource = "fitted"
	SourceXG     PredictionSource = "xg"
)

// MatchPrediction holds the market probabilities derived from a scoreline distribution
type MatchPrediction struct {
	League              string           `json:"league"`
	Home                string           `json:"home_team"`
	Away                string           `json:"away_team"`
	HomeXG              float64          `json:"home_xg"`
	AwayXG              float64          `json:"away_xg"`
	Source              PredictionSource `json:"source"`
	RhoUsed             float64          `json:"rho_used"`
	HomeWin             float64          `json:"home_win"`
	Draw                float64          `json:"draw"`
	AwayWin             float64          `json:"away_win"`
	Over25              float64          `json:"over25"`
	Under25             float64          `json:"under25"`
	BTTS                float64          `json:"btts"`
	MostLikelyScore     string           `json:"most_likely_score"`
	MostLikelyScoreProb float64          `json:"most_likely_score_prob"`
}

// Probability returns the model probability for a market.
func (p *MatchPrediction) Probability(m Market) (float64, bool) {
	switch m {
	case MarketHome:
		return p.HomeWin, true
	case MarketDraw:
		return p.Draw, true
	case MarketAway:
		return p.AwayWin, true
	case MarketOver25:
		return p.Over25, true
	case MarketUnder25:
		return p.Under25, true
	case MarketBTTSYes:
		return p.BTTS, true
	case MarketBTTSNo:
		return 1 - p.BTTS, true
	default:
		return 0, false
	}
}

// Snapshot converts the prediction into a storable record for a match.
func (p *MatchPrediction) Snapshot(matchID int64) *PredictionSnapshot {
	return &PredictionSnapshot{
		MatchID: matchID,
		HomeXG:  p.HomeXG,
		AwayXG:  p.AwayXG,
		HomeWin: p.HomeWin,
		Draw:    p.Draw,
		AwayWin: p.AwayWin,
		Over25:  p.Over25,
		BTTS:    p.BTTS,
		Source:  p.Source,
	}
}
