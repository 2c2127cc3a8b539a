package valuebet

import (
	"sort"

	"github.com/yourusername/clever-goals/internal/metrics"
	"github.com/yourusername/clever-goals/internal/models"
)

// FindValueBets evaluates every quoted market of a match and returns the
// candidates clearing both thresholds, best EV first. At most one 1X2
// outcome is kept; totals and BTTS may accompany it.
func FindValueBets(pred *models.MatchPrediction, quote models.OddsQuote, s Strategy) []models.ValueBetCandidate {
	if pred == nil {
		return nil
	}

	var candidates []models.ValueBetCandidate
	for _, market := range models.Markets {
		odds, ok := quote[market]
		if !ok || s.ValidateOdds(odds) != nil {
			continue
		}
		p, ok := pred.Probability(market)
		if !ok {
			continue
		}
		p = NormalizeProbability(p)

		ev := ExpectedValue(p, odds)
		edge := Edge(p, odds)
		if ev < s.MinEV || edge < s.MinEdge {
			continue
		}

		candidates = append(candidates, models.ValueBetCandidate{
			Market:             market,
			Probability:        p,
			Odds:               odds,
			ImpliedProbability: 1.0 / odds,
			Edge:               edge,
			EV:                 ev,
			KellyStakeFraction: s.KellyStake(p, odds),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EV > candidates[j].EV
	})

	out := candidates[:0]
	resultTaken := false
	for _, c := range candidates {
		if c.Market.IsMatchResult() {
			if resultTaken {
				continue
			}
			resultTaken = true
		}
		out = append(out, c)
		metrics.RecordValueBet(string(c.Market), c.EV)
	}
	return out
}
