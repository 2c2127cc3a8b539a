// Package valuebet selects positive expected-value bets and sizes stakes.
package valuebet

import (
	"fmt"
	"math"
)

// Strategy holds value thresholds and staking limits
type Strategy struct {
	MinEV             float64
	MinEdge           float64
	KellyFraction     float64
	MaxSingleStakePct float64
	MaxDailyStakePct  float64
	MaxOdds           float64
	MinStake          float64
}

// DefaultStrategy returns the standard thresholds.
func DefaultStrategy() Strategy {
	return Strategy{
		MinEV:             0.05,
		MinEdge:           0.03,
		KellyFraction:     0.25,
		MaxSingleStakePct: 0.10,
		MaxDailyStakePct:  0.25,
		MaxOdds:           6.0,
		MinStake:          1.0,
	}
}

// ValidateOdds ensures odds are within acceptable bounds
func (s Strategy) ValidateOdds(odds float64) error {
	if math.IsNaN(odds) || odds <= 1.0 {
		return fmt.Errorf("odds must be greater than 1.0")
	}
	if s.MaxOdds > 0 && odds > s.MaxOdds {
		return fmt.Errorf("odds above maximum")
	}
	return nil
}

// KellyStake returns the bankroll fraction to stake: fractional Kelly,
// floored at zero and capped at MaxSingleStakePct.
func (s Strategy) KellyStake(probability, odds float64) float64 {
	if odds <= 1 {
		return 0
	}
	edge := Edge(probability, odds)
	if edge <= 0 {
		return 0
	}
	// (b*p - (1-p)) / b rearranged around the edge so both share one sign
	kelly := odds * edge / (odds - 1.0)
	stake := kelly * s.KellyFraction
	if s.MaxSingleStakePct > 0 && stake > s.MaxSingleStakePct {
		stake = s.MaxSingleStakePct
	}
	return stake
}

// ExpectedValue is the expected profit per unit staked.
func ExpectedValue(probability, odds float64) float64 {
	return probability*(odds-1.0) - (1.0 - probability)
}

// Edge is the model probability minus the price's implied probability.
func Edge(probability, odds float64) float64 {
	return probability - 1.0/odds
}

// NormalizeProbability ensures probability in [0,1]
func NormalizeProbability(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
