package fitter

import (
	"math"
	"time"
)

// TimeWeight decays a match's influence exponentially with its age.
// Matches dated after ref weigh 1.0.
func TimeWeight(matchDate, ref time.Time, halfLifeDays float64) float64 {
	days := ref.Sub(matchDate).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-math.Ln2 / halfLifeDays * days)
}
