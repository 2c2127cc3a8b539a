package prediction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/yourusername/clever-goals/internal/fitter"
)

// MaxGoals truncates each side's goal count to [0, MaxGoals).
const MaxGoals = 8

// ScorelineDistribution holds P(home = i, away = j).
type ScorelineDistribution [MaxGoals][MaxGoals]float64

// NewScorelineDistribution builds the Dixon-Coles corrected, renormalised
// joint distribution of home and away goals.
func NewScorelineDistribution(lambda, mu, rho float64) ScorelineDistribution {
	home := poissonPMF(lambda)
	away := poissonPMF(mu)

	var d ScorelineDistribution
	for i := 0; i < MaxGoals; i++ {
		for j := 0; j < MaxGoals; j++ {
			d[i][j] = home[i] * away[j]
		}
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			// extreme rates with large |rho| can push tau below zero
			d[i][j] *= math.Max(fitter.Tau(i, j, lambda, mu, rho), 0)
		}
	}

	if total := d.Total(); total > 0 {
		for i := range d {
			floats.Scale(1/total, d[i][:])
		}
	}
	return d
}

func poissonPMF(rate float64) [MaxGoals]float64 {
	dist := distuv.Poisson{Lambda: rate}
	var pmf [MaxGoals]float64
	for k := range pmf {
		pmf[k] = dist.Prob(float64(k))
	}
	return pmf
}

// Total is the probability mass of the matrix.
func (d *ScorelineDistribution) Total() float64 {
	var s float64
	for i := range d {
		s += floats.Sum(d[i][:])
	}
	return s
}

// HomeWin is the mass below the diagonal.
func (d *ScorelineDistribution) HomeWin() float64 {
	var s float64
	for i := 1; i < MaxGoals; i++ {
		s += floats.Sum(d[i][:i])
	}
	return s
}

// Draw is the mass on the diagonal.
func (d *ScorelineDistribution) Draw() float64 {
	var s float64
	for i := 0; i < MaxGoals; i++ {
		s += d[i][i]
	}
	return s
}

// AwayWin is the mass above the diagonal.
func (d *ScorelineDistribution) AwayWin() float64 {
	var s float64
	for i := 0; i < MaxGoals-1; i++ {
		s += floats.Sum(d[i][i+1:])
	}
	return s
}

// Under returns P(total goals < line).
func (d *ScorelineDistribution) Under(line float64) float64 {
	var s float64
	for i := 0; i < MaxGoals; i++ {
		for j := 0; j < MaxGoals; j++ {
			if float64(i+j) < line {
				s += d[i][j]
			}
		}
	}
	return s
}

// BTTS is the probability that both sides score.
func (d *ScorelineDistribution) BTTS() float64 {
	var homeBlank, awayBlank float64
	for k := 0; k < MaxGoals; k++ {
		homeBlank += d[0][k]
		awayBlank += d[k][0]
	}
	return 1 - (homeBlank + awayBlank - d[0][0])
}

// MostLikely returns the modal scoreline and its probability.
func (d *ScorelineDistribution) MostLikely() (homeGoals, awayGoals int, p float64) {
	p = -1
	for i := 0; i < MaxGoals; i++ {
		for j := 0; j < MaxGoals; j++ {
			if d[i][j] > p {
				homeGoals, awayGoals, p = i, j, d[i][j]
			}
		}
	}
	return homeGoals, awayGoals, p
}

// Score formats a scoreline as "h-a".
func Score(homeGoals, awayGoals int) string {
	return fmt.Sprintf("%d-%d", homeGoals, awayGoals)
}
