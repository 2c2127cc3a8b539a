package fitter

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/clever-goals/internal/models"
)

// Numeric guards shared with the prediction engine.
const (
	MinRate  = 0.1
	MaxRate  = 10.0
	tauFloor = 1e-10
)

// Dixon-Coles low-score cells.
const (
	cellNone int8 = iota
	cell00
	cell10
	cell01
	cell11
)

// ClampRate bounds an expected-goals rate.
func ClampRate(r float64) float64 {
	return math.Max(MinRate, math.Min(MaxRate, r))
}

// Tau is the Dixon-Coles correction for a scoreline.
func Tau(homeGoals, awayGoals int, lambda, mu, rho float64) float64 {
	t, _, _, _ := tauTerms(cellOf(homeGoals, awayGoals), lambda, mu, rho)
	return t
}

func cellOf(homeGoals, awayGoals int) int8 {
	switch {
	case homeGoals == 0 && awayGoals == 0:
		return cell00
	case homeGoals == 1 && awayGoals == 0:
		return cell10
	case homeGoals == 0 && awayGoals == 1:
		return cell01
	case homeGoals == 1 && awayGoals == 1:
		return cell11
	default:
		return cellNone
	}
}

// tauTerms returns tau and its partial derivatives in lambda, mu and rho.
func tauTerms(cell int8, lambda, mu, rho float64) (tau, dLambda, dMu, dRho float64) {
	switch cell {
	case cell00:
		return 1 - lambda*mu*rho, -mu * rho, -lambda * rho, -lambda * mu
	case cell10:
		return 1 + mu*rho, 0, rho, mu
	case cell01:
		return 1 + lambda*rho, rho, 0, lambda
	case cell11:
		return 1 - rho, 0, 0, -1
	default:
		return 1, 0, 0, 0
	}
}

// matchLogLikelihood is the per-match reference form of the objective's data term.
func matchLogLikelihood(homeGoals, awayGoals int, lambda, mu, rho float64) float64 {
	lambda, mu = ClampRate(lambda), ClampRate(mu)
	rho = models.ClampRho(rho)
	hg, ag := float64(homeGoals), float64(awayGoals)
	lgH, _ := math.Lgamma(hg + 1)
	lgA, _ := math.Lgamma(ag + 1)
	tau := math.Max(Tau(homeGoals, awayGoals, lambda, mu, rho), tauFloor)
	return hg*math.Log(lambda) - lambda - lgH + ag*math.Log(mu) - mu - lgA + math.Log(tau)
}

// corpus is the index-array form of a league's matches.
type corpus struct {
	teams   []string
	home    []int
	away    []int
	hg      []float64
	ag      []float64
	w       []float64
	logFact []float64
	cell    []int8
}

func newCorpus(matches []models.MatchRecord, ref time.Time, halfLifeDays float64) *corpus {
	seen := make(map[string]struct{})
	for _, m := range matches {
		seen[m.Home] = struct{}{}
		seen[m.Away] = struct{}{}
	}
	teams := make([]string, 0, len(seen))
	for t := range seen {
		teams = append(teams, t)
	}
	sort.Strings(teams)

	index := make(map[string]int, len(teams))
	for i, t := range teams {
		index[t] = i
	}

	n := len(matches)
	c := &corpus{
		teams:   teams,
		home:    make([]int, n),
		away:    make([]int, n),
		hg:      make([]float64, n),
		ag:      make([]float64, n),
		w:       make([]float64, n),
		logFact: make([]float64, n),
		cell:    make([]int8, n),
	}
	for i, m := range matches {
		h, a := *m.HomeGoals, *m.AwayGoals
		c.home[i] = index[m.Home]
		c.away[i] = index[m.Away]
		c.hg[i] = float64(h)
		c.ag[i] = float64(a)
		c.w[i] = TimeWeight(m.Date, ref, halfLifeDays)
		lgH, _ := math.Lgamma(float64(h) + 1)
		lgA, _ := math.Lgamma(float64(a) + 1)
		c.logFact[i] = lgH + lgA
		c.cell[i] = cellOf(h, a)
	}
	return c
}

// objective is the penalised negative log-likelihood over
// x = (log attack[n], log defense[n], log home advantage, rho).
type objective struct {
	c       *corpus
	penalty float64

	lam, mu, ll []float64
	att         []float64
}

func newObjective(c *corpus, penalty float64) *objective {
	n := len(c.home)
	return &objective{
		c:       c,
		penalty: penalty,
		lam:     make([]float64, n),
		mu:      make([]float64, n),
		ll:      make([]float64, n),
		att:     make([]float64, len(c.teams)),
	}
}

func (o *objective) dim() int {
	return 2*len(o.c.teams) + 2
}

// Func evaluates the objective.
func (o *objective) Func(x []float64) float64 {
	return o.evaluate(x, nil)
}

// Grad writes the analytic gradient into grad.
func (o *objective) Grad(grad, x []float64) {
	o.evaluate(x, grad)
}

func (o *objective) evaluate(x, grad []float64) float64 {
	c := o.c
	n := len(c.teams)
	logAtt, logDef := x[:n], x[n:2*n]
	logHA, rawRho := x[2*n], x[2*n+1]
	rho := models.ClampRho(rawRho)
	rhoFree := rawRho > models.MinRho && rawRho < models.MaxRho

	for i := range c.home {
		h, a := c.home[i], c.away[i]
		o.lam[i] = math.Exp(logAtt[h] + logDef[a] + logHA)
		o.mu[i] = math.Exp(logAtt[a] + logDef[h])
	}

	if grad != nil {
		for j := range grad {
			grad[j] = 0
		}
	}

	for i := range c.home {
		lam, mu := ClampRate(o.lam[i]), ClampRate(o.mu[i])
		tau, dTauLam, dTauMu, dTauRho := tauTerms(c.cell[i], lam, mu, rho)
		if tau < tauFloor {
			tau, dTauLam, dTauMu, dTauRho = tauFloor, 0, 0, 0
		}

		o.ll[i] = c.hg[i]*math.Log(lam) - lam + c.ag[i]*math.Log(mu) - mu - c.logFact[i] + math.Log(tau)

		if grad == nil {
			continue
		}
		w := c.w[i]
		h, a := c.home[i], c.away[i]
		if lam == o.lam[i] {
			g := w * (c.hg[i]/lam - 1 + dTauLam/tau) * lam
			grad[h] -= g
			grad[n+a] -= g
			grad[2*n] -= g
		}
		if mu == o.mu[i] {
			g := w * (c.ag[i]/mu - 1 + dTauMu/tau) * mu
			grad[a] -= g
			grad[n+h] -= g
		}
		if rhoFree {
			grad[2*n+1] -= w * dTauRho / tau
		}
	}

	f := -floats.Dot(c.w, o.ll)

	for t := range o.att {
		o.att[t] = math.Exp(logAtt[t])
	}
	meanAtt := floats.Sum(o.att) / float64(n)
	f += o.penalty * (meanAtt - 1) * (meanAtt - 1)

	if grad != nil {
		scale := 2 * o.penalty * (meanAtt - 1) / float64(n)
		floats.AddScaled(grad[:n], scale, o.att)
	}

	return f
}
