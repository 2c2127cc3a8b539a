// Package prediction turns team ratings into scoreline distributions and market probabilities.
package prediction

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-goals/internal/fitter"
	"github.com/yourusername/clever-goals/internal/logger"
	"github.com/yourusername/clever-goals/internal/metrics"
	"github.com/yourusername/clever-goals/internal/models"
	"github.com/yourusername/clever-goals/internal/teamname"
)

// DefaultFallbackRho is used when predicting from empirical ratings,
// which carry no fitted correlation.
const DefaultFallbackRho = -0.05

// RatingProvider supplies empirical team ratings.
type RatingProvider interface {
	Rating(league, team string) (models.TeamRating, error)
}

// RatingSource is the rating evidence behind one prediction:
// either Fitted or Empirical.
type RatingSource interface {
	ratingSource()
}

// Fitted carries both teams' fitted parameters from one league fit.
type Fitted struct {
	HomeAttack, HomeDefense float64
	AwayAttack, AwayDefense float64
	HomeAdvantage           float64
	Rho                     float64
}

// Empirical carries both teams' shrunk xG ratings.
type Empirical struct {
	Home, Away models.TeamRating
}

func (Fitted) ratingSource()    {}
func (Empirical) ratingSource() {}

// Engine predicts matches from fitted parameters, falling back to empirical ratings
type Engine struct {
	mu          sync.RWMutex
	fits        map[string]*models.LeagueFitParameters
	ratings     RatingProvider
	fallbackRho float64
	log         *logger.ModelLogger
}

// NewEngine creates a new prediction engine. ratings may be nil.
func NewEngine(ratings RatingProvider, fallbackRho float64, log *logrus.Logger) *Engine {
	return &Engine{
		fits:        make(map[string]*models.LeagueFitParameters),
		ratings:     ratings,
		fallbackRho: models.ClampRho(fallbackRho),
		log:         logger.NewModelLogger(log),
	}
}

// SetFits replaces the fitted parameter set.
func (e *Engine) SetFits(fits map[string]*models.LeagueFitParameters) {
	next := make(map[string]*models.LeagueFitParameters, len(fits))
	for league, p := range fits {
		if p != nil {
			next[league] = p
		}
	}

	e.mu.Lock()
	e.fits = next
	e.mu.Unlock()
}

// SetFit replaces the parameters of one league.
func (e *Engine) SetFit(params *models.LeagueFitParameters) {
	if params == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[string]*models.LeagueFitParameters, len(e.fits)+1)
	for league, p := range e.fits {
		next[league] = p
	}
	next[params.League] = params
	e.fits = next
}

// Fit returns the current parameters of a league.
func (e *Engine) Fit(league string) (*models.LeagueFitParameters, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.fits[league]
	return p, ok
}

// FittedLeagues returns the leagues with fitted parameters, sorted.
func (e *Engine) FittedLeagues() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]string, 0, len(e.fits))
	for league := range e.fits {
		out = append(out, league)
	}
	sort.Strings(out)
	return out
}

// Resolve picks the rating source for a match: fitted parameters when the
// league fit covers both teams, else empirical ratings.
func (e *Engine) Resolve(league, home, away string) (RatingSource, error) {
	if params, ok := e.Fit(league); ok {
		ha, _, okHA := teamname.Lookup(params.Attacks, home)
		hd, _, okHD := teamname.Lookup(params.Defenses, home)
		aa, _, okAA := teamname.Lookup(params.Attacks, away)
		ad, _, okAD := teamname.Lookup(params.Defenses, away)
		if okHA && okHD && okAA && okAD {
			return Fitted{
				HomeAttack: ha, HomeDefense: hd,
				AwayAttack: aa, AwayDefense: ad,
				HomeAdvantage: params.HomeAdvantage,
				Rho:           params.Rho,
			}, nil
		}
	}

	if e.ratings == nil {
		return nil, fmt.Errorf("%w: %s vs %s in %s", models.ErrUnknownTeam, home, away, league)
	}

	homeRating, err := e.ratings.Rating(league, home)
	if err != nil {
		return nil, unknownTeam(err, home, league)
	}
	awayRating, err := e.ratings.Rating(league, away)
	if err != nil {
		return nil, unknownTeam(err, away, league)
	}
	return Empirical{Home: homeRating, Away: awayRating}, nil
}

// PredictMatch predicts a match, or returns models.ErrUnknownTeam when
// neither rating path knows both teams.
func (e *Engine) PredictMatch(league, home, away string) (*models.MatchPrediction, error) {
	src, err := e.Resolve(league, home, away)
	if err != nil {
		return nil, err
	}

	pred := Predict(src, e.fallbackRho)
	pred.League, pred.Home, pred.Away = league, home, away

	e.log.LogPrediction(league, home, away, string(pred.Source), pred.HomeXG, pred.AwayXG, pred.HomeWin, pred.Draw, pred.AwayWin)
	metrics.RecordPrediction(string(pred.Source))

	return pred, nil
}

// Predict computes expected goals for a rating source and builds the market
// probabilities. fallbackRho applies to Empirical sources only.
func Predict(src RatingSource, fallbackRho float64) *models.MatchPrediction {
	var lambda, mu, rho float64
	var source models.PredictionSource

	switch s := src.(type) {
	case Fitted:
		lambda = s.HomeAttack * s.AwayDefense * s.HomeAdvantage
		mu = s.AwayAttack * s.HomeDefense
		rho = s.Rho
		source = models.SourceFitted
	case Empirical:
		avg := s.Home.LeagueAvgXG
		lambda = s.Home.HomeAttack * s.Away.AwayDefense * avg * s.Home.LeagueHomeAdvantage
		mu = s.Away.AwayAttack * s.Home.HomeDefense * avg
		rho = fallbackRho
		source = models.SourceXG
	}

	pred := FromRates(lambda, mu, rho)
	pred.Source = source
	return pred
}

// FromRates builds a prediction from expected goals and rho. Rates are
// clamped the same way as in fitting.
func FromRates(lambda, mu, rho float64) *models.MatchPrediction {
	lambda, mu = fitter.ClampRate(lambda), fitter.ClampRate(mu)
	rho = models.ClampRho(rho)

	d := NewScorelineDistribution(lambda, mu, rho)
	under := d.Under(2.5)
	h, a, p := d.MostLikely()

	return &models.MatchPrediction{
		HomeXG:              lambda,
		AwayXG:              mu,
		RhoUsed:             rho,
		HomeWin:             d.HomeWin(),
		Draw:                d.Draw(),
		AwayWin:             d.AwayWin(),
		Under25:             under,
		Over25:              1 - under,
		BTTS:                d.BTTS(),
		MostLikelyScore:     Score(h, a),
		MostLikelyScoreProb: p,
	}
}

func unknownTeam(err error, team, league string) error {
	if errors.Is(err, models.ErrUnknownTeam) {
		return err
	}
	return fmt.Errorf("%w: %s in %s: %v", models.ErrUnknownTeam, team, league, err)
}
