// Package fitter estimates Dixon-Coles team strengths by weighted maximum likelihood.
package fitter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/yourusername/clever-goals/internal/logger"
	"github.com/yourusername/clever-goals/internal/metrics"
	"github.com/yourusername/clever-goals/internal/models"
)

// stallIterations is how many major iterations without relative progress
// end the optimisation.
const stallIterations = 3

// MatchSource provides finished match history.
type MatchSource interface {
	FinishedMatches(ctx context.Context, league string, since *time.Time) ([]models.MatchRecord, error)
	Leagues(ctx context.Context) ([]string, error)
}

// Config holds the fitting parameters
type Config struct {
	HalfLifeDays         float64
	MinMatches           int
	MaxIterations        int
	Tolerance            float64
	RegularizationWeight float64
	InitialHomeAdvantage float64
	InitialRho           float64
	Concurrency          int
	// LookbackDays limits history to recent matches; 0 reads everything.
	LookbackDays int
}

// DefaultConfig returns the standard fitting parameters.
func DefaultConfig() Config {
	return Config{
		HalfLifeDays:         180,
		MinMatches:           50,
		MaxIterations:        500,
		Tolerance:            1e-8,
		RegularizationWeight: 10,
		InitialHomeAdvantage: 1.15,
		InitialRho:           -0.05,
		Concurrency:          4,
	}
}

// FitReport collects the outcome of a multi-league fit
type FitReport struct {
	Params map[string]*models.LeagueFitParameters
	Failed map[string]error
}

// Fitter fits league parameters from the match history
type Fitter struct {
	source MatchSource
	cfg    Config
	log    *logger.ModelLogger
	now    func() time.Time
}

// NewFitter creates a new fitter
func NewFitter(source MatchSource, cfg Config, log *logrus.Logger) *Fitter {
	return &Fitter{
		source: source,
		cfg:    cfg,
		log:    logger.NewModelLogger(log),
		now:    time.Now,
	}
}

// WithClock overrides the reference date used for time weighting.
func (f *Fitter) WithClock(now func() time.Time) *Fitter {
	f.now = now
	return f
}

// FitLeague loads a league's finished matches and fits them.
func (f *Fitter) FitLeague(ctx context.Context, league string) (*models.LeagueFitParameters, error) {
	ref := f.now()

	var since *time.Time
	if f.cfg.LookbackDays > 0 {
		s := ref.AddDate(0, 0, -f.cfg.LookbackDays)
		since = &s
	}

	matches, err := f.source.FinishedMatches(ctx, league, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for %s: %w", league, err)
	}

	return f.FitMatches(league, matches, ref)
}

// FitMatches fits one league from the supplied matches. Records that are not
// finished with both scores are ignored. Failure to converge is not an error:
// the best iterate is returned with Converged=false and a Warning.
func (f *Fitter) FitMatches(league string, matches []models.MatchRecord, ref time.Time) (*models.LeagueFitParameters, error) {
	complete := make([]models.MatchRecord, 0, len(matches))
	for _, m := range matches {
		if m.IsComplete() {
			complete = append(complete, m)
		}
	}

	if len(complete) < f.cfg.MinMatches {
		err := &InsufficientDataError{League: league, Matches: len(complete), Required: f.cfg.MinMatches}
		f.log.LogFitSkipped(league, len(complete), f.cfg.MinMatches, "insufficient data")
		metrics.RecordFitSkipped(league, "insufficient_data")
		return nil, err
	}

	start := time.Now()
	c := newCorpus(complete, ref, f.cfg.HalfLifeDays)
	obj := newObjective(c, f.cfg.RegularizationWeight)
	n := len(c.teams)

	x0 := make([]float64, obj.dim())
	x0[2*n] = math.Log(f.cfg.InitialHomeAdvantage)
	x0[2*n+1] = f.cfg.InitialRho

	problem := optimize.Problem{Func: obj.Func, Grad: obj.Grad}
	settings := &optimize.Settings{
		MajorIterations: f.cfg.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Relative:   f.cfg.Tolerance,
			Iterations: stallIterations,
		},
	}

	x := x0
	converged, iterations, warning := false, 0, ""
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result != nil && len(result.X) == len(x0) && floatsAreFinite(result.X) {
		x = result.X
		iterations = result.Stats.MajorIterations
		converged = err == nil &&
			(result.Status == optimize.GradientThreshold || result.Status == optimize.FunctionConvergence)
		if !converged {
			warning = fmt.Sprintf("optimizer stopped with status %v", result.Status)
		}
	}
	if err != nil {
		warning = fmt.Sprintf("optimizer error: %v", err)
	}

	attacks := make([]float64, n)
	defenses := make([]float64, n)
	for i := 0; i < n; i++ {
		attacks[i] = math.Exp(x[i])
		defenses[i] = math.Exp(x[n+i])
	}
	mean := floats.Sum(attacks) / float64(n)
	floats.Scale(1/mean, attacks)
	floats.Scale(mean, defenses)

	rho := models.ClampRho(x[2*n+1])
	ha := math.Exp(x[2*n])

	// Normalisation leaves every rate unchanged and zeroes the penalty, so
	// this is the weighted data log-likelihood at the reported parameters.
	xn := make([]float64, len(x))
	for i := 0; i < n; i++ {
		xn[i] = math.Log(attacks[i])
		xn[n+i] = math.Log(defenses[i])
	}
	xn[2*n] = x[2*n]
	xn[2*n+1] = rho
	logLik := -obj.Func(xn)

	attMap := make(map[string]float64, n)
	defMap := make(map[string]float64, n)
	for i, team := range c.teams {
		attMap[team] = attacks[i]
		defMap[team] = defenses[i]
	}

	params, perr := models.NewLeagueFitParameters(league, attMap, defMap, ha, rho, len(complete), logLik, f.now())
	if perr != nil {
		return nil, fmt.Errorf("failed to build parameters for %s: %w", league, perr)
	}
	params.Converged = converged
	params.Iterations = iterations
	params.Warning = warning

	elapsed := time.Since(start)
	f.log.LogFitCompleted(league, n, len(complete), iterations, ha, rho, logLik, converged, float64(elapsed.Milliseconds()))
	if !converged {
		f.log.LogFitWarning(league, warning)
	}
	f.log.LogTopTeams(league, topTeams(attMap, 3, true), topTeams(defMap, 3, false))
	metrics.RecordFit(league, converged, elapsed.Seconds(), logLik, ha, rho)

	return params, nil
}

// FitAll fits every league concurrently. An empty list fits every league in
// the history. Per-league failures are collected in the report; only context
// cancellation aborts the run.
func (f *Fitter) FitAll(ctx context.Context, leagues []string) (*FitReport, error) {
	if len(leagues) == 0 {
		var err error
		leagues, err = f.source.Leagues(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list leagues: %w", err)
		}
	}

	report := &FitReport{
		Params: make(map[string]*models.LeagueFitParameters),
		Failed: make(map[string]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if f.cfg.Concurrency > 0 {
		g.SetLimit(f.cfg.Concurrency)
	}

	for _, league := range leagues {
		league := league
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			params, err := f.FitLeague(gctx, league)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				report.Failed[league] = err
				return nil
			}
			report.Params[league] = params
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

func topTeams(ratings map[string]float64, k int, highest bool) []string {
	teams := make([]string, 0, len(ratings))
	for t := range ratings {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool {
		a, b := ratings[teams[i]], ratings[teams[j]]
		if a == b {
			return teams[i] < teams[j]
		}
		if highest {
			return a > b
		}
		return a < b
	})
	if len(teams) > k {
		teams = teams[:k]
	}
	return teams
}

func floatsAreFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
