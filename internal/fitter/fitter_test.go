package fitter

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-goals/internal/models"
)

var refDate = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) FinishedMatches(ctx context.Context, league string, since *time.Time) ([]models.MatchRecord, error) {
	args := m.Called(ctx, league, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MatchRecord), args.Error(1)
}

func (m *mockSource) Leagues(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func intPtr(v int) *int { return &v }

func poisson(rng *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

var trueAttack = map[string]float64{
	"Athletic": 1.7, "Betis": 1.2, "Celta": 1.0, "Deportivo": 0.9, "Espanyol": 0.7, "Frontera": 0.5,
}

var trueDefense = map[string]float64{
	"Athletic": 0.6, "Betis": 0.9, "Celta": 1.0, "Deportivo": 1.1, "Espanyol": 1.2, "Frontera": 1.5,
}

// simulateLeague plays repeated double round robins with known strengths.
func simulateLeague(league string, rounds int, seed int64) []models.MatchRecord {
	rng := rand.New(rand.NewSource(seed))
	teams := []string{"Athletic", "Betis", "Celta", "Deportivo", "Espanyol", "Frontera"}
	const ha = 1.3

	var out []models.MatchRecord
	day := 0
	for r := 0; r < rounds; r++ {
		for _, h := range teams {
			for _, a := range teams {
				if h == a {
					continue
				}
				lam := trueAttack[h] * trueDefense[a] * ha
				mu := trueAttack[a] * trueDefense[h]
				out = append(out, models.MatchRecord{
					Date:      refDate.AddDate(0, 0, -day),
					League:    league,
					Home:      h,
					Away:      a,
					HomeGoals: intPtr(poisson(rng, lam)),
					AwayGoals: intPtr(poisson(rng, mu)),
					Status:    models.MatchStatusFinished,
				})
				day++
			}
		}
	}
	return out
}

func newTestFitter(source MatchSource) *Fitter {
	return NewFitter(source, DefaultConfig(), quietLogger()).WithClock(func() time.Time { return refDate })
}

func TestTimeWeight(t *testing.T) {
	assert.InDelta(t, 1.0, TimeWeight(refDate, refDate, 180), 1e-12)
	assert.InDelta(t, 0.5, TimeWeight(refDate.AddDate(0, 0, -180), refDate, 180), 1e-12)
	assert.InDelta(t, 0.25, TimeWeight(refDate.AddDate(0, 0, -360), refDate, 180), 1e-12)
	assert.InDelta(t, 1.0, TimeWeight(refDate.AddDate(0, 0, 10), refDate, 180), 1e-12, "future dates clamp to weight 1")
}

func TestTau(t *testing.T) {
	lam, mu, rho := 1.5, 1.2, -0.1

	assert.InDelta(t, 1-lam*mu*rho, Tau(0, 0, lam, mu, rho), 1e-12)
	assert.InDelta(t, 1+mu*rho, Tau(1, 0, lam, mu, rho), 1e-12)
	assert.InDelta(t, 1+lam*rho, Tau(0, 1, lam, mu, rho), 1e-12)
	assert.InDelta(t, 1-rho, Tau(1, 1, lam, mu, rho), 1e-12)
	assert.Equal(t, 1.0, Tau(2, 1, lam, mu, rho))
	assert.Equal(t, 1.0, Tau(0, 3, lam, mu, rho))
}

func TestObjectiveMatchesReferenceForm(t *testing.T) {
	matches := simulateLeague("L", 1, 7)
	c := newCorpus(matches, refDate, 180)
	obj := newObjective(c, 0)
	n := len(c.teams)

	x := make([]float64, obj.dim())
	for i := 0; i < n; i++ {
		x[i] = 0.1 * float64(i-2)
		x[n+i] = -0.05 * float64(i-3)
	}
	x[2*n] = math.Log(1.2)
	x[2*n+1] = -0.08

	index := map[string]int{}
	for i, team := range c.teams {
		index[team] = i
	}

	var want float64
	for _, m := range matches {
		h, a := index[m.Home], index[m.Away]
		lam := math.Exp(x[h] + x[n+a] + x[2*n])
		mu := math.Exp(x[a] + x[n+h])
		w := TimeWeight(m.Date, refDate, 180)
		want -= w * matchLogLikelihood(*m.HomeGoals, *m.AwayGoals, lam, mu, x[2*n+1])
	}

	assert.InDelta(t, want, obj.Func(x), 1e-9)
}

func TestObjectiveGradientMatchesFiniteDifference(t *testing.T) {
	c := newCorpus(simulateLeague("L", 2, 11), refDate, 180)
	obj := newObjective(c, 10)
	n := len(c.teams)

	x := make([]float64, obj.dim())
	for i := 0; i < n; i++ {
		x[i] = 0.07 * float64(i-2)
		x[n+i] = 0.03 * float64(3-i)
	}
	x[2*n] = math.Log(1.1)
	x[2*n+1] = -0.1

	grad := make([]float64, len(x))
	obj.Grad(grad, x)

	const h = 1e-6
	for j := range x {
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[j] += h
		xm[j] -= h
		numeric := (obj.Func(xp) - obj.Func(xm)) / (2 * h)
		assert.InDelta(t, numeric, grad[j], 1e-4*math.Max(1, math.Abs(numeric)), "parameter %d", j)
	}
}

func TestObjectiveFloorsTau(t *testing.T) {
	// lambda*mu*rho > 1 at 0-0 would make tau negative
	ll := matchLogLikelihood(0, 0, 4, 4, 0.5)
	assert.False(t, math.IsNaN(ll))
	assert.False(t, math.IsInf(ll, 0))
}

func TestFitMatchesInsufficientData(t *testing.T) {
	f := newTestFitter(nil)
	matches := simulateLeague("L", 1, 3)[:30]

	params, err := f.FitMatches("L", matches, refDate)
	assert.Nil(t, params)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 30, ide.Matches)
	assert.Equal(t, 50, ide.Required)
}

func TestFitMatchesIgnoresIncompleteRecords(t *testing.T) {
	f := newTestFitter(nil)
	matches := simulateLeague("L", 1, 3)[:30]
	for i := 0; i < 40; i++ {
		matches = append(matches, models.MatchRecord{
			Date: refDate, League: "L", Home: "Athletic", Away: "Betis", Status: models.MatchStatusScheduled,
		})
	}

	_, err := f.FitMatches("L", matches, refDate)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
}

func TestFitMatchesRecoversStrengths(t *testing.T) {
	f := newTestFitter(nil)
	matches := simulateLeague("L", 12, 42)

	params, err := f.FitMatches("L", matches, refDate)
	require.NoError(t, err)

	assert.Equal(t, 6, params.NTeams)
	assert.Equal(t, len(matches), params.NMatches)
	assert.Equal(t, "L", params.League)

	var sum float64
	for _, a := range params.Attacks {
		sum += a
	}
	assert.InDelta(t, 1.0, sum/float64(len(params.Attacks)), 1e-9)

	assert.GreaterOrEqual(t, params.Rho, models.MinRho)
	assert.LessOrEqual(t, params.Rho, models.MaxRho)
	assert.Greater(t, params.HomeAdvantage, 1.0)
	assert.Less(t, params.HomeAdvantage, 1.7)

	assert.Greater(t, params.Attacks["Athletic"], params.Attacks["Celta"])
	assert.Greater(t, params.Attacks["Celta"], params.Attacks["Frontera"])
	assert.Less(t, params.Defenses["Athletic"], params.Defenses["Frontera"])

	assert.Less(t, params.LogLikelihood, 0.0)
	assert.False(t, math.IsNaN(params.LogLikelihood))
	assert.Equal(t, refDate, params.FittedAt)
	if !params.Converged {
		assert.NotEmpty(t, params.Warning)
	}
}

func TestFitMatchesIsDeterministic(t *testing.T) {
	f := newTestFitter(nil)
	matches := simulateLeague("L", 4, 5)

	first, err := f.FitMatches("L", matches, refDate)
	require.NoError(t, err)
	second, err := f.FitMatches("L", matches, refDate)
	require.NoError(t, err)

	for team, a := range first.Attacks {
		assert.InDelta(t, a, second.Attacks[team], 1e-12)
		assert.InDelta(t, first.Defenses[team], second.Defenses[team], 1e-12)
	}
	assert.InDelta(t, first.Rho, second.Rho, 1e-12)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestFitMatchesIterationLimitIsWarningOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	f := NewFitter(nil, cfg, quietLogger()).WithClock(func() time.Time { return refDate })

	params, err := f.FitMatches("L", simulateLeague("L", 4, 9), refDate)
	require.NoError(t, err)
	assert.False(t, params.Converged)
	assert.NotEmpty(t, params.Warning)

	var sum float64
	for _, a := range params.Attacks {
		sum += a
	}
	assert.InDelta(t, 1.0, sum/float64(len(params.Attacks)), 1e-9)
}

func TestFitLeagueUsesLookback(t *testing.T) {
	source := new(mockSource)
	cfg := DefaultConfig()
	cfg.LookbackDays = 365
	f := NewFitter(source, cfg, quietLogger()).WithClock(func() time.Time { return refDate })

	since := refDate.AddDate(0, 0, -365)
	source.On("FinishedMatches", mock.Anything, "L", &since).Return(simulateLeague("L", 3, 1), nil)

	params, err := f.FitLeague(context.Background(), "L")
	require.NoError(t, err)
	assert.Equal(t, 90, params.NMatches)
	source.AssertExpectations(t)
}

func TestFitLeagueSourceError(t *testing.T) {
	source := new(mockSource)
	f := newTestFitter(source)
	source.On("FinishedMatches", mock.Anything, "L", (*time.Time)(nil)).Return(nil, errors.New("db down"))

	_, err := f.FitLeague(context.Background(), "L")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestFitAllCollectsPerLeagueOutcomes(t *testing.T) {
	source := new(mockSource)
	f := newTestFitter(source)

	source.On("Leagues", mock.Anything).Return([]string{"Big", "Small"}, nil)
	source.On("FinishedMatches", mock.Anything, "Big", (*time.Time)(nil)).Return(simulateLeague("Big", 3, 2), nil)
	source.On("FinishedMatches", mock.Anything, "Small", (*time.Time)(nil)).Return(simulateLeague("Small", 1, 2)[:20], nil)

	report, err := f.FitAll(context.Background(), nil)
	require.NoError(t, err)

	require.Contains(t, report.Params, "Big")
	assert.NotContains(t, report.Params, "Small")
	require.Contains(t, report.Failed, "Small")
	assert.True(t, errors.Is(report.Failed["Small"], models.ErrInsufficientData))
}

func TestFitAllCancelled(t *testing.T) {
	source := new(mockSource)
	f := newTestFitter(source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FitAll(ctx, []string{"Big"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTopTeams(t *testing.T) {
	ratings := map[string]float64{"A": 1.4, "B": 0.7, "C": 1.1, "D": 0.7}

	assert.Equal(t, []string{"A", "C"}, topTeams(ratings, 2, true))
	assert.Equal(t, []string{"B", "D", "C"}, topTeams(ratings, 3, false))
}
