package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-goals/internal/database"
	"github.com/yourusername/clever-goals/internal/fitter"
	"github.com/yourusername/clever-goals/internal/models"
	"github.com/yourusername/clever-goals/internal/paramstore"
	"github.com/yourusername/clever-goals/internal/prediction"
	"github.com/yourusername/clever-goals/internal/repository"
	"github.com/yourusername/clever-goals/internal/valuebet"
)

var refDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func setupRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	repos, err := repository.NewSQLiteRepositories(database.SetupTestDB(t))
	require.NoError(t, err)
	return repos
}

func eplFit(t *testing.T) *models.LeagueFitParameters {
	t.Helper()
	p, err := models.NewLeagueFitParameters("EPL",
		map[string]float64{"Arsenal": 1.4, "Chelsea": 1.0, "Burnley": 0.6},
		map[string]float64{"Arsenal": 0.7, "Chelsea": 1.0, "Burnley": 1.4},
		1.25, -0.08, 380, -1000, refDate)
	require.NoError(t, err)
	return p
}

// seasonRecords builds repeated double round-robins with scores that favour
// earlier teams in the list.
func seasonRecords(league string, teams []string, rounds int) []models.MatchRecord {
	var out []models.MatchRecord
	date := refDate.AddDate(0, 0, -300)
	k := 0
	for r := 0; r < rounds; r++ {
		for i, home := range teams {
			for j, away := range teams {
				if i == j {
					continue
				}
				hg := (len(teams)-i+k)%4 + 1
				ag := (len(teams) - j + 2*k) % 3
				out = append(out, models.MatchRecord{
					Date: date, League: league, Home: home, Away: away,
					HomeGoals: intp(hg), AwayGoals: intp(ag), Source: "test",
				})
				date = date.AddDate(0, 0, 2)
				k++
			}
		}
	}
	return out
}

type failingStore struct{}

func (failingStore) Save(context.Context, map[string]*models.LeagueFitParameters) error {
	return errors.New("store offline")
}

func (failingStore) Load(context.Context) (map[string]*models.LeagueFitParameters, error) {
	return nil, errors.New("store offline")
}

func newAnalysis(t *testing.T, repos *repository.Repositories, stores ...paramstore.Store) *AnalysisService {
	t.Helper()
	cfg := fitter.DefaultConfig()
	cfg.MinMatches = 20

	var matches repository.MatchRepository
	var preds repository.PredictionRepository
	var f *fitter.Fitter
	if repos != nil {
		matches, preds = repos.Matches, repos.Predictions
		f = fitter.NewFitter(repos.Matches, cfg, quietLogger()).WithClock(func() time.Time { return refDate })
	}

	return NewAnalysisService(AnalysisDeps{
		Fitter:      f,
		Engine:      prediction.NewEngine(nil, prediction.DefaultFallbackRho, quietLogger()),
		Strategy:    valuebet.DefaultStrategy(),
		Matches:     matches,
		Predictions: preds,
		Stores:      stores,
	}, 5, quietLogger())
}

func TestRefitPersistsAndKeepsFailedLeagues(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	ingest := NewIngestionService(repos.Matches, NewDataValidator(quietLogger()), NewDataNormalizer(nil, quietLogger()), quietLogger())
	records := append(seasonRecords("EPL", []string{"Arsenal", "Chelsea", "Burnley", "Fulham"}, 3),
		seasonRecords("Serie_A", []string{"Roma", "Lazio"}, 1)...)
	m, err := ingest.Import(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 38, m.Imported)

	file := paramstore.NewFileStore(filepath.Join(t.TempDir(), "params.json"))
	svc := newAnalysis(t, repos, file, failingStore{})

	oldSerie, err := models.NewLeagueFitParameters("Serie_A",
		map[string]float64{"Roma": 1.1, "Lazio": 0.9}, map[string]float64{"Roma": 0.9, "Lazio": 1.1},
		1.1, 0, 300, -500, refDate.AddDate(0, -1, 0))
	require.NoError(t, err)
	svc.Engine().SetFit(oldSerie)

	report, err := svc.Refit(ctx, nil)
	require.NotNil(t, report)
	// the failing store surfaces, the file store still saved
	assert.Error(t, err)

	require.Contains(t, report.Params, "EPL")
	assert.True(t, errors.Is(report.Failed["Serie_A"], models.ErrInsufficientData))

	serie, ok := svc.Engine().Fit("Serie_A")
	require.True(t, ok)
	assert.Equal(t, oldSerie.RunID, serie.RunID)

	saved, err := file.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EPL", "Serie_A"}, paramstore.Leagues(saved))
	assert.Equal(t, report.Params["EPL"].RunID, saved["EPL"].RunID)

	// a fresh service picks the set up, skipping the failing store
	fresh := newAnalysis(t, nil, failingStore{}, file)
	loaded, err := fresh.LoadParameters(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, []string{"EPL", "Serie_A"}, fresh.Engine().FittedLeagues())
}

func TestLoadParametersNotFound(t *testing.T) {
	svc := newAnalysis(t, nil, failingStore{})
	_, err := svc.LoadParameters(context.Background())
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = newAnalysis(t, nil).LoadParameters(context.Background())
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = newAnalysis(t, nil).Refit(context.Background(), nil)
	assert.Error(t, err)
}

func TestAnalyzeRecordAndCalibrate(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)
	svc := newAnalysis(t, repos)
	svc.Engine().SetFit(eplFit(t))

	kickoff := time.Date(2024, 6, 8, 15, 0, 0, 0, time.UTC)
	fixtures := []models.Fixture{
		{Date: kickoff, League: "EPL", Home: "Arsenal", Away: "Burnley", Odds: models.OddsQuote{
			models.MarketHome: 1.50, // p(home) is above 0.8
			models.MarketAway: 7.50, // beyond max odds
		}},
		{Date: kickoff, League: "EPL", Home: "Arsenal", Away: "Real Madrid"},
		{Date: kickoff, League: "EPL", Home: "Chelsea", Away: "Chelsea"},
	}

	out, err := svc.Analyze(ctx, fixtures, 1000, true)
	require.NoError(t, err)

	require.Len(t, out.Fixtures, 1)
	require.Len(t, out.Skipped, 2)
	assert.Contains(t, out.Skipped[0].Reason, "unknown team")
	assert.Contains(t, out.Skipped[1].Reason, "invalid fixture")

	fa := out.Fixtures[0]
	assert.Equal(t, models.SourceFitted, fa.Prediction.Source)
	assert.Greater(t, fa.Prediction.HomeWin, 0.75)
	require.Len(t, fa.Candidates, 1)
	assert.Equal(t, models.MarketHome, fa.Candidates[0].Market)

	require.Len(t, out.Plan.Bets, 1)
	assert.Equal(t, "100.00", out.Plan.Bets[0].Stake.StringFixed(2))
	assert.Equal(t, 1, out.Recorded)

	// nothing resolved yet
	report, err := svc.Calibrate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, report.N)

	ingest := NewIngestionService(repos.Matches, NewDataValidator(quietLogger()), NewDataNormalizer(nil, quietLogger()), quietLogger())
	_, err = ingest.Import(ctx, []models.MatchRecord{{
		Date: kickoff, League: "EPL", Home: "Arsenal", Away: "Burnley",
		HomeGoals: intp(3), AwayGoals: intp(0), Status: models.MatchStatusFinished,
	}})
	require.NoError(t, err)

	report, err = svc.Calibrate(ctx, "EPL")
	require.NoError(t, err)
	assert.Equal(t, 1, report.N)
	assert.Less(t, report.Brier, 0.1)
	assert.Contains(t, report.MarketBrier, models.MarketOver25)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalMatches)
	assert.Equal(t, 1, summary.FinishedMatches)
	assert.Equal(t, 1, summary.Predictions)
}

func TestAnalyzeWithoutRecording(t *testing.T) {
	svc := newAnalysis(t, nil)
	svc.Engine().SetFit(eplFit(t))

	out, err := svc.Analyze(context.Background(), []models.Fixture{
		{League: "EPL", Home: "Chelsea", Away: "Burnley", Odds: models.OddsQuote{models.MarketDraw: 3.0}},
	}, 500, false)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Recorded)
	assert.Len(t, out.Fixtures, 1)
	assert.NotNil(t, out.Plan)

	_, err = svc.Analyze(context.Background(), nil, 500, true)
	assert.Error(t, err)

	_, err = svc.Calibrate(context.Background(), "")
	assert.Error(t, err)
}
