package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-goals/internal/database"
	"github.com/yourusername/clever-goals/internal/models"
)

func setupRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewSQLiteRepositories(database.SetupTestDB(t))
	require.NoError(t, err)
	return repos
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func finished(date time.Time, league, home, away string, hg, ag int) *models.MatchRecord {
	return &models.MatchRecord{
		Date: date, League: league, Home: home, Away: away,
		HomeGoals: &hg, AwayGoals: &ag, Status: models.MatchStatusFinished, Source: "test",
	}
}

func TestNewRepositoriesRequiresDB(t *testing.T) {
	_, err := NewSQLiteRepositories(nil)
	assert.Error(t, err)
	_, err = NewPostgresRepositories(nil)
	assert.Error(t, err)
}

func TestMatchUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	scheduled := &models.MatchRecord{Date: day(5), League: "EPL", Home: "Arsenal", Away: "Chelsea"}
	id, err := repos.Matches.Upsert(ctx, scheduled)
	require.NoError(t, err)
	assert.Equal(t, id, scheduled.ID)

	// result arrives for the same key
	id2, err := repos.Matches.Upsert(ctx, finished(day(5), "EPL", "Arsenal", "Chelsea", 2, 1))
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	// a late scheduled re-import keeps the result
	_, err = repos.Matches.Upsert(ctx, &models.MatchRecord{Date: day(5), League: "EPL", Home: "Arsenal", Away: "Chelsea", Status: models.MatchStatusScheduled})
	require.NoError(t, err)

	m, err := repos.Matches.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, m.IsComplete())
	assert.Equal(t, "H", m.Outcome())
	assert.Equal(t, "test", m.Source)
	assert.True(t, day(5).Equal(m.Date))
}

func TestFinishedMatchesFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	for _, m := range []*models.MatchRecord{
		finished(day(9), "EPL", "A", "B", 1, 0),
		finished(day(2), "EPL", "C", "D", 0, 0),
		finished(day(3), "La_Liga", "E", "F", 2, 2),
		{Date: day(10), League: "EPL", Home: "A", Away: "C", Status: models.MatchStatusScheduled},
	} {
		_, err := repos.Matches.Upsert(ctx, m)
		require.NoError(t, err)
	}

	all, err := repos.Matches.FinishedMatches(ctx, "EPL", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "C", all[0].Home)
	assert.Equal(t, "A", all[1].Home)

	since := day(5)
	recent, err := repos.Matches.FinishedMatches(ctx, "EPL", &since)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "A", recent[0].Home)

	leagues, err := repos.Matches.Leagues(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EPL", "La_Liga"}, leagues)

	teams, err := repos.Matches.TeamsInLeague(ctx, "EPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, teams)
}

func TestUpdateResult(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	id, err := repos.Matches.Upsert(ctx, &models.MatchRecord{Date: day(1), League: "EPL", Home: "A", Away: "B"})
	require.NoError(t, err)

	require.NoError(t, repos.Matches.UpdateResult(ctx, id, 0, 3))
	m, err := repos.Matches.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "A", m.Outcome())

	assert.True(t, errors.Is(repos.Matches.UpdateResult(ctx, 999, 1, 1), models.ErrNotFound))
	_, err = repos.Matches.GetByID(ctx, 999)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestPredictionsWithResultsAndSummary(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	played, err := repos.Matches.Upsert(ctx, finished(day(1), "EPL", "A", "B", 1, 1))
	require.NoError(t, err)
	pending, err := repos.Matches.Upsert(ctx, &models.MatchRecord{Date: day(20), League: "EPL", Home: "C", Away: "D"})
	require.NoError(t, err)

	market := models.MarketDraw
	odds := 3.4
	snap := &models.PredictionSnapshot{
		MatchID: played, HomeXG: 1.3, AwayXG: 1.1, HomeWin: 0.4, Draw: 0.3, AwayWin: 0.3,
		Over25: 0.45, BTTS: 0.5, Source: models.SourceFitted, BetMarket: &market, BetOdds: &odds,
	}
	require.NoError(t, repos.Predictions.Record(ctx, snap))
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", snap.ID.String())
	require.NoError(t, repos.Predictions.Record(ctx, &models.PredictionSnapshot{
		MatchID: pending, HomeWin: 0.5, Draw: 0.3, AwayWin: 0.2, Source: models.SourceXG,
	}))

	resolved, err := repos.Predictions.WithResults(ctx, "")
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, 1, resolved[0].HomeGoals)
	assert.InDelta(t, 0.3, resolved[0].Draw, 1e-12)
	require.NotNil(t, resolved[0].Over25)
	assert.InDelta(t, 0.45, *resolved[0].Over25, 1e-12)

	other, err := repos.Predictions.WithResults(ctx, "La_Liga")
	require.NoError(t, err)
	assert.Empty(t, other)

	summary, err := repos.Matches.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalMatches)
	assert.Equal(t, 1, summary.FinishedMatches)
	assert.Equal(t, 2, summary.Predictions)
	assert.Equal(t, []string{"EPL"}, summary.Leagues)
}

func TestFitRepositoryKeepsLatest(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)

	_, err := repos.Fits.Load(ctx)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	fit := func(league string, ha float64, at time.Time) *models.LeagueFitParameters {
		p, err := models.NewLeagueFitParameters(league,
			map[string]float64{"A": 1.2, "B": 0.8},
			map[string]float64{"A": 0.9, "B": 1.1},
			ha, -0.05, 100, -200, at)
		require.NoError(t, err)
		return p
	}

	require.NoError(t, repos.Fits.Save(ctx, map[string]*models.LeagueFitParameters{
		"EPL":     fit("EPL", 1.10, day(1)),
		"La_Liga": fit("La_Liga", 1.20, day(1)),
	}))
	require.NoError(t, repos.Fits.Save(ctx, map[string]*models.LeagueFitParameters{
		"EPL": fit("EPL", 1.30, day(8)),
	}))

	latest, err := repos.Fits.Latest(ctx, "EPL")
	require.NoError(t, err)
	assert.InDelta(t, 1.30, latest.HomeAdvantage, 1e-12)

	all, err := repos.Fits.Load(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.InDelta(t, 1.30, all["EPL"].HomeAdvantage, 1e-12)
	assert.InDelta(t, 1.20, all["La_Liga"].HomeAdvantage, 1e-12)

	_, err = repos.Fits.Latest(ctx, "Serie_A")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
