package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-goals/internal/models"
)

func TestImportCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	repos := setupRepos(t)
	ingest := NewIngestionService(repos.Matches, NewDataValidator(quietLogger()), NewDataNormalizer(nil, quietLogger()), quietLogger())

	date := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	m, err := ingest.Import(ctx, []models.MatchRecord{
		{Date: date, League: "EPL", Home: "Arsenal", Away: "Chelsea", HomeGoals: intp(1), AwayGoals: intp(0)},
		{Date: date, League: "EPL", Home: "Burnley", Away: "Fulham"},
		{Date: date, League: "EPL", Home: "Spurs", Away: "Spurs"},
		// re-import of the first match is an upsert, not a duplicate row
		{Date: date, League: "EPL", Home: " Arsenal ", Away: "Chelsea", HomeGoals: intp(1), AwayGoals: intp(0)},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, m.TotalMatches)
	assert.Equal(t, 3, m.Imported)
	assert.Equal(t, 2, m.Finished)
	assert.Equal(t, 1, m.ValidationErrors)
	assert.Contains(t, m.String(), "Imported=3")

	summary, err := repos.Matches.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalMatches)
	assert.Equal(t, 1, summary.FinishedMatches)
}

func TestImportStopsOnCancel(t *testing.T) {
	repos := setupRepos(t)
	ingest := NewIngestionService(repos.Matches, NewDataValidator(quietLogger()), NewDataNormalizer(nil, quietLogger()), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := ingest.Import(ctx, []models.MatchRecord{{League: "EPL", Home: "A", Away: "B"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.TotalMatches)
}
