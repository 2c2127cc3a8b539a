package paramstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-goals/internal/models"
)

func sampleParams(t *testing.T) map[string]*models.LeagueFitParameters {
	t.Helper()
	epl, err := models.NewLeagueFitParameters("EPL",
		map[string]float64{"Arsenal": 1.3, "Burnley": 0.7},
		map[string]float64{"Arsenal": 0.8, "Burnley": 1.2},
		1.2, -0.07, 120, -350.5, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	epl.Iterations = 42

	liga, err := models.NewLeagueFitParameters("La_Liga",
		map[string]float64{"Sevilla": 1.1, "Betis": 0.9},
		map[string]float64{"Sevilla": 0.9, "Betis": 1.1},
		1.1, 0.02, 90, -260, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	liga.Converged = false
	liga.Warning = "optimizer stopped"

	return map[string]*models.LeagueFitParameters{"EPL": epl, "La_Liga": liga}
}

func TestCodecPreservesFields(t *testing.T) {
	params := sampleParams(t)

	data, err := Encode(params)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	epl := got["EPL"]
	assert.Equal(t, params["EPL"].RunID, epl.RunID)
	assert.Equal(t, params["EPL"].Attacks, epl.Attacks)
	assert.Equal(t, 42, epl.Iterations)
	assert.True(t, params["EPL"].FittedAt.Equal(epl.FittedAt))

	assert.False(t, got["La_Liga"].Converged)
	assert.Equal(t, "optimizer stopped", got["La_Liga"].Warning)
	assert.Equal(t, []string{"EPL", "La_Liga"}, Leagues(got))
}

func TestEncodeRejectsMismatchedKey(t *testing.T) {
	params := sampleParams(t)
	_, err := Encode(map[string]*models.LeagueFitParameters{"Serie_A": params["EPL"]})
	assert.True(t, errors.Is(err, models.ErrInvalidParameters))
}

func TestDecodeValidates(t *testing.T) {
	_, err := Decode([]byte(`{"EPL":{"league":"EPL","attack":{"A":1},"defense":{"A":1},"home_advantage":-1,"rho":0}}`))
	assert.True(t, errors.Is(err, models.ErrInvalidParameters))

	_, err = Decode([]byte(`{"EPL":{"league":"EPL","attack":{"A":1},"defense":{"A":1},"home_advantage":1.1,"rho":0.9}}`))
	assert.True(t, errors.Is(err, models.ErrInvalidParameters))

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	got, err := Decode([]byte(`{"EPL":{"attack":{"A":1,"B":1},"defense":{"A":1,"B":1},"home_advantage":1.1,"rho":0}}`))
	require.NoError(t, err)
	assert.Equal(t, "EPL", got["EPL"].League)
	assert.Equal(t, 2, got["EPL"].NTeams)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "params.json")
	store := NewFileStore(path)

	_, err := store.Load(ctx)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	params := sampleParams(t)
	require.NoError(t, store.Save(ctx, params))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, params["La_Liga"].Defenses, got["La_Liga"].Defenses)

	// overwrite leaves no temp files behind
	delete(params, "La_Liga")
	require.NoError(t, store.Save(ctx, params))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRedisStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisStore(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestRedisStoreKeys(t *testing.T) {
	s := NewRedisStoreWithClient(nil, "cg", time.Hour)
	assert.Equal(t, "cg:params", s.allKey())
	assert.Equal(t, "cg:params:EPL", s.leagueKey("EPL"))
	assert.Equal(t, "params", NewRedisStoreWithClient(nil, "", 0).allKey())
}
