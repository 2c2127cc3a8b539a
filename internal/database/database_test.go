package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	db := SetupTestDB(t)

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"fit_parameters", "matches", "predictions"}, tables)
}

func TestOpenSQLiteFileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "matches.db")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO matches (match_date, league, home_team, away_team) VALUES ('2024-01-01', 'EPL', 'A', 'B')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenSQLiteEnforcesForeignKeys(t *testing.T) {
	db := SetupTestDB(t)

	_, err := db.Exec(`INSERT INTO predictions (id, match_id, home_xg, away_xg, home_win, draw, away_win, source, created_at)
		VALUES ('x', 999, 1, 1, 0.4, 0.3, 0.3, 'xg', '2024-01-01T00:00:00Z')`)
	assert.Error(t, err)
}
