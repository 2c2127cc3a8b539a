package database

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS matches (
		id          BIGSERIAL PRIMARY KEY,
		match_date  DATE NOT NULL,
		league      TEXT NOT NULL,
		home_team   TEXT NOT NULL,
		away_team   TEXT NOT NULL,
		home_goals  INTEGER,
		away_goals  INTEGER,
		status      TEXT NOT NULL DEFAULT 'scheduled',
		source      TEXT NOT NULL DEFAULT '',
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (match_date, league, home_team, away_team)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_league_date ON matches (league, match_date)`,
	`CREATE TABLE IF NOT EXISTS predictions (
		id          UUID PRIMARY KEY,
		match_id    BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		home_xg     DOUBLE PRECISION NOT NULL,
		away_xg     DOUBLE PRECISION NOT NULL,
		home_win    DOUBLE PRECISION NOT NULL,
		draw        DOUBLE PRECISION NOT NULL,
		away_win    DOUBLE PRECISION NOT NULL,
		over25      DOUBLE PRECISION,
		btts        DOUBLE PRECISION,
		source      TEXT NOT NULL,
		bet_market  TEXT,
		bet_odds    DOUBLE PRECISION,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_match ON predictions (match_id)`,
	`CREATE TABLE IF NOT EXISTS fit_parameters (
		run_id          UUID PRIMARY KEY,
		league          TEXT NOT NULL,
		fitted_at       TIMESTAMPTZ NOT NULL,
		converged       BOOLEAN NOT NULL,
		n_matches       INTEGER NOT NULL,
		log_likelihood  DOUBLE PRECISION NOT NULL,
		payload         JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fit_parameters_league ON fit_parameters (league, fitted_at DESC)`,
}

// Dates are stored as ISO-8601 text and timestamps as RFC 3339 text.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS matches (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		match_date  TEXT NOT NULL,
		league      TEXT NOT NULL,
		home_team   TEXT NOT NULL,
		away_team   TEXT NOT NULL,
		home_goals  INTEGER,
		away_goals  INTEGER,
		status      TEXT NOT NULL DEFAULT 'scheduled',
		source      TEXT NOT NULL DEFAULT '',
		updated_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (match_date, league, home_team, away_team)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_league_date ON matches (league, match_date)`,
	`CREATE TABLE IF NOT EXISTS predictions (
		id          TEXT PRIMARY KEY,
		match_id    INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		home_xg     REAL NOT NULL,
		away_xg     REAL NOT NULL,
		home_win    REAL NOT NULL,
		draw        REAL NOT NULL,
		away_win    REAL NOT NULL,
		over25      REAL,
		btts        REAL,
		source      TEXT NOT NULL,
		bet_market  TEXT,
		bet_odds    REAL,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_match ON predictions (match_id)`,
	`CREATE TABLE IF NOT EXISTS fit_parameters (
		run_id          TEXT PRIMARY KEY,
		league          TEXT NOT NULL,
		fitted_at       TEXT NOT NULL,
		converged       INTEGER NOT NULL,
		n_matches       INTEGER NOT NULL,
		log_likelihood  REAL NOT NULL,
		payload         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fit_parameters_league ON fit_parameters (league, fitted_at)`,
}
