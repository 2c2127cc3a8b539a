package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-goals/internal/models"
	"github.com/yourusername/clever-goals/internal/prediction"
	"github.com/yourusername/clever-goals/internal/service"
	"github.com/yourusername/clever-goals/internal/valuebet"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func newTestServer(t *testing.T, db DatabasePinger) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	params, err := models.NewLeagueFitParameters("EPL",
		map[string]float64{"Arsenal": 1.4, "Chelsea": 1.0, "Burnley": 0.6},
		map[string]float64{"Arsenal": 0.7, "Chelsea": 1.0, "Burnley": 1.4},
		1.25, -0.08, 380, -1000, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	engine := prediction.NewEngine(nil, prediction.DefaultFallbackRho, log)
	engine.SetFit(params)

	analysis := service.NewAnalysisService(service.AnalysisDeps{
		Engine:   engine,
		Strategy: valuebet.DefaultStrategy(),
	}, 5, log)

	return NewServer(Config{
		ServiceName: "clever-goals",
		Version:     "test",
		MetricsPath: "/metrics",
		Bankroll:    1000,
		Logger:      log,
		DB:          db,
		Analysis:    analysis,
	})
}

func serve(s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/health", "/live"} {
		rec := serve(s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "clever-goals", resp.Service)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		db         DatabasePinger
		wantStatus int
		wantDB     string
	}{
		{"not ready", false, nil, http.StatusServiceUnavailable, ""},
		{"ready without db", true, nil, http.StatusOK, ""},
		{"ready with healthy db", true, &mockPinger{}, http.StatusOK, "ok"},
		{"db failing", true, &mockPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "error: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.db)
			s.SetReady(tt.ready)

			rec := serve(s, http.MethodGet, "/ready", nil)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ReadyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "1 leagues", resp.Checks["parameters"])
			if tt.wantDB != "" {
				assert.Equal(t, tt.wantDB, resp.Checks["database"])
			}
		})
	}
}

func TestParamsEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, http.MethodGet, "/api/v1/params", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ParamsSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "EPL", list[0].League)
	assert.Equal(t, 3, list[0].Teams)
	assert.Equal(t, -0.08, list[0].Rho)

	rec = serve(s, http.MethodGet, "/api/v1/params/EPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var params models.LeagueFitParameters
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &params))
	assert.InDelta(t, 1.4, params.Attacks["Arsenal"], 1e-12)

	rec = serve(s, http.MethodGet, "/api/v1/params/La_Liga", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredictEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, http.MethodGet, "/api/v1/predict?league=EPL&home=Arsenal&away=Burnley", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pred models.MatchPrediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pred))
	assert.Equal(t, models.SourceFitted, pred.Source)
	assert.InDelta(t, 1.0, pred.HomeWin+pred.Draw+pred.AwayWin, 1e-9)

	rec = serve(s, http.MethodGet, "/api/v1/predict?league=EPL&home=Arsenal&away=Real+Madrid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodGet, "/api/v1/predict?league=EPL&home=Arsenal", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValueEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	body, err := json.Marshal(ValueRequest{Fixtures: []models.Fixture{{
		League: "EPL", Home: "Arsenal", Away: "Burnley",
		Odds: models.OddsQuote{models.MarketHome: 1.50},
	}}})
	require.NoError(t, err)

	rec := serve(s, http.MethodPost, "/api/v1/value", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var out service.SlateAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Fixtures, 1)
	require.NotNil(t, out.Plan)
	require.Len(t, out.Plan.Bets, 1)
	assert.Equal(t, models.MarketHome, out.Plan.Bets[0].Candidate.Market)

	rec = serve(s, http.MethodPost, "/api/v1/value", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndpointsWithoutHistory(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, http.MethodGet, "/api/v1/calibration", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(s, http.MethodGet, "/api/v1/history", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(s, http.MethodPost, "/api/v1/refit", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsAndMethodRouting(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerStartAndShutdown(t *testing.T) {
	s := newTestServer(t, nil)
	s.port = 0

	require.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Shutdown())
}
