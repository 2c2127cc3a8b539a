package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordFit(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(FitsTotal.WithLabelValues("TEST_FIT", "converged"))
	RecordFit("TEST_FIT", true, 0.4, -512.3, 1.21, -0.07)

	assert.Equal(t, before+1, testutil.ToFloat64(FitsTotal.WithLabelValues("TEST_FIT", "converged")))
	assert.Equal(t, -512.3, testutil.ToFloat64(FitLogLikelihood.WithLabelValues("TEST_FIT")))
	assert.Equal(t, 1.21, testutil.ToFloat64(FitHomeAdvantage.WithLabelValues("TEST_FIT")))
	assert.Equal(t, -0.07, testutil.ToFloat64(FitRho.WithLabelValues("TEST_FIT")))

	RecordFit("TEST_FIT", false, 0.4, -500, 1.2, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(FitsTotal.WithLabelValues("TEST_FIT", "not_converged")))
}

func TestRecordCounters(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{
			name:   "fit skipped",
			record: func() { RecordFitSkipped("TEST_SKIP", "insufficient_data") },
			read:   func() float64 { return testutil.ToFloat64(FitsTotal.WithLabelValues("TEST_SKIP", "insufficient_data")) },
		},
		{
			name:   "prediction",
			record: func() { RecordPrediction("xg") },
			read:   func() float64 { return testutil.ToFloat64(PredictionsTotal.WithLabelValues("xg")) },
		},
		{
			name:   "value bet",
			record: func() { RecordValueBet("btts_yes", 0.12) },
			read:   func() float64 { return testutil.ToFloat64(ValueBetsTotal.WithLabelValues("btts_yes")) },
		},
		{
			name:   "plan decision",
			record: func() { RecordPlanDecision("accepted") },
			read:   func() float64 { return testutil.ToFloat64(PlanDecisionsTotal.WithLabelValues("accepted")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.read()
			tt.record()
			assert.Equal(t, before+1, tt.read())
		})
	}
}

func TestUpdateGauges(t *testing.T) {
	InitRegistry()

	UpdatePlannedStake(42.5)
	UpdateRatingCacheHitRatio(0.75)
	UpdateCalibration(0.19, 0.98)

	assert.Equal(t, 42.5, testutil.ToFloat64(PlannedStake))
	assert.Equal(t, 0.75, testutil.ToFloat64(RatingCacheHitRatio))
	assert.Equal(t, 0.19, testutil.ToFloat64(CalibrationBrier))
	assert.Equal(t, 0.98, testutil.ToFloat64(CalibrationLogLoss))
}

func TestHandler(t *testing.T) {
	RecordPrediction("fitted")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "clever_goals_predictions_total"))
}
