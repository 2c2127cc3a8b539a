// Package metrics provides the centralized Prometheus metrics registry.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clever_goals"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	FitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fits_total",
		Help:      "Total number of league fits by outcome",
	}, []string{"league", "outcome"})
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of match predictions by rating source",
	}, []string{"source"})
	ValueBetsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "value_bets_total",
		Help:      "Total number of value-bet candidates by market",
	}, []string{"market"})
	PlanDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plan_decisions_total",
		Help:      "Total number of stake plan decisions by outcome",
	}, []string{"outcome"})
	MatchesIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_ingested_total",
		Help:      "Total number of imported match records by outcome",
	}, []string{"outcome"})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of API requests by route and status code",
	}, []string{"route", "code"})
)

// Gauge metrics
var (
	FitLogLikelihood = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fit_log_likelihood",
		Help:      "Log-likelihood of the latest fit per league",
	}, []string{"league"})
	FitHomeAdvantage = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fit_home_advantage",
		Help:      "Fitted home advantage per league",
	}, []string{"league"})
	FitRho = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fit_rho",
		Help:      "Fitted low-score correlation per league",
	}, []string{"league"})
	PlannedStake = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "planned_stake",
		Help:      "Total stake of the latest bet plan in currency units",
	})
	RatingCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rating_cache_hit_ratio",
		Help:      "Hit ratio of the team rating cache",
	})
	CalibrationBrier = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "calibration_brier",
		Help:      "Multi-class Brier score of resolved predictions",
	})
	CalibrationLogLoss = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "calibration_log_loss",
		Help:      "Log-loss of resolved predictions",
	})
)

// Histogram metrics
var (
	FitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fit_duration_seconds",
		Help:      "Duration of league fits in seconds",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"league"})
	ValueBetEV = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "value_bet_ev",
		Help:      "Expected value of value-bet candidates",
		Buckets:   []float64{0.05, 0.1, 0.15, 0.2, 0.3, 0.5, 1},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(FitsTotal)
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(ValueBetsTotal)
		registry.MustRegister(PlanDecisionsTotal)
		registry.MustRegister(MatchesIngestedTotal)
		registry.MustRegister(APIRequestsTotal)

		registry.MustRegister(FitLogLikelihood)
		registry.MustRegister(FitHomeAdvantage)
		registry.MustRegister(FitRho)
		registry.MustRegister(PlannedStake)
		registry.MustRegister(RatingCacheHitRatio)
		registry.MustRegister(CalibrationBrier)
		registry.MustRegister(CalibrationLogLoss)

		registry.MustRegister(FitDuration)
		registry.MustRegister(ValueBetEV)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordFit records a completed league fit.
func RecordFit(league string, converged bool, durationSeconds, logLikelihood, homeAdvantage, rho float64) {
	outcome := "converged"
	if !converged {
		outcome = "not_converged"
	}
	FitsTotal.WithLabelValues(league, outcome).Inc()
	FitDuration.WithLabelValues(league).Observe(durationSeconds)
	FitLogLikelihood.WithLabelValues(league).Set(logLikelihood)
	FitHomeAdvantage.WithLabelValues(league).Set(homeAdvantage)
	FitRho.WithLabelValues(league).Set(rho)
}

// RecordFitSkipped records a fit that produced no parameters.
func RecordFitSkipped(league, reason string) {
	FitsTotal.WithLabelValues(league, reason).Inc()
}

// RecordPrediction records a prediction by rating source.
func RecordPrediction(source string) {
	PredictionsTotal.WithLabelValues(source).Inc()
}

// RecordValueBet records a value-bet candidate.
func RecordValueBet(market string, ev float64) {
	ValueBetsTotal.WithLabelValues(market).Inc()
	ValueBetEV.Observe(ev)
}

// RecordPlanDecision records an accepted or rejected stake.
func RecordPlanDecision(outcome string) {
	PlanDecisionsTotal.WithLabelValues(outcome).Inc()
}

// UpdatePlannedStake updates the planned stake gauge.
func UpdatePlannedStake(amount float64) {
	PlannedStake.Set(amount)
}

// UpdateRatingCacheHitRatio updates the rating cache hit ratio gauge.
func UpdateRatingCacheHitRatio(ratio float64) {
	RatingCacheHitRatio.Set(ratio)
}

// UpdateCalibration updates the calibration gauges.
func UpdateCalibration(brier, logLoss float64) {
	CalibrationBrier.Set(brier)
	CalibrationLogLoss.Set(logLoss)
}

// RecordAPIRequest records a served API request.
func RecordAPIRequest(route, code string) {
	APIRequestsTotal.WithLabelValues(route, code).Inc()
}

// RecordIngestion records the outcome of one imported match record
func RecordIngestion(outcome string) {
	MatchesIngestedTotal.WithLabelValues(outcome).Inc()
}
