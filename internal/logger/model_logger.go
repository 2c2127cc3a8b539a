package logger

import (
	"github.com/sirupsen/logrus"
)

// ModelLogger provides dedicated logging for model fitting and prediction.
type ModelLogger struct {
	*logrus.Entry
}

// NewModelLogger creates a new model logger.
func NewModelLogger(baseLogger *logrus.Logger) *ModelLogger {
	return &ModelLogger{
		Entry: baseLogger.WithField("component", "model"),
	}
}

// LogFitCompleted logs a finished league fit.
func (ml *ModelLogger) LogFitCompleted(league string, teams, matches, iterations int, homeAdvantage, rho, logLikelihood float64, converged bool, durationMs float64) {
	ml.WithFields(logrus.Fields{
		"league":         league,
		"teams":          teams,
		"matches":        matches,
		"iterations":     iterations,
		"home_advantage": homeAdvantage,
		"rho":            rho,
		"log_likelihood": logLikelihood,
		"converged":      converged,
		"duration_ms":    durationMs,
	}).Info("League fit completed")
}

// LogFitWarning logs a fit that did not converge cleanly.
func (ml *ModelLogger) LogFitWarning(league, warning string) {
	ml.WithFields(logrus.Fields{
		"league":  league,
		"warning": warning,
	}).Warn("League fit did not converge")
}

// LogFitSkipped logs a league that could not be fitted.
func (ml *ModelLogger) LogFitSkipped(league string, matches, required int, reason string) {
	ml.WithFields(logrus.Fields{
		"league":   league,
		"matches":  matches,
		"required": required,
		"reason":   reason,
	}).Warn("League fit skipped")
}

// LogTopTeams logs the strongest attacks and meanest defenses of a fit.
func (ml *ModelLogger) LogTopTeams(league string, topAttack, bestDefense []string) {
	ml.WithFields(logrus.Fields{
		"league":       league,
		"top_attack":   topAttack,
		"best_defense": bestDefense,
	}).Info("League fit leaders")
}

// LogPrediction logs a match prediction.
func (ml *ModelLogger) LogPrediction(league, home, away, source string, homeXG, awayXG, homeWin, draw, awayWin float64) {
	ml.WithFields(logrus.Fields{
		"league":   league,
		"home":     home,
		"away":     away,
		"source":   source,
		"home_xg":  homeXG,
		"away_xg":  awayXG,
		"home_win": homeWin,
		"draw":     draw,
		"away_win": awayWin,
	}).Debug("Match predicted")
}

// LogStakeDecision logs the planner's decision for one candidate.
func (ml *ModelLogger) LogStakeDecision(matchKey, market, decision, reason string, odds, ev, stake float64) {
	ml.WithFields(logrus.Fields{
		"match":    matchKey,
		"market":   market,
		"decision": decision,
		"reason":   reason,
		"odds":     odds,
		"ev":       ev,
		"stake":    stake,
	}).Info("Stake decision made")
}

// LogPlanSummary logs the totals of a stake plan.
func (ml *ModelLogger) LogPlanSummary(bets, rejected int, totalStake, dailyCap float64) {
	ml.WithFields(logrus.Fields{
		"bets":        bets,
		"rejected":    rejected,
		"total_stake": totalStake,
		"daily_cap":   dailyCap,
	}).Info("Stake plan built")
}

// LogCalibration logs calibration scores.
func (ml *ModelLogger) LogCalibration(n int, brier, logLoss float64) {
	ml.WithFields(logrus.Fields{
		"predictions": n,
		"brier":       brier,
		"log_loss":    logLoss,
	}).Info("Calibration evaluated")
}
