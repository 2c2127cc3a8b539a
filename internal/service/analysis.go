// Package service wires fitting, prediction, value selection and calibration
// into the workflows run by the CLI, the scheduler and the API.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-goals/internal/calibration"
	"github.com/yourusername/clever-goals/internal/fitter"
	"github.com/yourusername/clever-goals/internal/logger"
	"github.com/yourusername/clever-goals/internal/metrics"
	"github.com/yourusername/clever-goals/internal/models"
	"github.com/yourusername/clever-goals/internal/paramstore"
	"github.com/yourusername/clever-goals/internal/prediction"
	"github.com/yourusername/clever-goals/internal/repository"
	"github.com/yourusername/clever-goals/internal/valuebet"
)

// AnalysisDeps are the collaborators of an AnalysisService. Fitter, Matches
// and Predictions may be nil for read-only use.
type AnalysisDeps struct {
	Fitter      *fitter.Fitter
	Engine      *prediction.Engine
	Strategy    valuebet.Strategy
	Matches     repository.MatchRepository
	Predictions repository.PredictionRepository
	// Stores receive every refit; the first that loads wins on startup.
	Stores     []paramstore.Store
	Normalizer *DataNormalizer
	Validator  *DataValidator
}

// FixtureAnalysis is the prediction and value bets of one slate entry
type FixtureAnalysis struct {
	Fixture    models.Fixture             `json:"fixture"`
	Prediction *models.MatchPrediction    `json:"prediction"`
	Candidates []models.ValueBetCandidate `json:"value_bets"`
}

// SkippedFixture is a slate entry that could not be priced
type SkippedFixture struct {
	Fixture models.Fixture `json:"fixture"`
	Reason  string         `json:"reason"`
}

// SlateAnalysis is the outcome of analysing a slate of fixtures
type SlateAnalysis struct {
	RunID    uuid.UUID         `json:"run_id"`
	Fixtures []FixtureAnalysis `json:"fixtures"`
	Skipped  []SkippedFixture  `json:"skipped,omitempty"`
	Plan     *models.BetPlan   `json:"plan"`
	Recorded int               `json:"recorded"`
}

// AnalysisService runs the model workflows
type AnalysisService struct {
	deps     AnalysisDeps
	planner  *valuebet.Planner
	bins     int
	logger   *logrus.Logger
	modelLog *logger.ModelLogger
	now      func() time.Time
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(deps AnalysisDeps, calibrationBins int, log *logrus.Logger) *AnalysisService {
	if deps.Normalizer == nil {
		deps.Normalizer = NewDataNormalizer(nil, log)
	}
	if deps.Validator == nil {
		deps.Validator = NewDataValidator(log)
	}
	return &AnalysisService{
		deps:     deps,
		planner:  valuebet.NewPlanner(deps.Strategy, log),
		bins:     calibrationBins,
		logger:   log,
		modelLog: logger.NewModelLogger(log),
		now:      time.Now,
	}
}

// Engine returns the prediction engine
func (s *AnalysisService) Engine() *prediction.Engine {
	return s.deps.Engine
}

// LoadParameters installs the first parameter set any store can load.
func (s *AnalysisService) LoadParameters(ctx context.Context) (map[string]*models.LeagueFitParameters, error) {
	var errs []error
	for _, store := range s.deps.Stores {
		params, err := store.Load(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.deps.Engine.SetFits(params)
		s.logger.WithFields(logrus.Fields{
			"leagues": paramstore.Leagues(params),
			"store":   fmt.Sprintf("%T", store),
		}).Info("Loaded fitted parameters")
		return params, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no parameter store configured", models.ErrNotFound)
	}
	return nil, fmt.Errorf("%w: %v", models.ErrNotFound, errors.Join(errs...))
}

// Refit fits the leagues, installs every successful fit in the engine and
// persists the engine's full parameter set. Leagues that fail keep their
// previous parameters.
func (s *AnalysisService) Refit(ctx context.Context, leagues []string) (*fitter.FitReport, error) {
	if s.deps.Fitter == nil {
		return nil, fmt.Errorf("refit requires a match history")
	}

	report, err := s.deps.Fitter.FitAll(ctx, leagues)
	if report == nil {
		return nil, err
	}

	for _, league := range paramstore.Leagues(report.Params) {
		s.deps.Engine.SetFit(report.Params[league])
	}
	for league, ferr := range report.Failed {
		s.logger.WithError(ferr).WithField("league", league).Warn("League fit failed, keeping previous parameters")
	}
	if err != nil {
		return report, err
	}

	if len(report.Params) == 0 {
		return report, nil
	}
	return report, s.persist(ctx)
}

func (s *AnalysisService) persist(ctx context.Context) error {
	current := make(map[string]*models.LeagueFitParameters)
	for _, league := range s.deps.Engine.FittedLeagues() {
		if p, ok := s.deps.Engine.Fit(league); ok {
			current[league] = p
		}
	}

	var errs []error
	for _, store := range s.deps.Stores {
		if err := store.Save(ctx, current); err != nil {
			s.logger.WithError(err).WithField("store", fmt.Sprintf("%T", store)).Error("Failed to persist parameters")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Analyze prices every fixture, selects value bets and plans stakes against
// the bankroll. With record set, each priced fixture and its prediction are
// stored for later calibration.
func (s *AnalysisService) Analyze(ctx context.Context, fixtures []models.Fixture, bankroll float64, record bool) (*SlateAnalysis, error) {
	out := &SlateAnalysis{RunID: uuid.New()}
	var slate []valuebet.MatchCandidates

	for _, raw := range fixtures {
		f := s.deps.Normalizer.NormalizeFixture(raw)
		if errs := s.deps.Validator.ValidateFixture(&f); len(errs) > 0 {
			out.Skipped = append(out.Skipped, SkippedFixture{Fixture: f, Reason: fmt.Sprintf("invalid fixture: %v", errs)})
			continue
		}

		pred, err := s.deps.Engine.PredictMatch(f.League, f.Home, f.Away)
		if err != nil {
			out.Skipped = append(out.Skipped, SkippedFixture{Fixture: f, Reason: err.Error()})
			continue
		}

		candidates := valuebet.FindValueBets(pred, f.Odds, s.deps.Strategy)
		out.Fixtures = append(out.Fixtures, FixtureAnalysis{Fixture: f, Prediction: pred, Candidates: candidates})
		slate = append(slate, valuebet.MatchCandidates{
			MatchKey:   f.Key(),
			League:     f.League,
			Home:       f.Home,
			Away:       f.Away,
			Candidates: candidates,
		})
	}

	out.Plan = s.planner.Plan(bankroll, slate)

	s.logger.WithFields(logrus.Fields{
		"run_id":   out.RunID,
		"fixtures": len(fixtures),
		"priced":   len(out.Fixtures),
		"skipped":  len(out.Skipped),
		"bets":     len(out.Plan.Bets),
	}).Info("Slate analysed")

	if !record {
		return out, nil
	}
	n, err := s.record(ctx, out)
	out.Recorded = n
	return out, err
}

func (s *AnalysisService) record(ctx context.Context, a *SlateAnalysis) (int, error) {
	if s.deps.Matches == nil || s.deps.Predictions == nil {
		return 0, fmt.Errorf("recording requires a match history")
	}

	// Bets are in EV order, so the first per match is its best.
	best := make(map[string]models.PlannedBet)
	for _, b := range a.Plan.Bets {
		if _, ok := best[b.MatchKey]; !ok {
			best[b.MatchKey] = b
		}
	}

	recorded := 0
	var errs []error
	for _, fa := range a.Fixtures {
		f := fa.Fixture
		date := f.Date
		if date.IsZero() {
			date = NormalizeDate(s.now())
		}

		matchID, err := s.deps.Matches.Upsert(ctx, &models.MatchRecord{
			Date:   date,
			League: f.League,
			Home:   f.Home,
			Away:   f.Away,
			Status: models.MatchStatusScheduled,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Key(), err))
			continue
		}

		snap := fa.Prediction.Snapshot(matchID)
		if bet, ok := best[f.Key()]; ok {
			market, odds := bet.Candidate.Market, bet.Candidate.Odds
			snap.BetMarket = &market
			snap.BetOdds = &odds
		}
		if err := s.deps.Predictions.Record(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Key(), err))
			continue
		}
		recorded++
	}

	if len(errs) > 0 {
		s.logger.WithField("failed", len(errs)).Error("Failed to record some predictions")
	}
	return recorded, errors.Join(errs...)
}

// Calibrate scores stored predictions against results. An empty league
// covers every league.
func (s *AnalysisService) Calibrate(ctx context.Context, league string) (*models.CalibrationReport, error) {
	if s.deps.Predictions == nil {
		return nil, fmt.Errorf("calibration requires a match history")
	}

	resolved, err := s.deps.Predictions.WithResults(ctx, league)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolved predictions: %w", err)
	}

	report := calibration.Evaluate(resolved, s.bins)
	if report.N > 0 {
		s.modelLog.LogCalibration(report.N, report.Brier, report.LogLoss)
		metrics.UpdateCalibration(report.Brier, report.LogLoss)
	}
	return report, nil
}

// Summary describes the match history
func (s *AnalysisService) Summary(ctx context.Context) (*models.HistorySummary, error) {
	if s.deps.Matches == nil {
		return nil, fmt.Errorf("summary requires a match history")
	}
	return s.deps.Matches.Summary(ctx)
}
