package valuebet

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-goals/internal/logger"
	"github.com/yourusername/clever-goals/internal/metrics"
	"github.com/yourusername/clever-goals/internal/models"
)

// Rejection reasons reported on a plan.
const (
	ReasonBelowMinStake   = "below minimum stake"
	ReasonDailyCap        = "daily stake cap reached"
	ReasonDuplicateResult = "match already has a 1X2 bet"
)

// MatchCandidates are the value bets found for one fixture
type MatchCandidates struct {
	MatchKey   string
	League     string
	Home       string
	Away       string
	Candidates []models.ValueBetCandidate
}

// Planner turns value-bet candidates into a bankroll-constrained stake plan
type Planner struct {
	strategy Strategy
	log      *logger.ModelLogger
}

// NewPlanner creates a new planner
func NewPlanner(strategy Strategy, log *logrus.Logger) *Planner {
	return &Planner{
		strategy: strategy,
		log:      logger.NewModelLogger(log),
	}
}

type rankedCandidate struct {
	match     *MatchCandidates
	candidate models.ValueBetCandidate
}

// Plan accepts candidates greedily in descending EV order while the total
// stays within bankroll * MaxDailyStakePct. Stakes are rounded to cents.
func (p *Planner) Plan(bankroll float64, matches []MatchCandidates) *models.BetPlan {
	roll := decimal.NewFromFloat(bankroll)
	dailyCap := roll.Mul(decimal.NewFromFloat(p.strategy.MaxDailyStakePct)).Round(2)
	minStake := decimal.NewFromFloat(p.strategy.MinStake)

	var ranked []rankedCandidate
	for i := range matches {
		for _, c := range matches[i].Candidates {
			ranked = append(ranked, rankedCandidate{match: &matches[i], candidate: c})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].candidate.EV > ranked[j].candidate.EV
	})

	plan := &models.BetPlan{
		Bankroll:   roll,
		DailyCap:   dailyCap,
		TotalStake: decimal.Zero,
		Bets:       []models.PlannedBet{},
	}
	withResult := make(map[string]bool)

	for _, rc := range ranked {
		m, c := rc.match, rc.candidate
		stake := decimal.NewFromFloat(c.KellyStakeFraction).Mul(roll).Round(2)

		reason := ""
		duplicate := false
		if c.Market.IsMatchResult() {
			// only the best 1X2 market of a match is ever considered
			duplicate = withResult[m.MatchKey]
			withResult[m.MatchKey] = true
		}
		switch {
		case duplicate:
			reason = ReasonDuplicateResult
		case stake.LessThan(minStake) || !stake.IsPositive():
			reason = ReasonBelowMinStake
		case plan.TotalStake.Add(stake).GreaterThan(dailyCap):
			reason = ReasonDailyCap
		}

		if reason != "" {
			plan.Rejected = append(plan.Rejected, models.RejectedBet{
				MatchKey: m.MatchKey, Candidate: c, Stake: stake, Reason: reason,
			})
			p.log.LogStakeDecision(m.MatchKey, string(c.Market), "rejected", reason, c.Odds, c.EV, stake.InexactFloat64())
			metrics.RecordPlanDecision("rejected")
			continue
		}

		plan.TotalStake = plan.TotalStake.Add(stake)
		plan.Bets = append(plan.Bets, models.PlannedBet{
			MatchKey:  m.MatchKey,
			League:    m.League,
			Home:      m.Home,
			Away:      m.Away,
			Candidate: c,
			Stake:     stake,
		})
		p.log.LogStakeDecision(m.MatchKey, string(c.Market), "accepted", "", c.Odds, c.EV, stake.InexactFloat64())
		metrics.RecordPlanDecision("accepted")
	}

	total := plan.TotalStake.InexactFloat64()
	p.log.LogPlanSummary(len(plan.Bets), len(plan.Rejected), total, dailyCap.InexactFloat64())
	metrics.UpdatePlannedStake(total)

	return plan
}
