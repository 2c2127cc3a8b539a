package models

import "github.com/shopspring/decimal"

// Market identifies a bet type priced by bookmakers
type Market string

const (
	MarketHome    Market = "1"
	MarketDraw    Market = "X"
	MarketAway    Market = "2"
	MarketOver25  Market = "over_2.5"
	MarketUnder25 Market = "under_2.5"
	MarketBTTSYes Market = "btts_yes"
	MarketBTTSNo  Market = "btts_no"
)

// Markets lists every market evaluated for value, in display order.
var Markets = []Market{
	MarketHome, MarketDraw, MarketAway,
	MarketOver25, MarketUnder25,
	MarketBTTSYes, MarketBTTSNo,
}

// IsMatchResult reports whether m is one of the mutually exclusive 1X2 outcomes.
func (m Market) IsMatchResult() bool {
	return m == MarketHome || m == MarketDraw || m == MarketAway
}

// OddsQuote maps markets to the best available decimal odds
type OddsQuote map[Market]float64

// ValueBetCandidate is a market whose model probability beats the price
type ValueBetCandidate struct {
	Market             Market  `json:"market"`
	Probability        float64 `json:"probability"`
	Odds               float64 `json:"odds"`
	ImpliedProbability float64 `json:"implied_probability"`
	Edge               float64 `json:"edge"`
	EV                 float64 `json:"ev"`
	KellyStakeFraction float64 `json:"kelly_stake"`
}

// PlannedBet is a candidate accepted into the stake plan
type PlannedBet struct {
	MatchKey  string            `json:"match_key"`
	League    string            `json:"league"`
	Home      string            `json:"home_team"`
	Away      string            `json:"away_team"`
	Candidate ValueBetCandidate `json:"candidate"`
	Stake     decimal.Decimal   `json:"stake"`
}

// RejectedBet is a candidate dropped by the planner
type RejectedBet struct {
	MatchKey  string            `json:"match_key"`
	Candidate ValueBetCandidate `json:"candidate"`
	Stake     decimal.Decimal   `json:"stake"`
	Reason    string            `json:"reason"`
}

// BetPlan is the bankroll-constrained set of stakes for a slate
type BetPlan struct {
	Bankroll   decimal.Decimal `json:"bankroll"`
	DailyCap   decimal.Decimal `json:"daily_cap"`
	TotalStake decimal.Decimal `json:"total_stake"`
	Bets       []PlannedBet    `json:"bets"`
	Rejected   []RejectedBet   `json:"rejected,omitempty"`
}
