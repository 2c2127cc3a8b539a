// Package ratings derives shrunk attack/defense ratings from season xG aggregates.
package ratings

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-goals/internal/models"
	"github.com/yourusername/clever-goals/internal/teamname"
)

// Config holds the empirical rating parameters
type Config struct {
	// ShrinkageK is the pseudo-match count pulling raw ratings towards 1.0.
	ShrinkageK               float64
	DefaultHomeAdvantage     float64
	DefaultHomeGoalRatio     float64
	DefaultHomeConcededRatio float64
	CacheTTL                 time.Duration
}

// DefaultConfig returns the standard rating parameters.
func DefaultConfig() Config {
	return Config{
		ShrinkageK:               5,
		DefaultHomeAdvantage:     1.15,
		DefaultHomeGoalRatio:     0.55,
		DefaultHomeConcededRatio: 0.45,
		CacheTTL:                 time.Hour,
	}
}

// LeagueSummary describes one league snapshot
type LeagueSummary struct {
	League        string    `json:"league"`
	Teams         int       `json:"teams"`
	AvgXG         float64   `json:"avg_xg"`
	AvgXGA        float64   `json:"avg_xga"`
	HomeAdvantage float64   `json:"home_advantage"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type leagueSnapshot struct {
	version uint64
	summary LeagueSummary
	names   []string
	ratings map[string]models.TeamRating
}

// Store holds one immutable snapshot per league. Updates replace a whole
// league snapshot so readers never observe a partial recomputation.
type Store struct {
	cfg     Config
	logger  *logrus.Logger
	cache   *RatingCache
	mu      sync.RWMutex
	leagues map[string]*leagueSnapshot
	version uint64
	now     func() time.Time
}

// NewStore creates an empty rating store
func NewStore(cfg Config, logger *logrus.Logger) *Store {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Store{
		cfg:     cfg,
		logger:  logger,
		cache:   NewRatingCache(cfg.CacheTTL),
		leagues: make(map[string]*leagueSnapshot),
		now:     time.Now,
	}
}

// Update recomputes every rating of a league from the supplied aggregates.
// venue may be nil, in which case default venue ratios apply.
func (s *Store) Update(league string, stats map[string]models.TeamSeasonStats, venue *models.LeagueVenueData) error {
	if league == "" {
		return fmt.Errorf("league is required")
	}
	if len(stats) == 0 {
		return fmt.Errorf("%w: no team stats for %s", models.ErrInsufficientData, league)
	}

	snap := s.compute(league, stats, venue)

	s.mu.Lock()
	s.version++
	snap.version = s.version
	s.leagues[league] = snap
	s.mu.Unlock()

	s.cache.Invalidate(league)

	s.logger.WithFields(logrus.Fields{
		"component":      "ratings",
		"league":         league,
		"teams":          snap.summary.Teams,
		"avg_xg":         snap.summary.AvgXG,
		"home_advantage": snap.summary.HomeAdvantage,
		"venue_data":     venue != nil,
	}).Info("League ratings updated")

	return nil
}

// Rating returns the rating of team in league, resolving name variants.
func (s *Store) Rating(league, team string) (models.TeamRating, error) {
	s.mu.RLock()
	snap, ok := s.leagues[league]
	s.mu.RUnlock()
	if !ok {
		return models.TeamRating{}, fmt.Errorf("%w: no ratings for league %s", models.ErrUnknownTeam, league)
	}

	key := CacheKey{League: league, Version: snap.version, Query: team}
	if rating, ok := s.cache.Get(key); ok {
		return rating, nil
	}

	rating, _, ok := teamname.Lookup(snap.ratings, team)
	if !ok {
		return models.TeamRating{}, fmt.Errorf("%w: %s in %s", models.ErrUnknownTeam, team, league)
	}

	s.cache.Set(key, rating)
	return rating, nil
}

// Leagues returns the leagues with ratings, sorted.
func (s *Store) Leagues() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.leagues))
	for league := range s.leagues {
		out = append(out, league)
	}
	sort.Strings(out)
	return out
}

// Teams returns the rated teams of a league, sorted.
func (s *Store) Teams(league string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.leagues[league]
	if !ok {
		return nil
	}
	out := make([]string, len(snap.names))
	copy(out, snap.names)
	return out
}

// Summary returns the league-wide figures of a snapshot.
func (s *Store) Summary(league string) (LeagueSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.leagues[league]
	if !ok {
		return LeagueSummary{}, false
	}
	return snap.summary, true
}

func (s *Store) compute(league string, stats map[string]models.TeamSeasonStats, venue *models.LeagueVenueData) *leagueSnapshot {
	var totalXG, totalXGA float64
	var totalMatches int
	for _, st := range stats {
		totalXG += st.TotalXG
		totalXGA += st.TotalXGA
		totalMatches += st.MatchesPlayed
	}

	var avgXG, avgXGA float64
	if totalMatches > 0 {
		avgXG = totalXG / float64(totalMatches)
		avgXGA = totalXGA / float64(totalMatches)
	}

	ha := s.homeAdvantage(venue)

	snap := &leagueSnapshot{
		summary: LeagueSummary{
			League:        league,
			Teams:         len(stats),
			AvgXG:         avgXG,
			AvgXGA:        avgXGA,
			HomeAdvantage: ha,
			UpdatedAt:     s.now().UTC(),
		},
		ratings: make(map[string]models.TeamRating, len(stats)),
	}

	var splits map[string]models.VenueSplit
	if venue != nil {
		splits = venue.Teams
	}

	for name, st := range stats {
		split, _, hasSplit := teamname.Lookup(splits, name)
		snap.ratings[name] = s.rateTeam(league, name, st, split, hasSplit, avgXG, avgXGA, ha)
		snap.names = append(snap.names, name)
	}
	sort.Strings(snap.names)

	return snap
}

func (s *Store) rateTeam(league, name string, st models.TeamSeasonStats, split models.VenueSplit, hasSplit bool, avgXG, avgXGA, ha float64) models.TeamRating {
	n := float64(st.MatchesPlayed)

	attackRaw, defenseRaw := 1.0, 1.0
	if n > 0 {
		if avgXG > 0 {
			attackRaw = (st.TotalXG / n) / avgXG
		}
		if avgXGA > 0 {
			defenseRaw = (st.TotalXGA / n) / avgXGA
		}
	}

	r := s.venueRatios(split, hasSplit)
	homeN, awayN := n/2, n/2
	if hasSplit && split.HomePlayed > 0 {
		homeN = float64(split.HomePlayed)
	}
	if hasSplit && split.AwayPlayed > 0 {
		awayN = float64(split.AwayPlayed)
	}

	k := s.cfg.ShrinkageK
	return models.TeamRating{
		Team:                name,
		League:              league,
		Attack:              Shrink(attackRaw, n, k),
		Defense:             Shrink(defenseRaw, n, k),
		HomeAttack:          Shrink(attackRaw*r.homeGoal/0.5, homeN, k),
		HomeDefense:         Shrink(defenseRaw*r.homeConceded/0.5, homeN, k),
		AwayAttack:          Shrink(attackRaw*r.awayGoal/0.5, awayN, k),
		AwayDefense:         Shrink(defenseRaw*r.awayConceded/0.5, awayN, k),
		LeagueHomeAdvantage: ha,
		LeagueAvgXG:         avgXG,
		Matches:             st.MatchesPlayed,
	}
}

type venueRatios struct {
	homeGoal, awayGoal, homeConceded, awayConceded float64
}

func (s *Store) venueRatios(split models.VenueSplit, hasSplit bool) venueRatios {
	r := venueRatios{
		homeGoal:     s.cfg.DefaultHomeGoalRatio,
		awayGoal:     1 - s.cfg.DefaultHomeGoalRatio,
		homeConceded: s.cfg.DefaultHomeConcededRatio,
		awayConceded: 1 - s.cfg.DefaultHomeConcededRatio,
	}
	if !hasSplit {
		return r
	}

	if home, away, ok := ratioPair(split.HomeGoalRatio, split.AwayGoalRatio); ok {
		r.homeGoal, r.awayGoal = home, away
	} else if split.HomeGoals+split.AwayGoals > 0 {
		total := split.HomeGoals + split.AwayGoals
		r.homeGoal, r.awayGoal = split.HomeGoals/total, split.AwayGoals/total
	}

	if home, away, ok := ratioPair(split.HomeConcededRatio, split.AwayConcededRatio); ok {
		r.homeConceded, r.awayConceded = home, away
	} else if split.HomeConceded+split.AwayConceded > 0 {
		total := split.HomeConceded + split.AwayConceded
		r.homeConceded, r.awayConceded = split.HomeConceded/total, split.AwayConceded/total
	}

	return r
}

// ratioPair completes a home/away ratio pair. A lone side in (0, 1) implies
// the other as its complement; anything else is unusable.
func ratioPair(home, away float64) (float64, float64, bool) {
	switch {
	case home > 0 && away > 0:
		return home, away, true
	case home > 0 && home < 1 && away == 0:
		return home, 1 - home, true
	case away > 0 && away < 1 && home == 0:
		return 1 - away, away, true
	}
	return 0, 0, false
}

// homeAdvantage uses the supplied league figure, else the ratio of aggregate
// home to away scoring across the splits, else the configured default.
func (s *Store) homeAdvantage(venue *models.LeagueVenueData) float64 {
	if venue == nil {
		return s.cfg.DefaultHomeAdvantage
	}
	if venue.LeagueHomeAdvantage > 0 {
		return venue.LeagueHomeAdvantage
	}

	var homeGoals, awayGoals float64
	for _, split := range venue.Teams {
		homeGoals += split.HomeGoals
		awayGoals += split.AwayGoals
	}
	if homeGoals > 0 && awayGoals > 0 {
		return homeGoals / awayGoals
	}
	return s.cfg.DefaultHomeAdvantage
}

// Shrink pulls a raw rating towards the league mean of 1.0 with k pseudo-matches.
func Shrink(raw, n, k float64) float64 {
	if n+k <= 0 {
		return raw
	}
	return (n*raw + k) / (n + k)
}
