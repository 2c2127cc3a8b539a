package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Bounds applied to the low-score correlation parameter.
const (
	MinRho = -0.5
	MaxRho = 0.5
)

// LeagueFitParameters is the immutable result of one Dixon-Coles fit for a league.
// Attack strengths average exactly 1.0; defenses absorb the rescaling.
type LeagueFitParameters struct {
	RunID         uuid.UUID          `json:"run_id"`
	League        string             `json:"league"`
	Attacks       map[string]float64 `json:"attack"`
	Defenses      map[string]float64 `json:"defense"`
	HomeAdvantage float64            `json:"home_advantage"`
	Rho           float64            `json:"rho"`
	NMatches      int                `json:"n_matches"`
	NTeams        int                `json:"n_teams"`
	LogLikelihood float64            `json:"log_likelihood"`
	Converged     bool               `json:"converged"`
	Iterations    int                `json:"iterations"`
	Warning       string             `json:"warning,omitempty"`
	FittedAt      time.Time          `json:"fitted_at"`
}

// NewLeagueFitParameters validates fitted values and builds the record.
// Rho is clamped into [MinRho, MaxRho]; maps are copied.
func NewLeagueFitParameters(league string, attacks, defenses map[string]float64, homeAdvantage, rho float64, nMatches int, logLikelihood float64, fittedAt time.Time) (*LeagueFitParameters, error) {
	if league == "" {
		return nil, fmt.Errorf("%w: league is required", ErrInvalidParameters)
	}
	if len(attacks) == 0 {
		return nil, fmt.Errorf("%w: no teams", ErrInvalidParameters)
	}
	if len(attacks) != len(defenses) {
		return nil, fmt.Errorf("%w: %d attack vs %d defense ratings", ErrInvalidParameters, len(attacks), len(defenses))
	}
	if !(homeAdvantage > 0) || math.IsInf(homeAdvantage, 0) {
		return nil, fmt.Errorf("%w: home advantage %v", ErrInvalidParameters, homeAdvantage)
	}
	if math.IsNaN(rho) {
		return nil, fmt.Errorf("%w: rho is NaN", ErrInvalidParameters)
	}

	att := make(map[string]float64, len(attacks))
	def := make(map[string]float64, len(defenses))
	for team, a := range attacks {
		d, ok := defenses[team]
		if !ok {
			return nil, fmt.Errorf("%w: team %q has no defense rating", ErrInvalidParameters, team)
		}
		if !(a > 0) || !(d > 0) || math.IsInf(a, 0) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("%w: non-positive rating for %q", ErrInvalidParameters, team)
		}
		att[team] = a
		def[team] = d
	}

	return &LeagueFitParameters{
		RunID:         uuid.New(),
		League:        league,
		Attacks:       att,
		Defenses:      def,
		HomeAdvantage: homeAdvantage,
		Rho:           ClampRho(rho),
		NMatches:      nMatches,
		NTeams:        len(att),
		LogLikelihood: logLikelihood,
		Converged:     true,
		FittedAt:      fittedAt.UTC(),
	}, nil
}

// ClampRho bounds rho to the admissible range.
func ClampRho(rho float64) float64 {
	return math.Max(MinRho, math.Min(MaxRho, rho))
}

// Teams returns the fitted team names.
func (p *LeagueFitParameters) Teams() []string {
	teams := make([]string, 0, len(p.Attacks))
	for team := range p.Attacks {
		teams = append(teams, team)
	}
	return teams
}

// Validate re-checks invariants on a decoded record.
func (p *LeagueFitParameters) Validate() error {
	_, err := NewLeagueFitParameters(p.League, p.Attacks, p.Defenses, p.HomeAdvantage, p.Rho, p.NMatches, p.LogLikelihood, p.FittedAt)
	if err != nil {
		return err
	}
	if p.Rho < MinRho || p.Rho > MaxRho {
		return fmt.Errorf("%w: rho %v out of range", ErrInvalidParameters, p.Rho)
	}
	return nil
}
