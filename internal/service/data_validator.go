package service

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-goals/internal/models"
)

// maxGoals rejects obviously corrupt scores
const maxGoals = 20

// DataValidator validates match and fixture data
type DataValidator struct {
	validate *validator.Validate
	logger   *logrus.Logger
	now      func() time.Time
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Logger) *DataValidator {
	return &DataValidator{
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// ValidateMatch validates a match record for required fields and constraints
func (v *DataValidator) ValidateMatch(m *models.MatchRecord) []string {
	var errors []string

	if err := v.validate.Struct(m); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errors = append(errors, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
		} else {
			errors = append(errors, err.Error())
		}
	}

	if m.Status == models.MatchStatusFinished && (m.HomeGoals == nil || m.AwayGoals == nil) {
		errors = append(errors, "finished match requires both scores")
	}
	if (m.HomeGoals == nil) != (m.AwayGoals == nil) {
		errors = append(errors, "scores must be given together")
	}
	if m.HomeGoals != nil && *m.HomeGoals > maxGoals {
		errors = append(errors, fmt.Sprintf("home_goals out of range, got %d", *m.HomeGoals))
	}
	if m.AwayGoals != nil && *m.AwayGoals > maxGoals {
		errors = append(errors, fmt.Sprintf("away_goals out of range, got %d", *m.AwayGoals))
	}

	if m.Status == models.MatchStatusFinished && m.Date.After(v.now().Add(24*time.Hour)) {
		errors = append(errors, "finished match dated in the future")
	}

	return errors
}

// ValidateFixture validates a slate entry and its odds
func (v *DataValidator) ValidateFixture(f *models.Fixture) []string {
	var errors []string

	if err := v.validate.Struct(f); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errors = append(errors, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
		} else {
			errors = append(errors, err.Error())
		}
	}
	if f.Home != "" && f.Home == f.Away {
		errors = append(errors, "home and away teams must differ")
	}
	for market := range f.Odds {
		if !isKnownMarket(market) {
			errors = append(errors, fmt.Sprintf("unknown market %q", market))
		}
	}

	return errors
}

func isKnownMarket(m models.Market) bool {
	for _, known := range models.Markets {
		if m == known {
			return true
		}
	}
	return false
}
