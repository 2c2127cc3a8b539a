package fitter

import (
	"fmt"

	"github.com/yourusername/clever-goals/internal/models"
)

// InsufficientDataError reports a league with too few finished matches to fit.
type InsufficientDataError struct {
	League   string
	Matches  int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %d matches, need %d", e.League, e.Matches, e.Required)
}

// Unwrap lets errors.Is match models.ErrInsufficientData.
func (e *InsufficientDataError) Unwrap() error {
	return models.ErrInsufficientData
}
