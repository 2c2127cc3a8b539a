package service

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-goals/internal/models"
)

// DataNormalizer normalizes data from various sources to standard format
type DataNormalizer struct {
	aliases map[string]string // lower-case provider name to canonical name
	logger  *logrus.Logger
}

// NewDataNormalizer creates a new data normalizer. aliases maps provider
// team names to canonical ones and may be nil.
func NewDataNormalizer(aliases map[string]string, logger *logrus.Logger) *DataNormalizer {
	lower := make(map[string]string, len(aliases))
	for from, to := range aliases {
		lower[strings.ToLower(sanitizeName(from))] = to
	}
	return &DataNormalizer{aliases: lower, logger: logger}
}

// NormalizeMatch returns a cleaned copy of a match record
func (n *DataNormalizer) NormalizeMatch(m models.MatchRecord) models.MatchRecord {
	m.League = sanitizeName(m.League)
	m.Home = n.NormalizeTeam(m.Home)
	m.Away = n.NormalizeTeam(m.Away)
	m.Date = NormalizeDate(m.Date)
	m.Source = strings.TrimSpace(m.Source)
	if m.Status == "" {
		if m.HomeGoals != nil && m.AwayGoals != nil {
			m.Status = models.MatchStatusFinished
		} else {
			m.Status = models.MatchStatusScheduled
		}
	}
	return m
}

// NormalizeFixture returns a cleaned copy of a fixture
func (n *DataNormalizer) NormalizeFixture(f models.Fixture) models.Fixture {
	f.League = sanitizeName(f.League)
	f.Home = n.NormalizeTeam(f.Home)
	f.Away = n.NormalizeTeam(f.Away)
	if !f.Date.IsZero() {
		f.Date = NormalizeDate(f.Date)
	}
	return f
}

// NormalizeTeam trims whitespace and applies the alias table
func (n *DataNormalizer) NormalizeTeam(name string) string {
	clean := sanitizeName(name)
	if canonical, ok := n.aliases[strings.ToLower(clean)]; ok {
		return canonical
	}
	return clean
}

// NormalizeDate truncates to the UTC calendar day
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// sanitizeName trims and collapses internal whitespace
func sanitizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
