package ratings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/yourusername/clever-goals/internal/models"
)

// LeagueFeed is one league's entry in a stats feed
type LeagueFeed struct {
	Teams map[string]models.TeamSeasonStats `json:"teams"`
	Venue *models.LeagueVenueData           `json:"venue,omitempty"`
}

// Feed is a stats document keyed by league
type Feed map[string]LeagueFeed

// DecodeFeed reads a stats feed. Team entries without a name take their key.
func DecodeFeed(r io.Reader) (Feed, error) {
	var feed Feed
	if err := json.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode stats feed: %w", err)
	}

	for league, lf := range feed {
		for name, st := range lf.Teams {
			if st.Team == "" {
				st.Team = name
			}
			if st.League == "" {
				st.League = league
			}
			lf.Teams[name] = st
		}
	}
	return feed, nil
}

// Apply updates every league in the feed. Leagues that fail are reported
// together; the rest are still applied.
func (s *Store) Apply(feed Feed) error {
	leagues := make([]string, 0, len(feed))
	for league := range feed {
		leagues = append(leagues, league)
	}
	sort.Strings(leagues)

	var errs []error
	for _, league := range leagues {
		lf := feed[league]
		if err := s.Update(league, lf.Teams, lf.Venue); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", league, err))
		}
	}
	return errors.Join(errs...)
}
