// Package paramstore persists fitted league parameters as JSON documents,
// either on disk or in Redis.
package paramstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yourusername/clever-goals/internal/models"
)

// Document is the persisted form: one entry per league.
type Document map[string]*models.LeagueFitParameters

// Encode serialises a parameter set. Nil entries are dropped.
func Encode(params map[string]*models.LeagueFitParameters) ([]byte, error) {
	doc := make(Document, len(params))
	for league, p := range params {
		if p == nil {
			continue
		}
		if p.League != league {
			return nil, fmt.Errorf("%w: entry %q holds league %q", models.ErrInvalidParameters, league, p.League)
		}
		doc[league] = p
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	return data, nil
}

// Decode parses and validates a parameter set.
func Decode(data []byte) (map[string]*models.LeagueFitParameters, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}

	out := make(map[string]*models.LeagueFitParameters, len(doc))
	for league, p := range doc {
		if p == nil {
			continue
		}
		if p.League == "" {
			p.League = league
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("league %s: %w", league, err)
		}
		if p.NTeams == 0 {
			p.NTeams = len(p.Attacks)
		}
		out[league] = p
	}
	return out, nil
}

// Leagues returns the keys of a parameter set, sorted.
func Leagues(params map[string]*models.LeagueFitParameters) []string {
	out := make([]string, 0, len(params))
	for league := range params {
		out = append(out, league)
	}
	sort.Strings(out)
	return out
}

// Store persists the latest parameter set.
type Store interface {
	Save(ctx context.Context, params map[string]*models.LeagueFitParameters) error
	Load(ctx context.Context) (map[string]*models.LeagueFitParameters, error)
}
