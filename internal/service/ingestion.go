package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-goals/internal/metrics"
	"github.com/yourusername/clever-goals/internal/models"
	"github.com/yourusername/clever-goals/internal/repository"
)

// IngestionService imports match records into the history
type IngestionService struct {
	matches    repository.MatchRepository
	validator  *DataValidator
	normalizer *DataNormalizer
	logger     *logrus.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	matches repository.MatchRepository,
	validator *DataValidator,
	normalizer *DataNormalizer,
	logger *logrus.Logger,
) *IngestionService {
	return &IngestionService{
		matches:    matches,
		validator:  validator,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Import normalizes, validates and upserts each record. Invalid records are
// counted and skipped; only context cancellation aborts the import.
func (s *IngestionService) Import(ctx context.Context, records []models.MatchRecord) (*IngestionMetrics, error) {
	m := NewIngestionMetrics()
	defer m.finish()

	for _, raw := range records {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		m.recordSeen()

		rec := s.normalizer.NormalizeMatch(raw)
		if errs := s.validator.ValidateMatch(&rec); len(errs) > 0 {
			m.recordValidationError()
			metrics.RecordIngestion("invalid")
			s.logger.WithFields(logrus.Fields{
				"league": rec.League,
				"home":   rec.Home,
				"away":   rec.Away,
				"errors": errs,
			}).Warn("Skipping invalid match record")
			continue
		}

		if _, err := s.matches.Upsert(ctx, &rec); err != nil {
			m.recordError()
			metrics.RecordIngestion("error")
			s.logger.WithError(err).WithField("match", fmt.Sprintf("%s vs %s", rec.Home, rec.Away)).Error("Failed to store match")
			continue
		}

		m.recordImported(rec.IsComplete())
		metrics.RecordIngestion("imported")
	}

	s.logger.WithField("metrics", m.String()).Info("Match import completed")
	return m, nil
}
