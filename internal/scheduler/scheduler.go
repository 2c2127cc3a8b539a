// Package scheduler runs periodic model refits.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-goals/internal/fitter"
)

// Refitter refits league parameters
type Refitter interface {
	Refit(ctx context.Context, leagues []string) (*fitter.FitReport, error)
}

// Scheduler manages scheduled refit jobs
type Scheduler struct {
	cron            *cron.Cron
	refitter        Refitter
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
	refitMu         sync.Mutex
}

// NewScheduler creates a new scheduler
func NewScheduler(refitter Refitter, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		refitter:        refitter,
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleRefit schedules a refit of the leagues on a cron expression
func (s *Scheduler) ScheduleRefit(cronExpression string, leagues []string, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = s.RunRefit(ctx, leagues)
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled refit job")

	return nil
}

// RunRefit runs one refit now. Overlapping runs are skipped.
func (s *Scheduler) RunRefit(ctx context.Context, leagues []string) error {
	if !s.refitMu.TryLock() {
		s.logger.Warn("Previous refit still running, skipping")
		return fmt.Errorf("refit already in progress")
	}
	defer s.refitMu.Unlock()

	start := time.Now()
	s.logger.WithField("leagues", leagues).Info("Starting scheduled refit")

	report, err := s.refitter.Refit(ctx, leagues)
	fields := logrus.Fields{"duration": time.Since(start).String()}
	if report != nil {
		fields["fitted"] = len(report.Params)
		fields["failed"] = len(report.Failed)
	}
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Error("Scheduled refit failed")
		return err
	}

	s.logger.WithFields(fields).Info("Scheduled refit completed")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs, up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out waiting for running jobs")
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}
