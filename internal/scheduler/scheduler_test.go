package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-goals/internal/fitter"
	"github.com/yourusername/clever-goals/internal/models"
)

type stubRefitter struct {
	mu      sync.Mutex
	calls   [][]string
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (s *stubRefitter) Refit(ctx context.Context, leagues []string) (*fitter.FitReport, error) {
	s.mu.Lock()
	s.calls = append(s.calls, leagues)
	s.mu.Unlock()
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	return &fitter.FitReport{
		Params: map[string]*models.LeagueFitParameters{},
		Failed: map[string]error{},
	}, s.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRunRefit(t *testing.T) {
	stub := &stubRefitter{}
	s := NewScheduler(stub, quietLogger())

	require.NoError(t, s.RunRefit(context.Background(), []string{"EPL"}))
	assert.Equal(t, [][]string{{"EPL"}}, stub.calls)

	stub.err = errors.New("boom")
	assert.Error(t, s.RunRefit(context.Background(), nil))
}

func TestRunRefitSkipsOverlap(t *testing.T) {
	stub := &stubRefitter{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := NewScheduler(stub, quietLogger())

	done := make(chan error, 1)
	go func() { done <- s.RunRefit(context.Background(), nil) }()
	<-stub.entered

	assert.Error(t, s.RunRefit(context.Background(), nil))

	close(stub.block)
	assert.NoError(t, <-done)
}

func TestSchedulerLifecycle(t *testing.T) {
	s := NewScheduler(&stubRefitter{}, quietLogger())

	assert.Error(t, s.Start(), "no jobs scheduled")
	assert.Error(t, s.ScheduleRefit("not a cron", nil, time.Minute))

	require.NoError(t, s.ScheduleRefit("0 6 * * *", []string{"EPL"}, time.Minute))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleRefit("0 7 * * *", nil, time.Minute))

	next := s.GetNextRun()
	assert.False(t, next.IsZero())
	assert.Equal(t, 6, next.UTC().Hour())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.True(t, s.GetNextRun().IsZero())
}
