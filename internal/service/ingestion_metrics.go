package service

import (
	"fmt"
	"sync"
	"time"
)

// IngestionMetrics tracks statistics about a match import
type IngestionMetrics struct {
	mu               sync.RWMutex
	StartTime        time.Time
	Duration         time.Duration
	TotalMatches     int
	Imported         int
	Finished         int
	ValidationErrors int
	Errors           int
}

// NewIngestionMetrics creates a new metrics tracker
func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all metrics
func (m *IngestionMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.TotalMatches = 0
	m.Imported = 0
	m.Finished = 0
	m.ValidationErrors = 0
	m.Errors = 0
}

func (m *IngestionMetrics) recordSeen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalMatches++
}

func (m *IngestionMetrics) recordImported(finished bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Imported++
	if finished {
		m.Finished++
	}
}

func (m *IngestionMetrics) recordValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationErrors++
}

func (m *IngestionMetrics) recordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

func (m *IngestionMetrics) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartTime)
}

// String returns a formatted string representation of metrics
func (m *IngestionMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.TotalMatches > 0 {
		successRate = float64(m.Imported) / float64(m.TotalMatches) * 100
	}

	return fmt.Sprintf(
		"IngestionMetrics{Total=%d, Imported=%d (%.1f%%), Finished=%d, ValidationErrors=%d, Errors=%d, Duration=%v}",
		m.TotalMatches,
		m.Imported,
		successRate,
		m.Finished,
		m.ValidationErrors,
		m.Errors,
		m.Duration,
	)
}
