package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/ha-weather-tool/internal/weather"
)

var (
	// ErrNotFound is returned when no report is available.
	ErrNotFound = errors.New("no weather report available")
)

// MemoryStore is a concurrency-safe in-memory history of weather reports,
// ordered by the time they were produced.
type MemoryStore struct {
	mu      sync.RWMutex
	reports []weather.Report

	// retention configuration
	maxHistory int           // max number of reports kept
	maxAge     time.Duration // optional max age for reports
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReport appends a report and enforces retention.
func (s *MemoryStore) SaveReport(report weather.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, report)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.reports) > s.maxHistory {
		over := len(s.reports) - s.maxHistory
		s.reports = s.reports[over:]
	}

	// Enforce retention by age. The newest report is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.reports)-1; i++ {
			if !s.reports[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		s.reports = s.reports[i:]
	}
}

// GetLatest returns the most recent report.
func (s *MemoryStore) GetLatest() (weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return weather.Report{}, ErrNotFound
	}
	return s.reports[len(s.reports)-1], nil
}

// GetRange returns all reports produced between from and to (inclusive).
func (s *MemoryStore) GetRange(from, to time.Time) ([]weather.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Report
	for _, r := range s.reports {
		if !r.FetchedAt.Before(from) && !r.FetchedAt.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

var _ weather.Store = (*MemoryStore)(nil)
