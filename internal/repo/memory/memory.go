package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/statuscheck/internal/domain"
	"github.com/hamed0406/statuscheck/internal/repo"
)

var (
	_ repo.ReportStore = (*Store)(nil)
	_ repo.AlertStore  = (*Store)(nil)
)

type Store struct {
	mu     sync.RWMutex
	latest *domain.Report
	alerts map[string]repo.AlertRecord
}

func New() *Store {
	return &Store{alerts: make(map[string]repo.AlertRecord)}
}

func (m *Store) Save(ctx context.Context, r domain.Report) error {
	cp := copyReport(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = &cp
	return nil
}

func (m *Store) Latest(ctx context.Context) (*domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return nil, nil
	}
	cp := copyReport(*m.latest)
	return &cp, nil
}

func (m *Store) Get(ctx context.Context, category string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[category]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, category string, passing bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.alerts[category]
	rec.Category = category
	rec.Passing = passing
	if !sentAt.IsZero() {
		ts := sentAt
		rec.LastSentAt = &ts
	}
	m.alerts[category] = rec
	return nil
}

// copyReport detaches the category and test slices from the caller's report.
func copyReport(r domain.Report) domain.Report {
	cats := make([]domain.CategoryResult, len(r.Categories))
	for i, c := range r.Categories {
		cats[i] = domain.CategoryResult{Name: c.Name, Tests: append([]domain.TestResult(nil), c.Tests...)}
	}
	r.Categories = cats
	return r
}
