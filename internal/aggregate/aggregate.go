// Package aggregate collects probe outcomes across categories into a Report.
package aggregate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// Aggregator owns the category -> outcomes mapping for one run.
// It is safe for concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	order   []string // registration order
	results map[string][]domain.TestResult
	started time.Time
	runID   string

	now func() time.Time
}

// New creates an Aggregator with the given categories pre-registered, so they
// appear in the report in this order even when they record nothing.
func New(categories ...string) *Aggregator {
	a := &Aggregator{
		results: make(map[string][]domain.TestResult),
		runID:   uuid.NewString(),
		now:     time.Now,
	}
	a.started = a.now()
	for _, c := range categories {
		a.register(c)
	}
	return a
}

func (a *Aggregator) RunID() string { return a.runID }

// Register adds a category if it is not known yet.
func (a *Aggregator) Register(category string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.register(category)
}

func (a *Aggregator) register(category string) {
	if _, ok := a.results[category]; ok {
		return
	}
	a.order = append(a.order, category)
	a.results[category] = nil
}

// Record appends an outcome to a category. Unknown categories are registered
// on first use.
func (a *Aggregator) Record(category, name string, o domain.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.register(category)
	a.results[category] = append(a.results[category], domain.TestResult{Name: name, Outcome: o})
}

// Finalize snapshots the recorded outcomes. The Report does not share memory
// with the Aggregator, so further Record calls do not affect it.
func (a *Aggregator) Finalize() domain.Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	cats := make([]domain.CategoryResult, 0, len(a.order))
	for _, name := range a.order {
		tests := make([]domain.TestResult, len(a.results[name]))
		copy(tests, a.results[name])
		cats = append(cats, domain.CategoryResult{Name: name, Tests: tests})
	}
	return domain.Report{
		RunID:       a.runID,
		GeneratedAt: now.UTC(),
		Duration:    now.Sub(a.started),
		Categories:  cats,
	}
}
