package domain

import (
	"math"
	"time"
)

// Recommendation is the tier derived from the overall success rate.
type Recommendation string

const (
	Excellent      Recommendation = "EXCELLENT"
	Good           Recommendation = "GOOD"
	NeedsAttention Recommendation = "NEEDS_ATTENTION"
)

const (
	ExcellentThreshold = 90.0
	PassThreshold      = 75.0
)

// RecommendationFor maps a success rate (percent) to its tier.
func RecommendationFor(rate float64) Recommendation {
	switch {
	case rate >= ExcellentThreshold:
		return Excellent
	case rate >= PassThreshold:
		return Good
	default:
		return NeedsAttention
	}
}

// ExitCodeFor is the CLI contract: 0 at or above PassThreshold, 1 below.
func ExitCodeFor(rate float64) int {
	if rate >= PassThreshold {
		return 0
	}
	return 1
}

// Rate returns 100*successful/total rounded to one decimal, or 0 when total is 0.
// Warnings count in total but never in successful.
func Rate(successful, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(successful)*1000/float64(total)) / 10
}

// CategoryResult is a named, ordered group of probe outcomes.
// Counts are derived on demand.
type CategoryResult struct {
	Name  string       `json:"name"`
	Tests []TestResult `json:"tests"`
}

func (c CategoryResult) Total() int { return len(c.Tests) }

func (c CategoryResult) Passed() int { return c.count(StatusSuccess) }

func (c CategoryResult) Warnings() int { return c.count(StatusWarning) }

func (c CategoryResult) Failed() int { return c.count(StatusFailure) }

func (c CategoryResult) SuccessRate() float64 { return Rate(c.Passed(), c.Total()) }

func (c CategoryResult) count(s Status) int {
	n := 0
	for _, t := range c.Tests {
		if t.Outcome.Status == s {
			n++
		}
	}
	return n
}

// Report is an immutable snapshot of one full run.
type Report struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Duration    time.Duration    `json:"duration_ns"`
	Categories  []CategoryResult `json:"categories"`
}

func (r Report) TotalTests() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Total()
	}
	return n
}

func (r Report) Successful() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Passed()
	}
	return n
}

func (r Report) Warnings() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Warnings()
	}
	return n
}

func (r Report) Failed() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Failed()
	}
	return n
}

func (r Report) SuccessRate() float64 { return Rate(r.Successful(), r.TotalTests()) }

func (r Report) Recommendation() Recommendation { return RecommendationFor(r.SuccessRate()) }

func (r Report) ExitCode() int { return ExitCodeFor(r.SuccessRate()) }

// Category looks up a category by name.
func (r Report) Category(name string) (CategoryResult, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryResult{}, false
}
