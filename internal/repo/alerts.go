package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last known state of a category and the last time a
// notification went out for it (used for cooldown).
type AlertRecord struct {
	Category   string
	Passing    bool
	LastSentAt *time.Time
}

// AlertStore persists per-category alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, category string) (*AlertRecord, error)
	// Set upserts the record. A zero sentAt keeps the previous send time.
	Set(ctx context.Context, category string, passing bool, sentAt time.Time) error
}
