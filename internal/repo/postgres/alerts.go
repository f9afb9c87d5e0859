package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/statuscheck/internal/repo"
)

func (s *Store) Get(ctx context.Context, category string) (*repo.AlertRecord, error) {
	const q = `SELECT passing, last_sent_at FROM category_alerts WHERE category=$1`
	r := repo.AlertRecord{Category: category}
	var lastSent *time.Time
	err := s.pool.QueryRow(ctx, q, category).Scan(&r.Passing, &lastSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	r.LastSentAt = lastSent
	return &r, nil
}

func (s *Store) Set(ctx context.Context, category string, passing bool, sentAt time.Time) error {
	const q = `
		INSERT INTO category_alerts (category, passing, last_sent_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (category)
		DO UPDATE SET passing=EXCLUDED.passing,
		              last_sent_at=COALESCE(EXCLUDED.last_sent_at, category_alerts.last_sent_at)
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	if _, err := s.pool.Exec(ctx, q, category, passing, ts); err != nil {
		return fmt.Errorf("set alert: %w", err)
	}
	return nil
}
