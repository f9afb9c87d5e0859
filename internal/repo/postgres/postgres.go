package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/statuscheck/internal/domain"
	"github.com/hamed0406/statuscheck/internal/repo"
)

var (
	_ repo.ReportStore = (*Store)(nil)
	_ repo.AlertStore  = (*Store)(nil)
)

// Schema holds one snapshot row and one alert row per category.
const Schema = `
CREATE TABLE IF NOT EXISTS report_snapshot (
  slot         TEXT PRIMARY KEY DEFAULT 'latest',
  run_id       TEXT NOT NULL,
  generated_at TIMESTAMPTZ NOT NULL,
  body         JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS category_alerts (
  category     TEXT PRIMARY KEY,
  passing      BOOLEAN NOT NULL,
  last_sent_at TIMESTAMPTZ NULL
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- ReportStore ----

func (s *Store) Save(ctx context.Context, r domain.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO report_snapshot (slot, run_id, generated_at, body)
		 VALUES ('latest', $1, $2, $3)
		 ON CONFLICT (slot)
		 DO UPDATE SET run_id=EXCLUDED.run_id, generated_at=EXCLUDED.generated_at, body=EXCLUDED.body`,
		r.RunID, r.GeneratedAt, body,
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	s.log.Debug("report_saved", zap.String("run_id", r.RunID))
	return nil
}

func (s *Store) Latest(ctx context.Context) (*domain.Report, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM report_snapshot WHERE slot = 'latest'`).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest report: %w", err)
	}
	var r domain.Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
