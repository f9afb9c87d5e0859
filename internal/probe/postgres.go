package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/statuscheck/internal/domain"
)

type PGMode string

const (
	PGPing  PGMode = "ping"
	PGQuery PGMode = "query"
	PGWrite PGMode = "write"
)

// PostgresChecker connects to the DSN in Target.Address and, depending on
// Mode, runs a query or a create/insert/drop cycle on a temporary table.
type PostgresChecker struct {
	Mode PGMode
}

func NewPostgresChecker(mode PGMode) *PostgresChecker {
	if mode == "" {
		mode = PGPing
	}
	return &PostgresChecker{Mode: mode}
}

func (c *PostgresChecker) Check(ctx context.Context, t Target) domain.Outcome {
	timeout := t.EffectiveTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, err := pgx.ParseConfig(t.Address)
	if err != nil {
		return domain.Failure(domain.TextError, "invalid DSN: "+Truncate(err.Error()))
	}
	start := time.Now()
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return Classify(err, timeout).WithLatency(time.Since(start))
	}
	defer conn.Close(context.Background())

	detail, err := c.exercise(ctx, conn)
	latency := time.Since(start)
	if err != nil {
		return Classify(err, timeout).WithLatency(latency)
	}
	return domain.Success(fmt.Sprintf("%s@%s:%d %s", cfg.Database, cfg.Host, cfg.Port, detail)).WithLatency(latency)
}

func (c *PostgresChecker) exercise(ctx context.Context, conn *pgx.Conn) (string, error) {
	switch c.Mode {
	case PGQuery:
		var now time.Time
		if err := conn.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
			return "", fmt.Errorf("select now: %w", err)
		}
		return "server time " + now.UTC().Format(time.RFC3339), nil
	case PGWrite:
		stmts := []string{
			`CREATE TEMP TABLE IF NOT EXISTS statuscheck_probe (
				id SERIAL PRIMARY KEY,
				created_at TIMESTAMP DEFAULT NOW()
			)`,
			`INSERT INTO statuscheck_probe DEFAULT VALUES`,
			`DROP TABLE IF EXISTS statuscheck_probe`,
		}
		for _, q := range stmts {
			if _, err := conn.Exec(ctx, q); err != nil {
				return "", fmt.Errorf("write cycle: %w", err)
			}
		}
		return "temp table create/insert/drop ok", nil
	default:
		if err := conn.Ping(ctx); err != nil {
			return "", fmt.Errorf("ping: %w", err)
		}
		return "connected", nil
	}
}
