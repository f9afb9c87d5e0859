package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// SQLiteChecker opens the database file at Target.Path in query-only mode and
// requires at least MinTables tables.
type SQLiteChecker struct {
	MinTables int
}

func NewSQLiteChecker() *SQLiteChecker { return &SQLiteChecker{MinTables: 1} }

func (c *SQLiteChecker) Check(ctx context.Context, t Target) domain.Outcome {
	timeout := t.EffectiveTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	path := t.Path
	if path == "" {
		path = t.Address
	}
	// sqlite would happily create a missing file
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return domain.Failure(domain.TextError, "not found: "+path)
	}

	start := time.Now()
	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)")
	if err != nil {
		return domain.Failure(domain.TextError, Truncate(err.Error()))
	}
	defer db.Close()

	var n int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'`).Scan(&n)
	latency := time.Since(start)
	if err != nil {
		return Classify(err, timeout).WithLatency(latency)
	}
	if n < c.MinTables {
		return domain.Failure(domain.TextError, fmt.Sprintf("%d tables, want at least %d", n, c.MinTables)).WithLatency(latency)
	}
	return domain.Success(fmt.Sprintf("%d tables", n)).WithLatency(latency)
}
