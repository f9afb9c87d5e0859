package repo

import (
	"context"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// ReportStore keeps the most recent report. Only the latest run is kept;
// older reports are replaced.
type ReportStore interface {
	Save(ctx context.Context, r domain.Report) error
	// Latest returns nil, nil before the first Save.
	Latest(ctx context.Context) (*domain.Report, error)
}
