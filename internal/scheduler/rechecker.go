package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuscheck/internal/domain"
	"github.com/hamed0406/statuscheck/internal/repo"
)

// RunFunc executes the full battery once.
type RunFunc func(ctx context.Context) (domain.Report, error)

// Observer receives every stored report.
type Observer func(domain.Report)

type Rechecker struct {
	Logger    *zap.Logger
	Reports   repo.ReportStore
	Battery   RunFunc
	Interval  time.Duration
	Observers []Observer
}

func NewRechecker(
	logger *zap.Logger,
	reports repo.ReportStore,
	battery RunFunc,
	interval time.Duration,
	observers ...Observer,
) *Rechecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval < 0 {
		interval = 0
	}
	return &Rechecker{
		Logger:    logger,
		Reports:   reports,
		Battery:   battery,
		Interval:  interval,
		Observers: observers,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (r *Rechecker) Run(ctx context.Context) {
	if r.Interval == 0 {
		// disabled
		r.Logger.Info("rechecker_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// immediate pass
	_, _ = r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("rechecker_stopped")
			return
		case <-t.C:
			_, _ = r.RunOnce(ctx)
		}
	}
}

// RunOnce runs the battery, stores the report and notifies observers. A run
// interrupted by ctx is returned but not stored.
func (r *Rechecker) RunOnce(ctx context.Context) (domain.Report, error) {
	rep, err := r.Battery(ctx)
	if err != nil {
		r.Logger.Warn("rechecker_run_interrupted", zap.String("run_id", rep.RunID), zap.Error(err))
		return rep, err
	}
	if err := r.Reports.Save(ctx, rep); err != nil {
		r.Logger.Warn("rechecker_save_error", zap.String("run_id", rep.RunID), zap.Error(err))
		return rep, err
	}
	for _, o := range r.Observers {
		o(rep)
	}
	r.Logger.Debug("rechecker_stored",
		zap.String("run_id", rep.RunID),
		zap.Float64("success_rate", rep.SuccessRate()),
		zap.String("recommendation", string(rep.Recommendation())),
	)
	return rep, nil
}
