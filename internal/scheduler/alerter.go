package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuscheck/internal/domain"
	"github.com/hamed0406/statuscheck/internal/notify"
	"github.com/hamed0406/statuscheck/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the latest report and notifies when a category flips
// between passing (success rate >= 75%) and failing.
type Alerter struct {
	reports  repo.ReportStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	log      *zap.Logger
	now      func() time.Time

	lastRunID string
}

func NewAlerter(
	reports repo.ReportStore,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
	log *zap.Logger,
) *Alerter {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Alerter{
		reports:  reports,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	a.logScan(a.scanOnce(ctx))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			a.logScan(a.scanOnce(ctx))
		}
	}
}

func (a *Alerter) logScan(err error) {
	if err != nil {
		a.log.Warn("alerter_scan_error", zap.Error(err))
	}
}

// scanOnce evaluates the latest report once per run ID.
func (a *Alerter) scanOnce(ctx context.Context) error {
	rep, err := a.reports.Latest(ctx)
	if err != nil {
		return err
	}
	if rep == nil || rep.RunID == a.lastRunID {
		return nil
	}
	if err := a.Evaluate(ctx, *rep); err != nil {
		return err
	}
	a.lastRunID = rep.RunID
	return nil
}

// Evaluate compares every non-empty category with its recorded state.
func (a *Alerter) Evaluate(ctx context.Context, rep domain.Report) error {
	now := a.now()
	for _, c := range rep.Categories {
		if c.Total() == 0 {
			continue
		}
		passing := c.SuccessRate() >= domain.PassThreshold

		rec, err := a.alertDB.Get(ctx, c.Name)
		if err != nil {
			return fmt.Errorf("alert state %s: %w", c.Name, err)
		}

		// A first sighting only alerts when the category is already failing.
		stateChanged := rec == nil || rec.Passing != passing
		if rec == nil && passing {
			if err := a.alertDB.Set(ctx, c.Name, passing, time.Time{}); err != nil {
				return fmt.Errorf("record state %s: %w", c.Name, err)
			}
			continue
		}

		// Cooldown only matters for failing alerts.
		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		failAlert := stateChanged && !passing && cooled
		recoveryAlert := stateChanged && passing && a.cfg.AlertOnRecovery // bypass cooldown

		if failAlert || recoveryAlert {
			title, text := message(rep, c, passing)
			if err := a.notifier.Send(ctx, title, text); err != nil {
				a.log.Warn("alert_send_failed", zap.String("category", c.Name), zap.Error(err))
			} else {
				a.log.Info("alert_sent", zap.String("category", c.Name), zap.Bool("passing", passing))
			}
			if err := a.alertDB.Set(ctx, c.Name, passing, now); err != nil {
				return fmt.Errorf("record alert %s: %w", c.Name, err)
			}
			continue
		}

		// State changed but no send (failing within cooldown, or recovery
		// alerts disabled): record the new state and keep the send time.
		if stateChanged {
			if err := a.alertDB.Set(ctx, c.Name, passing, time.Time{}); err != nil {
				return fmt.Errorf("record state %s: %w", c.Name, err)
			}
		}
	}
	return nil
}

func message(rep domain.Report, c domain.CategoryResult, passing bool) (string, string) {
	name := strings.ToUpper(c.Name)
	title := "🔴 Category " + name + " failing"
	if passing {
		title = "🟢 Category " + name + " recovered"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Success rate: %.1f%% (%d/%d passed, %d warnings)\n",
		c.SuccessRate(), c.Passed(), c.Total(), c.Warnings())
	var failed []string
	for _, t := range c.Tests {
		if t.Outcome.Status == domain.StatusFailure {
			failed = append(failed, t.Name+" ["+t.Outcome.StatusText+"]")
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "Failed: %s\n", strings.Join(failed, ", "))
	}
	fmt.Fprintf(&b, "Overall: %.1f%% %s\nRun: %s\nGenerated: %s",
		rep.SuccessRate(), rep.Recommendation(), rep.RunID, rep.GeneratedAt.Format(time.RFC3339))
	return title, b.String()
}
