// Package runner executes category plans of probes and feeds an aggregator.
package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/statuscheck/internal/aggregate"
	"github.com/hamed0406/statuscheck/internal/domain"
	"github.com/hamed0406/statuscheck/internal/probe"
)

// Step is one named probe in a plan.
type Step struct {
	Name    string
	Checker probe.Checker
	Target  probe.Target
}

// Plan is the ordered list of steps for one category.
type Plan struct {
	Category string
	Steps    []Step
}

type Runner struct {
	Logger      *zap.Logger
	Tracer      trace.Tracer
	Concurrency int
}

func New(logger *zap.Logger, tracer trace.Tracer, concurrency int) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer("statuscheck")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{Logger: logger, Tracer: tracer, Concurrency: concurrency}
}

// RunAll runs every plan concurrently and records into agg. Categories are
// registered up front so the report keeps plan order. The returned error is
// only the parent context's error; probe failures are outcomes.
func (r *Runner) RunAll(ctx context.Context, plans []Plan, agg *aggregate.Aggregator) error {
	for _, p := range plans {
		agg.Register(p.Category)
	}
	var g errgroup.Group
	for _, p := range plans {
		p := p
		g.Go(func() error {
			r.RunCategory(ctx, p, agg)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// Run executes plans into a fresh aggregator and returns the finalized
// report. The error is the parent context's error, if any; the report is
// complete either way.
func (r *Runner) Run(ctx context.Context, plans []Plan) (domain.Report, error) {
	agg := aggregate.New()
	ctx, span := r.Tracer.Start(ctx, "run",
		trace.WithAttributes(attribute.String("run.id", agg.RunID())))
	defer span.End()

	err := r.RunAll(ctx, plans, agg)
	rep := agg.Finalize()
	span.SetAttributes(
		attribute.Int("run.total", rep.TotalTests()),
		attribute.Float64("run.success_rate", rep.SuccessRate()),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	r.Logger.Info("run_finished",
		zap.String("run_id", rep.RunID),
		zap.Int("total", rep.TotalTests()),
		zap.Int("successful", rep.Successful()),
		zap.Int("warnings", rep.Warnings()),
		zap.Int("failed", rep.Failed()),
		zap.Float64("success_rate", rep.SuccessRate()),
		zap.Duration("duration", rep.Duration),
	)
	return rep, err
}

// RunCategory runs the steps with bounded concurrency. A failing step never
// stops the others. Outcomes are recorded in step order.
func (r *Runner) RunCategory(ctx context.Context, p Plan, agg *aggregate.Aggregator) {
	agg.Register(p.Category)
	outcomes := make([]domain.Outcome, len(p.Steps))

	sem := make(chan struct{}, r.Concurrency)
	var wg sync.WaitGroup
	for i, s := range p.Steps {
		i, s := i, s
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			outcomes[i] = r.runStep(ctx, p.Category, s)
		}()
	}
	wg.Wait()

	cat := domain.CategoryResult{Name: p.Category}
	for i, s := range p.Steps {
		agg.Record(p.Category, s.Name, outcomes[i])
		cat.Tests = append(cat.Tests, domain.TestResult{Name: s.Name, Outcome: outcomes[i]})
	}
	r.Logger.Info("category_finished",
		zap.String("category", p.Category),
		zap.Int("passed", cat.Passed()),
		zap.Int("warnings", cat.Warnings()),
		zap.Int("failed", cat.Failed()),
	)
}

func (r *Runner) runStep(ctx context.Context, category string, s Step) domain.Outcome {
	timeout := s.Target.EffectiveTimeout()
	ctx, span := r.Tracer.Start(ctx, "probe "+category+"/"+s.Name,
		trace.WithAttributes(
			attribute.String("probe.category", category),
			attribute.String("probe.name", s.Name),
			attribute.String("probe.target", s.Target.String()),
		))
	defer span.End()

	start := time.Now()
	out := r.execute(ctx, s, timeout)
	if out.Latency == 0 {
		out = out.WithLatency(time.Since(start))
	}
	if s.Target.Optional {
		out = out.AsWarning()
	}

	span.SetAttributes(
		attribute.String("probe.status", string(out.Status)),
		attribute.String("probe.status_text", out.StatusText),
	)
	fields := []zap.Field{
		zap.String("category", category),
		zap.String("probe", s.Name),
		zap.String("target", s.Target.String()),
		zap.String("status", string(out.Status)),
		zap.String("status_text", out.StatusText),
		zap.Duration("latency", out.Latency),
		zap.String("detail", out.Detail),
	}
	if out.Status == domain.StatusFailure {
		span.SetStatus(codes.Error, out.Detail)
		r.Logger.Warn("probe_checked", fields...)
	} else {
		r.Logger.Debug("probe_checked", fields...)
	}
	return out
}

// execute runs the checker in its own goroutine so a checker that ignores
// its context still resolves once the deadline passes.
func (r *Runner) execute(ctx context.Context, s Step, timeout time.Duration) domain.Outcome {
	if s.Checker == nil {
		return domain.Failure(domain.TextError, "no checker configured")
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan domain.Outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- domain.Failure(domain.TextError, fmt.Sprintf("probe panicked: %v", rec))
			}
		}()
		ch <- s.Checker.Check(cctx, s.Target)
	}()

	select {
	case out := <-ch:
		return out
	case <-cctx.Done():
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return domain.Timeout(timeout)
		}
		return domain.Failure(domain.TextError, "run cancelled")
	}
}

// Filter keeps plans whose category is in names. No names keeps all.
func Filter(plans []Plan, names ...string) []Plan {
	if len(names) == 0 {
		return plans
	}
	var out []Plan
	for _, p := range plans {
		if slices.Contains(names, p.Category) {
			out = append(out, p)
		}
	}
	return out
}
