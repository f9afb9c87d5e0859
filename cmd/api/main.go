// Command api serves the latest report to dashboards, re-runs the battery
// on an interval and alerts when a category starts or stops failing.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuscheck/internal/battery"
	"github.com/hamed0406/statuscheck/internal/config"
	"github.com/hamed0406/statuscheck/internal/domain"
	"github.com/hamed0406/statuscheck/internal/httpapi"
	apimw "github.com/hamed0406/statuscheck/internal/httpapi/middleware"
	"github.com/hamed0406/statuscheck/internal/logging"
	"github.com/hamed0406/statuscheck/internal/metrics"
	"github.com/hamed0406/statuscheck/internal/notify"
	"github.com/hamed0406/statuscheck/internal/observe"
	"github.com/hamed0406/statuscheck/internal/repo"
	"github.com/hamed0406/statuscheck/internal/repo/memory"
	"github.com/hamed0406/statuscheck/internal/repo/postgres"
	"github.com/hamed0406/statuscheck/internal/runner"
	"github.com/hamed0406/statuscheck/internal/scheduler"
)

var version = "dev"

type store interface {
	repo.ReportStore
	repo.AlertStore
}

func main() {
	configPath := flag.String("config", os.Getenv("STATUSCHECK_CONFIG"), "YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Dir)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("api_exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	tracer, shutdownTracing, err := observe.Tracing(cfg.Tracing.Exporter, version)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var st store = memory.New()
	if cfg.API.StoreDSN != "" {
		pg, err := postgres.New(ctx, cfg.API.StoreDSN, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		st = pg
	}

	rec := metrics.New(true)
	plans := battery.Plans(cfg)
	rn := runner.New(logger, tracer, cfg.Probe.Concurrency)
	runOnce := func(ctx context.Context) (domain.Report, error) { return rn.Run(ctx, plans) }
	rechecker := scheduler.NewRechecker(logger, st, runOnce, cfg.API.RunInterval(), rec.Observe)

	notifiers := notify.Multi{notify.Log{Logger: logger}}
	if slack := notify.NewSlack(cfg.Alerts.SlackWebhookURL); slack != nil {
		notifiers = append(notifiers, slack)
	}
	alerter := scheduler.NewAlerter(st, st, notifiers, scheduler.AlerterConfig{
		AlertOnRecovery: cfg.Alerts.OnRecovery,
		Cooldown:        cfg.Alerts.Cooldown(),
	}, logger)

	srv := httpapi.NewServer(logger, st, rechecker, rec)
	if cfg.Report.Title != "" {
		srv.Title = cfg.Report.Title
	}
	keys := apimw.Keys{Public: cfg.API.PublicKeys, Admin: cfg.API.AdminKeys}
	limits := httpapi.Limits{
		PublicRPM:   cfg.API.PublicRPM,
		PublicBurst: cfg.API.PublicBurst,
		AdminRPM:    cfg.API.AdminRPM,
		AdminBurst:  cfg.API.AdminBurst,
	}
	httpSrv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           srv.Router(keys, cfg.API.AllowedOrigins, limits),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go rechecker.Run(ctx)
	go func() { _ = alerter.Run(ctx) }()

	errc := make(chan error, 1)
	go func() {
		logger.Info("api_listen",
			zap.String("addr", cfg.API.Addr),
			zap.Bool("auth", keys.Enabled()),
			zap.Duration("run_interval", cfg.API.RunInterval()),
			zap.Bool("postgres_store", cfg.API.StoreDSN != ""),
		)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("api_shutdown")
	return httpSrv.Shutdown(shutdownCtx)
}
