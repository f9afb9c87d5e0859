// Command statuscheck probes the database, backend, frontend and their
// integration, prints a console report, persists JSON and markdown reports
// and exits 0 when at least 75% of the probes succeeded.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuscheck/internal/battery"
	"github.com/hamed0406/statuscheck/internal/config"
	"github.com/hamed0406/statuscheck/internal/logging"
	"github.com/hamed0406/statuscheck/internal/metrics"
	"github.com/hamed0406/statuscheck/internal/observe"
	"github.com/hamed0406/statuscheck/internal/report"
	"github.com/hamed0406/statuscheck/internal/runner"
)

var version = "dev"

// exitUsage is returned for bad flags or configuration, before any probe runs.
const exitUsage = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "run", "db":
	case "version":
		fmt.Fprintf(stdout, "statuscheck %s\n", version)
		return 0
	default:
		printUsage(stderr)
		return exitUsage
	}

	fs := flag.NewFlagSet("statuscheck "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("STATUSCHECK_CONFIG"), "YAML config file (optional)")
	jsonPath := fs.String("json", "", "JSON report path (default from config)")
	mdPath := fs.String("markdown", "", "markdown report path (default from config)")
	pdfPath := fs.String("pdf", "", "PDF report path (off unless set)")
	promPath := fs.String("metrics", "", "Prometheus textfile path (off unless set)")
	quiet := fs.Bool("quiet", false, "do not print the console report")
	var categories stringList
	fs.Var(&categories, "category", "run only this category (repeatable)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitUsage
	}
	if cmd == "db" {
		// the smoke test only writes artifacts that were asked for
		cfg.Report.JSON, cfg.Report.Markdown, cfg.Report.PDF, cfg.Report.MetricsTextfile = "", "", "", ""
		categories = stringList{battery.Database}
	}
	override(&cfg.Report.JSON, *jsonPath)
	override(&cfg.Report.Markdown, *mdPath)
	override(&cfg.Report.PDF, *pdfPath)
	override(&cfg.Report.MetricsTextfile, *promPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid config:\n%v\n", err)
		return exitUsage
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Dir)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	tracer, shutdown, err := observe.Tracing(cfg.Tracing.Exporter, version)
	if err != nil {
		fmt.Fprintf(stderr, "tracing: %v\n", err)
		return exitUsage
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("trace_shutdown_failed", zap.Error(err))
		}
	}()

	plans := battery.Plans(cfg)
	for _, c := range categories {
		if !slices.ContainsFunc(plans, func(p runner.Plan) bool { return p.Category == c }) {
			fmt.Fprintf(stderr, "unknown category %q\n", c)
			return exitUsage
		}
	}
	plans = runner.Filter(plans, categories...)

	logger.Info("run_started",
		zap.String("version", version),
		zap.Strings("categories", categories),
		zap.Duration("probe_timeout", cfg.Probe.Timeout()),
	)
	rep, err := runner.New(logger, tracer, cfg.Probe.Concurrency).Run(ctx, plans)
	if err != nil {
		logger.Warn("run_interrupted", zap.Error(err))
	}

	if !*quiet {
		if err := report.RenderText(stdout, rep); err != nil {
			logger.Warn("console_report_failed", zap.Error(err))
		}
	}

	// persistence failures are logged and never change the exit code
	em := report.Emitter{
		JSONPath:     cfg.Report.JSON,
		MarkdownPath: cfg.Report.Markdown,
		PDFPath:      cfg.Report.PDF,
		Title:        cfg.Report.Title,
		Logger:       logger,
	}
	_ = em.Emit(rep)
	if cfg.Report.MetricsTextfile != "" {
		rec := metrics.New(false)
		rec.Observe(rep)
		if err := rec.WriteTextfile(cfg.Report.MetricsTextfile); err != nil {
			logger.Warn("report_write_failed", zap.String("kind", "metrics"), zap.Error(err))
		}
	}
	return rep.ExitCode()
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: statuscheck [run|db|version] [flags]

  run      probe every category (default)
  db       probe only the database category
  version  print the version

flags: -config -json -markdown -pdf -metrics -category -quiet
`)
}
