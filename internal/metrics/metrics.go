// Package metrics exposes report and API metrics in Prometheus format.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/statuscheck/internal/domain"
)

const namespace = "statuscheck"

// Recorder owns a registry with the report gauges. Each Observe replaces
// the previous run's values.
type Recorder struct {
	reg *prometheus.Registry

	successRate  prometheus.Gauge
	tests        *prometheus.GaugeVec
	categoryRate *prometheus.GaugeVec
	probeSuccess *prometheus.GaugeVec
	probeLatency *prometheus.GaugeVec
	runsTotal    prometheus.Counter
	lastRun      prometheus.Gauge
	runDuration  prometheus.Histogram
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Recorder. withRuntime adds Go and process collectors, which
// only make sense for long-running processes.
func New(withRuntime bool) *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		successRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "success_rate_percent",
			Help:      "Overall success rate of the last run, one decimal",
		}),
		tests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tests",
			Help:      "Probe outcomes of the last run by status",
		}, []string{"status"}),
		categoryRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_success_rate_percent",
			Help:      "Success rate per category of the last run",
		}, []string{"category"}),
		probeSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_success",
			Help:      "1 when the probe succeeded in the last run, 0 otherwise",
		}, []string{"category", "probe"}),
		probeLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Probe latency in the last run",
		}, []string{"category", "probe"}),
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last report was generated",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full run",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path", "status"}),
	}
	r.reg.MustRegister(
		r.successRate, r.tests, r.categoryRate, r.probeSuccess, r.probeLatency,
		r.runsTotal, r.lastRun, r.runDuration, r.httpRequests, r.httpDuration,
	)
	if withRuntime {
		r.reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observe publishes a finished report.
func (r *Recorder) Observe(rep domain.Report) {
	r.successRate.Set(rep.SuccessRate())
	r.tests.WithLabelValues(string(domain.StatusSuccess)).Set(float64(rep.Successful()))
	r.tests.WithLabelValues(string(domain.StatusWarning)).Set(float64(rep.Warnings()))
	r.tests.WithLabelValues(string(domain.StatusFailure)).Set(float64(rep.Failed()))

	r.categoryRate.Reset()
	r.probeSuccess.Reset()
	r.probeLatency.Reset()
	for _, c := range rep.Categories {
		r.categoryRate.WithLabelValues(c.Name).Set(c.SuccessRate())
		for _, t := range c.Tests {
			v := 0.0
			if t.Outcome.Status == domain.StatusSuccess {
				v = 1
			}
			r.probeSuccess.WithLabelValues(c.Name, t.Name).Set(v)
			r.probeLatency.WithLabelValues(c.Name, t.Name).Set(t.Outcome.Latency.Seconds())
		}
	}
	r.runsTotal.Inc()
	r.lastRun.Set(float64(rep.GeneratedAt.Unix()))
	r.runDuration.Observe(rep.Duration.Seconds())
}

// Handler serves the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// WriteTextfile writes the registry for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
