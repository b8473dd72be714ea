// Package metrics exposes ingestion counters to Prometheus.
//
// The server serves the registry on /metrics. One-shot CLI runs have nothing
// to scrape them, so they push the same registry to a Pushgateway when one
// is configured.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/JonMunkholm/tabload/internal/core"
)

// DefaultJob is the Pushgateway job name used when none is configured.
const DefaultJob = "tabload"

// Run outcomes for the runs counter.
const (
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// Metrics owns a private registry with the ingestion collectors.
// It implements core.OutcomeObserver.
type Metrics struct {
	reg *prometheus.Registry

	rows        *prometheus.CounterVec   // tabload_rows_total
	runs        *prometheus.CounterVec   // tabload_runs_total
	runDuration *prometheus.HistogramVec // tabload_run_duration_seconds
}

// New builds the collectors. withRuntime adds the Go and process collectors,
// which only make sense for the long-running server.
func New(withRuntime bool) (*Metrics, error) {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tabload_rows_total",
			Help: "Rows attempted, partitioned by run kind, table and outcome (inserted or failed).",
		}, []string{"kind", "table", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tabload_runs_total",
			Help: "Ingestion runs, partitioned by kind and whether they completed or aborted before the first row.",
		}, []string{"kind", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tabload_run_duration_seconds",
			Help:    "Wall time of completed ingestion runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"kind"}),
	}

	cs := []prometheus.Collector{m.rows, m.runs, m.runDuration}
	if withRuntime {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	for _, c := range cs {
		if err := m.reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return m, nil
}

// ObserveOutcome counts one row outcome.
func (m *Metrics) ObserveOutcome(kind core.RunKind, table string, o core.InsertOutcome) {
	outcome := "failed"
	if o.Success {
		outcome = "inserted"
	}
	m.rows.WithLabelValues(string(kind), table, outcome).Inc()
}

// ObserveRun records a finished run. A nil report means the run aborted
// before any row was attempted.
func (m *Metrics) ObserveRun(kind core.RunKind, rep *core.BatchReport) {
	if rep == nil {
		m.runs.WithLabelValues(string(kind), RunAborted).Inc()
		return
	}
	m.runs.WithLabelValues(string(kind), RunCompleted).Inc()
	m.runDuration.WithLabelValues(string(kind)).Observe(rep.FinishedAt.Sub(rep.StartedAt).Seconds())
}

// TrackActiveRuns exposes a gauge read from fn at scrape time.
func (m *Metrics) TrackActiveRuns(fn func() int) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tabload_active_runs",
		Help: "Ingestion runs currently holding a run slot.",
	}, func() float64 { return float64(fn()) })

	if err := m.reg.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return fmt.Errorf("metrics: register active runs: %w", err)
	}
	return nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Push sends the registry to a Pushgateway, grouped under job.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if gatewayURL == "" {
		return fmt.Errorf("metrics: gateway URL is required")
	}
	if job == "" {
		job = DefaultJob
	}
	if err := push.New(gatewayURL, job).Gatherer(m.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("metrics: push: %w", err)
	}
	return nil
}
