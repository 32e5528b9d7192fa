// Package metrics owns the prometheus collectors shared by the api and workers
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "satyanetra"

// Metrics groups every collector the process exports
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	AnalysisQueueDepth prometheus.Gauge
	AnalysisDuration   *prometheus.HistogramVec
	AnalysisOutcomes   *prometheus.CounterVec

	InferenceCalls *prometheus.CounterVec
	BreakerState   *prometheus.GaugeVec

	StreamDropped *prometheus.CounterVec

	AlertsRaised     *prometheus.CounterVec
	AlertsSuppressed *prometheus.CounterVec

	GraphNodes     prometheus.Gauge
	GraphEdges     prometheus.Gauge
	ClusterRuns    *prometheus.CounterVec
	ClustersActive *prometheus.GaugeVec

	TrendExports *prometheus.CounterVec

	reg *prometheus.Registry
}

// New builds the collector set on a fresh registry that also carries go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := build(promauto.With(reg))
	m.reg = reg
	return m
}

// Discard returns collectors on a private registry nobody scrapes; used by tests and CLIs
func Discard() *Metrics {
	reg := prometheus.NewRegistry()
	m := build(promauto.With(reg))
	m.reg = reg
	return m
}

// Registry exposes the underlying registry for gathering in tests
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func build(f promauto.Factory) *Metrics {
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route pattern and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		AnalysisQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "analysis", Name: "queue_depth",
			Help: "Content items waiting for a worker",
		}),
		AnalysisDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "analysis", Name: "duration_seconds",
			Help:    "End to end analysis time per content kind",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		AnalysisOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "analysis", Name: "outcomes_total",
			Help: "Finished analyses by terminal status",
		}, []string{"status"}),

		InferenceCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "inference", Name: "calls_total",
			Help: "Inference capability calls by outcome",
		}, []string{"capability", "outcome"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "inference", Name: "breaker_state",
			Help: "Circuit breaker state per capability (0 closed, 1 half-open, 2 open)",
		}, []string{"capability"}),

		StreamDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "stream", Name: "dropped_total",
			Help: "Events dropped because a subscriber buffer was full",
		}, []string{"topic"}),

		AlertsRaised: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "alerts", Name: "raised_total",
			Help: "Alerts stored and published by severity",
		}, []string{"severity"}),
		AlertsSuppressed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "alerts", Name: "suppressed_total",
			Help: "Alerts suppressed by dedup or rate limiting",
		}, []string{"reason"}),

		GraphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "graph", Name: "nodes",
			Help: "Accounts in the interaction graph",
		}),
		GraphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "graph", Name: "edges",
			Help: "Undirected edges in the interaction graph",
		}),
		ClusterRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cluster", Name: "runs_total",
			Help: "Cluster detection runs by outcome",
		}, []string{"outcome"}),
		ClustersActive: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cluster", Name: "active",
			Help: "Published clusters by threat level",
		}, []string{"level"}),

		TrendExports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "trends", Name: "exports_total",
			Help: "Sealed bucket exports to the columnar store by outcome",
		}, []string{"outcome"}),
	}
}
