package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers never share
// collectors. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesCompleted *prometheus.CounterVec
	AnalysesRejected  *prometheus.CounterVec
	AnalysisDuration  *prometheus.HistogramVec
	BatchesProcessed  *prometheus.CounterVec
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	RateLimited       prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AnalysesCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealdesk_analyses_completed_total",
				Help: "Total number of scenario analyses that produced metrics",
			},
			[]string{"exit_strategy"},
		),
		AnalysesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealdesk_analyses_rejected_total",
				Help: "Total number of scenario analyses refused by the engine",
			},
			[]string{"exit_strategy", "kind"},
		),
		AnalysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dealdesk_analysis_duration_seconds",
				Help:    "Duration of a single scenario analysis in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"exit_strategy"},
		),
		BatchesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealdesk_reanalysis_batches_total",
				Help: "Total number of re-analysis batches by outcome",
			},
			[]string{"outcome"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealdesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dealdesk_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "dealdesk_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for extra collectors and tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAnalysis records one engine run; kind is empty on success
func (m *Metrics) ObserveAnalysis(strategy, kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.AnalysisDuration.WithLabelValues(strategy).Observe(took.Seconds())
	if kind == "" {
		m.AnalysesCompleted.WithLabelValues(strategy).Inc()
		return
	}
	m.AnalysesRejected.WithLabelValues(strategy, kind).Inc()
}

func (m *Metrics) ObserveBatch(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.BatchesProcessed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// TrackQueueDepth exports the re-analysis queue length as a gauge
func (m *Metrics) TrackQueueDepth(depth func() int) {
	if m == nil {
		return
	}
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "dealdesk_reanalysis_queue_depth",
		Help: "Number of batches waiting in the re-analysis queue",
	}, func() float64 { return float64(depth()) })
}
