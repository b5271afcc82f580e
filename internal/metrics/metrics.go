package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics. A nil *Registry records nothing.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	opinionRequests    *prometheus.CounterVec
	opinionDuration    *prometheus.HistogramVec
	fallbacks          *prometheus.CounterVec
	evaluations        *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	strategyDecisions  *prometheus.CounterVec
	sinkPublishes      *prometheus.CounterVec
	watchlistSymbols   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)

	r.opinionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_opinion_requests_total",
			Help: "Opinion backend calls by backend and outcome",
		},
		[]string{"backend", "status"},
	)
	r.opinionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quorum_opinion_duration_seconds",
			Help:    "Opinion backend call duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)
	r.fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_fallbacks_total",
			Help: "Fallbacks taken, by stage",
		},
		[]string{"stage"},
	)
	r.evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_evaluations_total",
			Help: "Symbol evaluations by outcome",
		},
		[]string{"status"},
	)
	r.evaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quorum_evaluation_duration_seconds",
			Help:    "End-to-end evaluation duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.strategyDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_strategy_decisions_total",
			Help: "Strategy decisions by type and source",
		},
		[]string{"strategy_type", "source"},
	)
	r.sinkPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quorum_sink_publish_total",
			Help: "Evaluation publishes by sink and outcome",
		},
		[]string{"sink", "status"},
	)
	r.watchlistSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quorum_watchlist_symbols",
			Help: "Number of symbols in watchlist",
		},
	)

	reg.MustRegister(r.opinionRequests)
	reg.MustRegister(r.opinionDuration)
	reg.MustRegister(r.fallbacks)
	reg.MustRegister(r.evaluations)
	reg.MustRegister(r.evaluationDuration)
	reg.MustRegister(r.strategyDecisions)
	reg.MustRegister(r.sinkPublishes)
	reg.MustRegister(r.watchlistSymbols)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	if r == nil {
		return
	}
	r.httpRequestsTotal.WithLabelValues(method, path, statusToString(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordOpinion records one backend call. status is ok, error, timeout or empty.
func (r *Registry) RecordOpinion(backend, status string, duration float64) {
	if r == nil {
		return
	}
	r.opinionRequests.WithLabelValues(backend, status).Inc()
	r.opinionDuration.WithLabelValues(backend).Observe(duration)
}

// RecordFallback records a fallback: secondary, composite or rules.
func (r *Registry) RecordFallback(stage string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(stage).Inc()
}

// RecordEvaluation records a completed evaluation.
func (r *Registry) RecordEvaluation(status string, duration float64) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(status).Inc()
	r.evaluationDuration.Observe(duration)
}

// RecordStrategy records a strategy decision.
func (r *Registry) RecordStrategy(strategyType, source string) {
	if r == nil {
		return
	}
	r.strategyDecisions.WithLabelValues(strategyType, source).Inc()
}

// RecordSinkPublish records a sink publish attempt.
func (r *Registry) RecordSinkPublish(sink, status string) {
	if r == nil {
		return
	}
	r.sinkPublishes.WithLabelValues(sink, status).Inc()
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	if r == nil {
		return
	}
	r.watchlistSymbols.Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
