package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	escalationsTotal *prometheus.CounterVec
	confidenceScore  prometheus.Histogram
	evaluateDuration prometheus.Histogram

	activeSessions prometheus.Gauge
	sessionsSwept  prometheus.Counter

	ledgerSize           prometheus.Gauge
	ledgerAppendDuration prometheus.Histogram
	sinkErrorsTotal      prometheus.Counter

	fallbackResponsesTotal prometheus.Counter
	memorySummariesTotal   *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			decisionsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "decisions_total",
					Help: "Total escalation decisions by outcome.",
				},
				[]string{"outcome"},
			),
			escalationsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "escalations_total",
					Help: "Total escalations by type and priority.",
				},
				[]string{"type", "priority"},
			),
			confidenceScore: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "confidence_score",
					Help:    "Distribution of computed confidence scores.",
					Buckets: prometheus.LinearBuckets(0, 0.1, 11),
				},
			),
			evaluateDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "evaluate_duration_seconds",
					Help:    "Duration of evaluate-and-decide calls in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "active_sessions",
					Help: "Current tracked session count.",
				},
			),
			sessionsSwept: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sessions_swept_total",
					Help: "Total idle sessions evicted by the sweeper.",
				},
			),
			ledgerSize: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "ledger_size",
					Help: "Current number of escalation records in the ledger.",
				},
			),
			ledgerAppendDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "ledger_append_duration_seconds",
					Help:    "Ledger append duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			sinkErrorsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "ledger_sink_errors_total",
					Help: "Total ledger sink write failures.",
				},
			),
			fallbackResponsesTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "fallback_responses_total",
					Help: "Total pattern-matched fallback responses served.",
				},
			),
			memorySummariesTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "memory_summaries_total",
					Help: "Total conversation summarizations by provider.",
				},
				[]string{"provider"},
			),
		}

		prometheus.MustRegister(
			m.decisionsTotal,
			m.escalationsTotal,
			m.confidenceScore,
			m.evaluateDuration,
			m.activeSessions,
			m.sessionsSwept,
			m.ledgerSize,
			m.ledgerAppendDuration,
			m.sinkErrorsTotal,
			m.fallbackResponsesTotal,
			m.memorySummariesTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func RecordDecision(escalated bool, confidence float64, duration time.Duration) {
	m := getMetrics()
	outcome := "continue"
	if escalated {
		outcome = "escalate"
	}
	m.decisionsTotal.WithLabelValues(outcome).Inc()
	m.confidenceScore.Observe(confidence)
	m.evaluateDuration.Observe(duration.Seconds())
}

func RecordEscalation(escalationType, priority string) {
	m := getMetrics()
	m.escalationsTotal.WithLabelValues(escalationType, priority).Inc()
}

func SetActiveSessions(count int) {
	m := getMetrics()
	m.activeSessions.Set(float64(count))
}

func RecordSessionsSwept(count int) {
	m := getMetrics()
	m.sessionsSwept.Add(float64(count))
}

func RecordLedgerAppend(size int, duration time.Duration) {
	m := getMetrics()
	m.ledgerSize.Set(float64(size))
	m.ledgerAppendDuration.Observe(duration.Seconds())
}

func RecordSinkError() {
	m := getMetrics()
	m.sinkErrorsTotal.Inc()
}

func RecordFallbackResponse() {
	m := getMetrics()
	m.fallbackResponsesTotal.Inc()
}

func RecordMemorySummary(provider string) {
	m := getMetrics()
	m.memorySummariesTotal.WithLabelValues(provider).Inc()
}
