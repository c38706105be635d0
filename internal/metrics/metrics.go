package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors for the judging pipeline.
// All observe helpers are nil-safe so wiring metrics stays optional.
type Metrics struct {
	SubmissionsJudged *prometheus.CounterVec
	JudgeFailures     prometheus.Counter
	JudgeDuration     prometheus.Histogram
	TestCasesExecuted *prometheus.CounterVec
}

// New registers the judge collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		SubmissionsJudged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_submissions_total",
			Help: "Total number of judged submissions by terminal status",
		}, []string{"status"}),
		JudgeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "judge_failures_total",
			Help: "Total number of submit calls aborted by infrastructure faults",
		}),
		JudgeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "judge_duration_seconds",
			Help:    "End-to-end judging latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		TestCasesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_test_cases_total",
			Help: "Total number of executed test cases by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveJudged records one judged submission.
func (m *Metrics) ObserveJudged(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SubmissionsJudged.WithLabelValues(status).Inc()
	m.JudgeDuration.Observe(elapsed.Seconds())
}

// ObserveJudgeFailure records an aborted submit call.
func (m *Metrics) ObserveJudgeFailure() {
	if m == nil {
		return
	}
	m.JudgeFailures.Inc()
}

// ObserveTestCase records one executed test case.
func (m *Metrics) ObserveTestCase(passed bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.TestCasesExecuted.WithLabelValues(outcome).Inc()
}
