package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Matcher evaluation metrics.
//
// Labels are bounded by the set of registered matcher names, so cardinality
// stays small even for large suites.

var (
	// ExpectationsEvaluated counts expectations run through the engine.
	// Labels:
	//   - matcher: the matcher name
	//   - outcome: "pass", "fail" or "error"
	ExpectationsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchkit",
			Subsystem: "expect",
			Name:      "evaluations_total",
			Help:      "Total number of expectations evaluated",
		},
		[]string{"matcher", "outcome"},
	)

	// EvaluationDuration measures the time spent in a matcher's predicate and
	// message rendering.
	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "matchkit",
			Subsystem: "expect",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating expectations",
			// 1μs to 100ms; predicates are in-process computations
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
		[]string{"matcher"},
	)

	// RescuedErrors counts errors captured by match-unless-raises matchers.
	RescuedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchkit",
			Subsystem: "expect",
			Name:      "rescued_errors_total",
			Help:      "Total number of errors rescued by matchers",
		},
		[]string{"matcher"},
	)

	// PatternCacheLookups counts compiled-pattern cache lookups.
	// Labels:
	//   - result: "hit" or "miss"
	PatternCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchkit",
			Subsystem: "matchers",
			Name:      "pattern_cache_lookups_total",
			Help:      "Total number of compiled pattern cache lookups",
		},
		[]string{"result"},
	)

	// PatternTimeouts counts pattern matches aborted by their match timeout.
	PatternTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "matchkit",
			Subsystem: "matchers",
			Name:      "pattern_timeouts_total",
			Help:      "Total number of pattern matches that timed out",
		},
	)
)

// Outcome label values.
const (
	OutcomePass  = "pass"
	OutcomeFail  = "fail"
	OutcomeError = "error"
)
