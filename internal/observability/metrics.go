// Package observability exposes Prometheus metrics for the solver
// pipeline and the HTTP boundary.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "auction_solver"

var (
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "solves_total",
		Help:      "Completed solves by outcome (completed, timed_out, baseline).",
	}, []string{"outcome"})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "solve_duration_seconds",
		Help:      "Wall time of a full solve.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "candidates_total",
		Help:      "Candidate strategy runs by strategy and outcome (won, lost, empty, failed, cancelled).",
	}, []string{"strategy", "outcome"})

	winningScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "winning_score",
		Help:      "Score of the most recent winning solution.",
	})

	ordersFilled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "orders_filled_total",
		Help:      "Orders with at least a partial fill in winning solutions.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})
)

// RecordSolve records one finished solve.
func RecordSolve(outcome string, seconds float64) {
	solvesTotal.WithLabelValues(outcome).Inc()
	solveDuration.Observe(seconds)
}

// RecordCandidate records one candidate strategy run.
func RecordCandidate(strategy, outcome string) {
	candidatesTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordWinner records the winning solution's score and fill count.
func RecordWinner(score float64, fills int) {
	winningScore.Set(score)
	ordersFilled.Add(float64(fills))
}

// RecordHTTPRequest records one handled HTTP request.
func RecordHTTPRequest(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
