// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	shotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salvo_shots_total",
		Help: "Shots fired, by result",
	}, []string{"result"})

	gamesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salvo_games_created_total",
		Help: "Games created",
	})

	gameMoves = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "salvo_game_moves",
		Help:    "Moves needed to sink the whole fleet",
		Buckets: prometheus.LinearBuckets(20, 10, 9),
	})

	liveHypotheses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "salvo_hypothesis_live_nodes",
		Help: "Live hypothesis nodes across cached solver sessions",
	})

	hypothesisChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salvo_hypothesis_changes_total",
		Help: "Structural changes made to hypothesis trees, replays included",
	}, []string{"change"})

	solverRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salvo_solver_rebuilds_total",
		Help: "Solver sessions rebuilt by replaying a shot log",
	})

	strategyDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salvo_strategy_degraded_total",
		Help: "Sessions switched to the heuristic after their strategy rejected a result, by reason",
	}, []string{"reason"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salvo_http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ShotFired counts one shot.
func ShotFired(result string) { shotsTotal.WithLabelValues(result).Inc() }

// GameCreated counts one new game.
func GameCreated() { gamesCreated.Inc() }

// GameFinished records the move count of a won game.
func GameFinished(moves int) { gameMoves.Observe(float64(moves)) }

// AddLiveHypotheses moves the live node gauge by delta.
func AddLiveHypotheses(delta int) { liveHypotheses.Add(float64(delta)) }

// HypothesisChanged counts tree changes made since the last report.
func HypothesisChanged(branches, pruned, collapses, merges int) {
	for change, n := range map[string]int{
		"branch":   branches,
		"prune":    pruned,
		"collapse": collapses,
		"merge":    merges,
	} {
		if n > 0 {
			hypothesisChanges.WithLabelValues(change).Add(float64(n))
		}
	}
}

// SolverRebuilt counts one replayed session.
func SolverRebuilt() { solverRebuilds.Inc() }

// StrategyDegraded counts one session falling back to the heuristic.
func StrategyDegraded(reason string) { strategyDegraded.WithLabelValues(reason).Inc() }

// ObserveRequest records one HTTP request.
func ObserveRequest(method, route string, status int, seconds float64) {
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
