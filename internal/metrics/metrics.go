// Package metrics exposes Prometheus collectors for solves and the HTTP API.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/copyleftdev/vrpls/internal/optimization"
)

// Solve outcomes used as the "outcome" label.
const (
	OutcomeConverged       = "converged"
	OutcomeInvalidProblem  = "invalid_problem"
	OutcomeInvalidSolution = "invalid_solution"
	OutcomeConstruction    = "construction_failed"
	OutcomeError           = "error"
)

var (
	// Registry is the dedicated Prometheus registry for the solver
	Registry = prometheus.NewRegistry()

	// SolvesTotal counts finished solves by component names and outcome
	SolvesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrp_solves_total", Help: "Solves by initializer, strategy and outcome."},
		[]string{"initializer", "strategy", "outcome"},
	)
	// SolveSteps records how many strategy steps a converged solve took
	SolveSteps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "vrp_solve_steps", Help: "Strategy steps per converged solve.", Buckets: prometheus.ExponentialBuckets(1, 2, 12)},
		[]string{"strategy"},
	)
	// SolveDuration records converged solve durations in seconds
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "vrp_solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: prometheus.ExponentialBuckets(0.001, 4, 10)},
		[]string{"strategy"},
	)
	// StrategySteps counts individual strategy steps as they happen
	StrategySteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrp_strategy_steps_total", Help: "Strategy steps applied."},
		[]string{"strategy"},
	)
	// JobsRunning is the number of asynchronous solves in progress
	JobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "vrp_jobs_running", Help: "Asynchronous solve jobs in progress."},
	)

	// HTTPRequests counts requests by method, route, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers every collector on Registry. It is safe to call
// more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(SolvesTotal, SolveSteps, SolveDuration, StrategySteps, JobsRunning)
		Registry.MustRegister(HTTPRequests, HTTPDuration)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// StepHook returns an iteration hook counting the steps of strategy.
func StepHook(strategy string) optimization.IterationHook {
	steps := StrategySteps.WithLabelValues(strategy)
	return func(int, float64) { steps.Inc() }
}

// Outcome classifies the error returned by a solve.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeConverged
	case errors.Is(err, optimization.ErrInvalidProblem):
		return OutcomeInvalidProblem
	case errors.Is(err, optimization.ErrInvalidSolution):
		return OutcomeInvalidSolution
	case errors.Is(err, optimization.ErrConstruction):
		return OutcomeConstruction
	default:
		return OutcomeError
	}
}

// ObserveSolve records the result of one solve.
func ObserveSolve(initializer, strategy string, res *optimization.Result, err error) {
	SolvesTotal.WithLabelValues(initializer, strategy, Outcome(err)).Inc()
	if err != nil || res == nil {
		return
	}
	SolveSteps.WithLabelValues(strategy).Observe(float64(res.Steps))
	SolveDuration.WithLabelValues(strategy).Observe(res.Duration.Seconds())
}

// Middleware records request counts and durations labelled by route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := strconv.Itoa(ww.Status())
		HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
		HTTPDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
