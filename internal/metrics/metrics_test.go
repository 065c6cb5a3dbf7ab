package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/optimization/initializers"
	"github.com/copyleftdev/vrpls/internal/optimization/strategies"
	"github.com/copyleftdev/vrpls/internal/vrp/vrptest"
)

// sample returns the counter value or histogram sample count of the series
// name{labels}, or 0 when the series does not exist yet.
func sample(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			if m.GetHistogram() != nil {
				return float64(m.GetHistogram().GetSampleCount())
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestOutcome(t *testing.T) {
	p := vrptest.Triangle()
	p.Vehicles = nil
	_, invalidProblem := optimization.NewSolver(initializers.NewNearestNeighbor(), strategies.NewTwoOpt()).Run(p)

	_, construction := optimization.NewSolver(initializers.NewSavings(), strategies.NewTwoOpt()).Run(vrptest.Line(2, 1, 0.5))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: OutcomeConverged},
		{name: "invalid problem", err: invalidProblem, want: OutcomeInvalidProblem},
		{name: "construction", err: construction, want: OutcomeConstruction},
		{name: "invalid solution", err: optimization.WrapError(optimization.ErrInvalidSolution, "x"), want: OutcomeInvalidSolution},
		{name: "other", err: errors.New("boom"), want: OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestObserveSolveAndStepHook(t *testing.T) {
	RegisterDefault()
	RegisterDefault()

	labels := map[string]string{"initializer": "nearest-neighbor", "strategy": "metrics-test", "outcome": OutcomeConverged}
	before := sample(t, "vrp_solves_total", labels)
	stepsBefore := sample(t, "vrp_strategy_steps_total", map[string]string{"strategy": "metrics-test"})

	p := vrptest.Random(t, 11, 12, 3, 6)
	solver := optimization.NewSolver(initializers.NewNearestNeighbor(), strategies.NewVND(),
		optimization.WithHook(StepHook("metrics-test")))
	res, err := solver.Run(p)
	require.NoError(t, err)
	ObserveSolve("nearest-neighbor", "metrics-test", res, err)

	assert.Equal(t, before+1, sample(t, "vrp_solves_total", labels))
	assert.Equal(t, stepsBefore+float64(res.Steps), sample(t, "vrp_strategy_steps_total", map[string]string{"strategy": "metrics-test"}))
	assert.GreaterOrEqual(t, sample(t, "vrp_solve_steps", map[string]string{"strategy": "metrics-test"}), 1.0)

	failed := map[string]string{"initializer": "savings", "strategy": "metrics-test", "outcome": OutcomeInvalidProblem}
	failedBefore := sample(t, "vrp_solves_total", failed)
	ObserveSolve("savings", "metrics-test", nil, optimization.WrapError(optimization.ErrInvalidProblem, "x"))
	assert.Equal(t, failedBefore+1, sample(t, "vrp_solves_total", failed))
}

func TestMiddlewareAndHandler(t *testing.T) {
	RegisterDefault()

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", Handler())

	labels := map[string]string{"method": "GET", "path": "/jobs/{id}", "status": "404"}
	before := sample(t, "http_requests_total", labels)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, sample(t, "http_requests_total", labels))

	srv := httptest.NewServer(r)
	defer srv.Close()
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}
