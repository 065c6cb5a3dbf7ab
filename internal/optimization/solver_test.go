package optimization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/copyleftdev/vrpls/internal/vrp"
	"github.com/copyleftdev/vrpls/internal/vrp/vrptest"
)

// fixedInitializer returns a preset solution and counts its calls.
type fixedInitializer struct {
	routes []vrp.Route
	err    error
	calls  int
}

func (f *fixedInitializer) InitialSolution(p *vrp.Problem) (*vrp.Solution, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s := vrp.NewSolution(p)
	copy(s.Routes, f.routes)
	return s, nil
}

func (f *fixedInitializer) Name() string { return "fixed" }

// funcStrategy adapts a function to Strategy and counts its calls.
type funcStrategy struct {
	fn    func(s *vrp.Solution)
	calls int
}

func (f *funcStrategy) Minimize(s *vrp.Solution) {
	f.calls++
	if f.fn != nil {
		f.fn(s)
	}
}

// swapOnce reverses the first route on its first call and does nothing after.
func swapOnce() *funcStrategy {
	done := false
	return &funcStrategy{fn: func(s *vrp.Solution) {
		if done {
			return
		}
		done = true
		c := s.Routes[0].Customers()
		for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
			c[i], c[j] = c[j], c[i]
		}
		s.Routes[0] = vrp.NewRoute(s.Problem().Depot, c...)
	}}
}

// splitProblem has six zero-demand customers, six vehicles, free depot legs and
// unit cost between customers: a route with k customers costs k-1.
func splitProblem() *vrp.Problem {
	const n = 7
	locs := make([]vrp.Location, n)
	rows := make([][]float64, n)
	for i := range locs {
		locs[i] = vrp.Location{ID: i}
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			if i != j && i != 0 && j != 0 {
				rows[i][j] = 1
			}
		}
	}
	return &vrp.Problem{
		Locations: locs,
		Vehicles:  vrp.NewHomogeneousFleet(6, 1),
		Costs:     vrp.MustCostMatrix(rows),
	}
}

// peel moves the last customer of the first crowded route into an empty
// route, lowering the cost of splitProblem by exactly one per call.
func peel() *funcStrategy {
	return &funcStrategy{fn: func(s *vrp.Solution) {
		depot := s.Problem().Depot
		for i, r := range s.Routes {
			c := r.Customers()
			if len(c) < 2 {
				continue
			}
			for j, other := range s.Routes {
				if other.IsEmpty() {
					s.Routes[i] = vrp.NewRoute(depot, c[:len(c)-1]...)
					s.Routes[j] = vrp.NewRoute(depot, c[len(c)-1])
					return
				}
			}
		}
	}}
}

func TestSolveSymmetricSwapConvergesAfterOneStep(t *testing.T) {
	p := vrptest.Triangle()
	init := &fixedInitializer{routes: []vrp.Route{vrp.NewRoute(0, 1, 2)}}
	strategy := swapOnce()

	res, err := NewSolver(init, strategy).Run(p)
	require.NoError(t, err)

	assert.Equal(t, 1, strategy.calls)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, 0, res.Improvements)
	assert.Equal(t, 3.0, res.InitialCost)
	assert.Equal(t, 3.0, res.Cost)
	assert.Equal(t, Converged, res.State)
	assert.Equal(t, []int{0, 2, 1, 0}, res.Solution.Routes[0].Visits)
	assert.True(t, res.Solution.IsValid(p))
}

func TestSolveDecreasingStrategyRunsToZero(t *testing.T) {
	p := splitProblem()
	init := &fixedInitializer{routes: []vrp.Route{vrp.NewRoute(0, 1, 2, 3, 4, 5, 6)}}
	strategy := peel()

	var costs []float64
	res, err := NewSolver(init, strategy, WithHook(func(_ int, cost float64) {
		costs = append(costs, cost)
	})).Run(p)
	require.NoError(t, err)

	assert.Equal(t, 5.0, res.InitialCost)
	assert.Equal(t, 5, res.Improvements)
	assert.Equal(t, 6, res.Steps)
	assert.Equal(t, 0.0, res.Cost)
	assert.Equal(t, []float64{4, 3, 2, 1, 0, 0}, costs)
	assert.True(t, res.Solution.IsValid(p))
}

func TestSolveStopsOnWorseningStep(t *testing.T) {
	p := splitProblem()
	init := &fixedInitializer{routes: []vrp.Route{
		vrp.NewRoute(0, 1, 2, 3), vrp.NewRoute(0, 4, 5, 6),
	}}
	// Merging two routes raises the cost from 4 to 5.
	strategy := &funcStrategy{fn: func(s *vrp.Solution) {
		s.Routes[0] = vrp.NewRoute(0, 1, 2, 3, 4, 5, 6)
		s.Routes[1] = vrp.Route{}
	}}

	res, err := NewSolver(init, strategy).Run(p)
	require.NoError(t, err)

	assert.Equal(t, 1, strategy.calls)
	assert.Equal(t, 4.0, res.InitialCost)
	assert.Equal(t, 5.0, res.Cost)
	assert.Equal(t, Converged, res.State)
}

func TestSolveMonotonicity(t *testing.T) {
	p := splitProblem()
	init := &fixedInitializer{routes: []vrp.Route{vrp.NewRoute(0, 1, 2, 3, 4, 5, 6)}}

	rec := NewRecorder()
	res, err := NewSolver(init, peel(), WithHook(rec.Hook())).Run(p)
	require.NoError(t, err)

	evals := rec.Evaluations()
	require.Len(t, evals, res.Steps)
	prev := res.InitialCost
	for i, e := range evals[:len(evals)-1] {
		assert.Equal(t, i+1, e.Iteration)
		assert.Less(t, e.Cost, prev)
		prev = e.Cost
	}
	assert.GreaterOrEqual(t, evals[len(evals)-1].Cost, prev)
}

func TestSolveInvalidProblem(t *testing.T) {
	p := vrptest.Triangle()
	p.Vehicles = nil
	init := &fixedInitializer{routes: []vrp.Route{vrp.NewRoute(0, 1, 2)}}
	strategy := swapOnce()

	s, err := NewSolver(init, strategy).Solve(p)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrInvalidProblem)
	assert.ErrorIs(t, err, vrp.ErrMalformedProblem)
	assert.Zero(t, init.calls, "initializer must not run")
	assert.Zero(t, strategy.calls, "strategy must not run")

	solverErr, ok := IsSolverError(err)
	require.True(t, ok)
	assert.Equal(t, "solve", solverErr.Op)
	assert.Equal(t, "solver", solverErr.Component)
}

func TestSolveInvalidInitialSolution(t *testing.T) {
	tests := []struct {
		name    string
		routes  []vrp.Route
		wantErr error
	}{
		{name: "missing customer", routes: []vrp.Route{vrp.NewRoute(0, 1)}, wantErr: vrp.ErrCoverage},
		{name: "depot mid-route", routes: []vrp.Route{{Visits: []int{0, 1, 0, 2, 0}}}, wantErr: vrp.ErrInvalidRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			init := &fixedInitializer{routes: tt.routes}
			strategy := swapOnce()

			_, err := NewSolver(init, strategy).Solve(vrptest.Triangle())
			assert.ErrorIs(t, err, ErrInvalidSolution)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, init.calls)
			assert.Zero(t, strategy.calls)
		})
	}
}

func TestSolveCapacityViolationFromInitializer(t *testing.T) {
	p := vrptest.Triangle()
	p.Vehicles[0].Capacity = 1
	init := &fixedInitializer{routes: []vrp.Route{vrp.NewRoute(0, 1, 2)}}

	_, err := NewSolver(init, swapOnce()).Solve(p)
	assert.ErrorIs(t, err, ErrInvalidSolution)
	assert.ErrorIs(t, err, vrp.ErrCapacityExceeded)
}

func TestSolveInitializerError(t *testing.T) {
	cause := &ConstructionError{Initializer: "fixed", Reason: "fleet too small", Unassigned: []int{2}}
	init := &fixedInitializer{err: cause}
	strategy := swapOnce()

	_, err := NewSolver(init, strategy).Solve(vrptest.Triangle())
	assert.ErrorIs(t, err, ErrConstruction)

	var ce *ConstructionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []int{2}, ce.Unassigned)
	assert.Contains(t, err.Error(), "fleet too small")
	assert.Zero(t, strategy.calls)
}

func TestSolveLogsSteps(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	init := &fixedInitializer{routes: []vrp.Route{vrp.NewRoute(0, 1, 2)}}

	_, err := NewSolver(init, swapOnce(), WithLogger(zap.New(core))).Solve(vrptest.Triangle())
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("initial solution").Len())
	assert.Equal(t, 1, logs.FilterMessage("step").Len())
	converged := logs.FilterMessage("converged").All()
	require.Len(t, converged, 1)
	assert.Equal(t, "fixed", converged[0].ContextMap()["initializer"])
	assert.Equal(t, "custom", converged[0].ContextMap()["strategy"])
}

func TestRunReportsFailedState(t *testing.T) {
	malformed := vrptest.Triangle()
	malformed.Vehicles = nil

	tests := []struct {
		name    string
		problem *vrp.Problem
		init    *fixedInitializer
		want    State
	}{
		{
			name:    "rejected problem",
			problem: malformed,
			init:    &fixedInitializer{routes: []vrp.Route{vrp.NewRoute(0, 1, 2)}},
			want:    Unvalidated,
		},
		{
			name:    "initializer error",
			problem: vrptest.Triangle(),
			init:    &fixedInitializer{err: &ConstructionError{Initializer: "fixed", Reason: "fleet too small"}},
			want:    Initialized,
		},
		{
			name:    "invalid initial solution",
			problem: vrptest.Triangle(),
			init:    &fixedInitializer{routes: []vrp.Route{vrp.NewRoute(0, 1)}},
			want:    Initialized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewSolver(tt.init, swapOnce()).Run(tt.problem)
			require.Error(t, err)
			require.NotNil(t, res)
			assert.Equal(t, tt.want, res.State)
			assert.Nil(t, res.Solution)
			assert.Zero(t, res.Steps)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unvalidated", Unvalidated.String())
	assert.Equal(t, "initialized", Initialized.String())
	assert.Equal(t, "improving", Improving.String())
	assert.Equal(t, "converged", Converged.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("boom")
	assert.Equal(t, "solver: solve: failed: boom",
		WrapError(cause, "failed").WithOperation("solve").WithComponent("solver").Error())
	assert.Equal(t, "failed 3: boom", WrapErrorf(cause, "failed %d", 3).Error())
	assert.Nil(t, WrapError(nil, "nothing"))
	assert.Equal(t, "<nil>", (*Error)(nil).Error())
}

func BenchmarkSolve(b *testing.B) {
	p := splitProblem()
	for i := 0; i < b.N; i++ {
		init := &fixedInitializer{routes: []vrp.Route{vrp.NewRoute(0, 1, 2, 3, 4, 5, 6)}}
		if _, err := NewSolver(init, peel()).Solve(p); err != nil {
			b.Fatal(err)
		}
	}
}
