package optimization

import (
	"time"

	"github.com/copyleftdev/vrpls/internal/vrp"
)

// Initializer builds a starting solution for a problem.
//
// Implementations should aim for a feasible solution, but the solver does not
// trust them: the result is validated before any improvement starts. When no
// feasible assignment can be derived an Initializer returns a *ConstructionError.
type Initializer interface {
	InitialSolution(p *vrp.Problem) (*vrp.Solution, error)
}

// Strategy improves a solution in place by one step of its neighborhood search.
//
// Minimize may rearrange routes arbitrarily but must leave the solution valid.
// A step that finds no improving move leaves the solution unchanged; that is the
// normal way a solve ends, not an error.
type Strategy interface {
	Minimize(s *vrp.Solution)
}

// Named is implemented by initializers and strategies that report a name for
// logs and metrics.
type Named interface {
	Name() string
}

// NameOf returns v's name, or "custom" when v does not implement Named.
func NameOf(v any) string {
	if n, ok := v.(Named); ok {
		return n.Name()
	}
	return "custom"
}

// IterationHook observes the solver after each strategy step with the step
// number (starting at 1) and the recomputed cost.
type IterationHook func(iteration int, cost float64)

// Evaluation is one observed step of a solve.
type Evaluation struct {
	Iteration int     `json:"iteration"`
	Cost      float64 `json:"cost"`
}

// Result describes a finished or failed solve.
type Result struct {
	Solution *vrp.Solution
	// InitialCost is the cost of the initializer's solution.
	InitialCost float64
	// Cost is the cost of Solution.
	Cost float64
	// Steps counts Minimize calls, including the final non-improving one.
	Steps int
	// Improvements counts steps that strictly decreased the cost.
	Improvements int
	// State is Converged after a successful solve. A failed solve reports
	// the state it failed in: Unvalidated for a rejected problem, Initialized
	// for a failed or invalid initial solution.
	State    State
	Duration time.Duration
}
