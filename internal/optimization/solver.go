package optimization

import (
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/vrpls/internal/vrp"
)

// State is a stage of a solve.
type State int

const (
	// Unvalidated is the state before the problem has been checked.
	Unvalidated State = iota
	// Initialized means the problem is valid and an initial solution is being built.
	Initialized
	// Improving means the strategy is being applied step by step.
	Improving
	// Converged means the last step did not strictly lower the cost.
	Converged
)

func (s State) String() string {
	switch s {
	case Unvalidated:
		return "unvalidated"
	case Initialized:
		return "initialized"
	case Improving:
		return "improving"
	case Converged:
		return "converged"
	default:
		return "unknown"
	}
}

// Solver drives one initializer and one strategy to a local optimum.
//
// A Solver is synchronous and holds no per-solve state of its own, but its
// strategy may; do not run two solves on the same Solver concurrently unless the
// strategy is stateless.
type Solver struct {
	init     Initializer
	strategy Strategy
	logger   *zap.Logger
	hooks    []IterationHook
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger used for debug traces of a solve.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHook registers a hook called after every strategy step.
func WithHook(hook IterationHook) Option {
	return func(s *Solver) {
		if hook != nil {
			s.hooks = append(s.hooks, hook)
		}
	}
}

// NewSolver creates a solver from an initializer and a strategy.
func NewSolver(init Initializer, strategy Strategy, opts ...Option) *Solver {
	s := &Solver{
		init:     init,
		strategy: strategy,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(
		zap.String("initializer", NameOf(init)),
		zap.String("strategy", NameOf(strategy)),
	)
	return s
}

// Solve returns a converged, valid solution of p.
func (s *Solver) Solve(p *vrp.Problem) (*vrp.Solution, error) {
	res, err := s.Run(p)
	if err != nil {
		return nil, err
	}
	return res.Solution, nil
}

// Run solves p and reports how the solve went.
//
// The problem is validated before the initializer runs and the initial
// solution is validated before the strategy runs; either failure ends the solve.
// The strategy is then applied until a step fails to strictly lower the cost.
//
// On failure the returned Result has no Solution; its State is the state the
// solve was in when it failed.
func (s *Solver) Run(p *vrp.Problem) (*Result, error) {
	start := time.Now()
	res := &Result{State: Unvalidated}
	fail := func(err error) (*Result, error) {
		res.Duration = time.Since(start)
		return res, err
	}

	if err := p.Validate(); err != nil {
		return fail(WrapError(invalid(ErrInvalidProblem, err), "problem rejected").
			WithOperation("solve").WithComponent("solver"))
	}
	res.State = Initialized

	solution, err := s.init.InitialSolution(p)
	if err != nil {
		return fail(WrapErrorf(err, "initializer %s failed", NameOf(s.init)).
			WithOperation("initialize").WithComponent("solver"))
	}
	if err := solution.Validate(p); err != nil {
		return fail(WrapErrorf(invalid(ErrInvalidSolution, err), "initializer %s returned an invalid solution", NameOf(s.init)).
			WithOperation("initialize").WithComponent("solver"))
	}
	res.State = Improving

	costs := p.CostMatrix()
	cost := solution.Cost(costs)
	res.InitialCost = cost
	s.logger.Debug("initial solution",
		zap.Float64("cost", cost),
		zap.Stringer("solution", solution),
	)

	var current float64
	for {
		current = cost
		s.strategy.Minimize(solution)
		cost = solution.Cost(costs)
		res.Steps++

		s.logger.Debug("step",
			zap.Int("iteration", res.Steps),
			zap.Float64("previous_cost", current),
			zap.Float64("cost", cost),
		)
		for _, hook := range s.hooks {
			hook(res.Steps, cost)
		}

		// Only a strict decrease continues; equal, worse and NaN costs stop.
		if !(cost < current) {
			break
		}
		res.Improvements++
	}

	res.State = Converged
	res.Solution = solution
	res.Cost = cost
	res.Duration = time.Since(start)

	s.logger.Debug("converged",
		zap.Int("steps", res.Steps),
		zap.Float64("initial_cost", res.InitialCost),
		zap.Float64("cost", res.Cost),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}
