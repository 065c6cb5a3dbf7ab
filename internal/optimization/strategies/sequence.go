package strategies

import (
	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/vrp"
)

var _ optimization.Strategy = (*Sequence)(nil)

// Sequence runs several strategies one after another as a single step, a
// variable-neighborhood descent when combined with the solver loop.
type Sequence struct {
	name  string
	steps []optimization.Strategy
}

// NewSequence creates a strategy applying steps in order on every call.
func NewSequence(name string, steps ...optimization.Strategy) *Sequence {
	return &Sequence{name: name, steps: steps}
}

// NewVND returns the default descent: relocate, then exchange, then 2-opt.
func NewVND() *Sequence {
	return NewSequence("vnd", NewRelocate(), NewExchange(), NewTwoOpt())
}

// Name implements optimization.Named.
func (q *Sequence) Name() string { return q.name }

// Minimize implements optimization.Strategy.
func (q *Sequence) Minimize(s *vrp.Solution) {
	for _, step := range q.steps {
		step.Minimize(s)
	}
}
