package strategies

import (
	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/vrp"
)

var _ optimization.Strategy = (*TwoOpt)(nil)

// TwoOpt reverses the segment of each route that lowers its cost the most.
//
// On symmetric matrices only the two replaced edges are compared:
// Δ = c(a,c) + c(b,d) − c(a,b) − c(c,d) for a=T[i−1], b=T[i], c=T[k], d=T[k+1].
// Asymmetric matrices also change the cost of the reversed segment, so each
// candidate route is re-costed in full.
type TwoOpt struct{}

// NewTwoOpt creates an intra-route 2-opt strategy.
func NewTwoOpt() *TwoOpt {
	return &TwoOpt{}
}

// Name implements optimization.Named.
func (*TwoOpt) Name() string { return "two-opt" }

// Minimize implements optimization.Strategy.
func (*TwoOpt) Minimize(s *vrp.Solution) {
	p := s.Problem()
	if p == nil {
		return
	}
	costs := p.CostMatrix()
	symmetric := costs.IsSymmetric()

	for ri, r := range s.Routes {
		cust := r.Customers()
		if len(cust) < 2 {
			continue
		}
		// tour includes both depot stops so that T[i-1] and T[k+1] always exist.
		tour := r.Visits
		base := pathCost(costs, p.Depot, cust)

		bestI, bestK := -1, -1
		bestDelta := -Eps
		for i := 1; i < len(tour)-2; i++ {
			for k := i + 1; k < len(tour)-1; k++ {
				var delta float64
				if symmetric {
					a, b, c, d := tour[i-1], tour[i], tour[k], tour[k+1]
					delta = costs.At(a, c) + costs.At(b, d) - costs.At(a, b) - costs.At(c, d)
				} else {
					delta = pathCost(costs, p.Depot, reversed(cust, i-1, k-1)) - base
				}
				if delta < bestDelta {
					bestI, bestK, bestDelta = i, k, delta
				}
			}
		}
		if bestI < 0 {
			continue
		}
		s.Routes[ri] = vrp.NewRoute(p.Depot, reversed(cust, bestI-1, bestK-1)...)
	}
}
