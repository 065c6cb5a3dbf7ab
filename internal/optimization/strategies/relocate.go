package strategies

import (
	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/vrp"
)

var _ optimization.Strategy = (*Relocate)(nil)

// Relocate moves the single customer whose removal and best reinsertion, in
// the same route or any other route with room, saves the most.
type Relocate struct{}

// NewRelocate creates a relocate strategy.
func NewRelocate() *Relocate {
	return &Relocate{}
}

// Name implements optimization.Named.
func (*Relocate) Name() string { return "relocate" }

// Minimize implements optimization.Strategy.
func (*Relocate) Minimize(s *vrp.Solution) {
	if s.Problem() == nil {
		return
	}
	snap := takeSnapshot(s)

	var (
		found      bool
		bestDelta  = -Eps
		bestFrom   int
		bestTo     int
		bestSource []int
		bestTarget []int
	)
	for ri, src := range snap.customers {
		for a, id := range src {
			rest := without(src, a)
			restCost := snap.cost(rest)

			for rj, dst := range snap.customers {
				if rj == ri {
					for pos := 0; pos <= len(rest); pos++ {
						if pos == a {
							continue
						}
						cand := insertAt(rest, pos, id)
						if delta := snap.cost(cand) - snap.routeCost[ri]; delta < bestDelta {
							found, bestDelta = true, delta
							bestFrom, bestTo, bestSource, bestTarget = ri, rj, nil, cand
						}
					}
					continue
				}
				if !snap.fits(rj, append(dst[:len(dst):len(dst)], id)) {
					continue
				}
				for pos := 0; pos <= len(dst); pos++ {
					cand := insertAt(dst, pos, id)
					delta := restCost - snap.routeCost[ri] + snap.cost(cand) - snap.routeCost[rj]
					if delta < bestDelta {
						found, bestDelta = true, delta
						bestFrom, bestTo, bestSource, bestTarget = ri, rj, rest, cand
					}
				}
			}
		}
	}
	if !found {
		return
	}

	depot := snap.p.Depot
	if bestFrom != bestTo {
		s.Routes[bestFrom] = vrp.NewRoute(depot, bestSource...)
	}
	s.Routes[bestTo] = vrp.NewRoute(depot, bestTarget...)
}
