package strategies

import (
	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/vrp"
)

var _ optimization.Strategy = (*Exchange)(nil)

// Exchange swaps the pair of customers on different routes whose swap saves
// the most while both vehicles stay within capacity.
type Exchange struct{}

// NewExchange creates an inter-route exchange strategy.
func NewExchange() *Exchange {
	return &Exchange{}
}

// Name implements optimization.Named.
func (*Exchange) Name() string { return "exchange" }

// Minimize implements optimization.Strategy.
func (*Exchange) Minimize(s *vrp.Solution) {
	if s.Problem() == nil {
		return
	}
	snap := takeSnapshot(s)

	var (
		found        bool
		bestDelta    = -Eps
		bestI, bestJ int
		bestA, bestB []int
	)
	for ri := range snap.customers {
		for rj := ri + 1; rj < len(snap.customers); rj++ {
			for a, x := range snap.customers[ri] {
				for b, y := range snap.customers[rj] {
					candA := replaced(snap.customers[ri], a, y)
					candB := replaced(snap.customers[rj], b, x)
					if !snap.fits(ri, candA) || !snap.fits(rj, candB) {
						continue
					}
					delta := snap.cost(candA) + snap.cost(candB) - snap.routeCost[ri] - snap.routeCost[rj]
					if delta < bestDelta {
						found, bestDelta = true, delta
						bestI, bestJ, bestA, bestB = ri, rj, candA, candB
					}
				}
			}
		}
	}
	if !found {
		return
	}

	s.Routes[bestI] = vrp.NewRoute(snap.p.Depot, bestA...)
	s.Routes[bestJ] = vrp.NewRoute(snap.p.Depot, bestB...)
}
