// Package strategies implements neighborhood-search steps for the solver.
//
// Every strategy applies at most one best-improvement move per route set and
// per call, and only moves that keep each vehicle within capacity. A move must
// lower the cost by more than Eps to be applied, so that float noise never
// reports a phantom improvement. Solutions not created with vrp.NewSolution
// carry no problem and are left untouched.
package strategies

import "github.com/copyleftdev/vrpls/internal/vrp"

// Eps is the smallest cost reduction a move must achieve to be applied.
const Eps = 1e-9

// pathCost is the cost of depot -> customers... -> depot.
func pathCost(c *vrp.CostMatrix, depot int, customers []int) float64 {
	if len(customers) == 0 {
		return 0
	}
	total := c.At(depot, customers[0])
	for k := 0; k+1 < len(customers); k++ {
		total += c.At(customers[k], customers[k+1])
	}
	return total + c.At(customers[len(customers)-1], depot)
}

// snapshot caches per-route data for one Minimize call.
type snapshot struct {
	p         *vrp.Problem
	costs     *vrp.CostMatrix
	customers [][]int
	routeCost []float64
}

func takeSnapshot(s *vrp.Solution) *snapshot {
	p := s.Problem()
	snap := &snapshot{
		p:         p,
		costs:     p.CostMatrix(),
		customers: make([][]int, len(s.Routes)),
		routeCost: make([]float64, len(s.Routes)),
	}
	for i, r := range s.Routes {
		snap.customers[i] = r.Customers()
		snap.routeCost[i] = pathCost(snap.costs, p.Depot, snap.customers[i])
	}
	return snap
}

// fits reports whether route can serve customers. It uses the same check as
// Solution.Validate so that an accepted move never invalidates the solution.
func (snap *snapshot) fits(route int, customers []int) bool {
	return snap.p.Fits(route, customers)
}

func (snap *snapshot) cost(customers []int) float64 {
	return pathCost(snap.costs, snap.p.Depot, customers)
}

func without(customers []int, pos int) []int {
	out := make([]int, 0, len(customers)-1)
	out = append(out, customers[:pos]...)
	return append(out, customers[pos+1:]...)
}

func insertAt(customers []int, pos, id int) []int {
	out := make([]int, 0, len(customers)+1)
	out = append(out, customers[:pos]...)
	out = append(out, id)
	return append(out, customers[pos:]...)
}

func replaced(customers []int, pos, id int) []int {
	out := append([]int(nil), customers...)
	out[pos] = id
	return out
}

// reversed returns customers with the segment [i..k] reversed.
func reversed(customers []int, i, k int) []int {
	out := append([]int(nil), customers...)
	for ; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out
}
