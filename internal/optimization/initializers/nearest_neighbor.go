// Package initializers builds starting solutions for the solver.
package initializers

import (
	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/vrp"
)

var _ optimization.Initializer = (*NearestNeighbor)(nil)

// NearestNeighbor fills one vehicle at a time, always driving to the cheapest
// unvisited customer that still fits. Ties go to the lower location id, so the
// result is deterministic.
type NearestNeighbor struct{}

// NewNearestNeighbor creates a nearest-neighbor initializer.
func NewNearestNeighbor() *NearestNeighbor {
	return &NearestNeighbor{}
}

// Name implements optimization.Named.
func (*NearestNeighbor) Name() string { return "nearest-neighbor" }

// InitialSolution implements optimization.Initializer.
func (nn *NearestNeighbor) InitialSolution(p *vrp.Problem) (*vrp.Solution, error) {
	costs := p.CostMatrix()
	customers := p.Customers()
	visited := make([]bool, len(p.Locations))
	left := len(customers)

	s := vrp.NewSolution(p)
	for vi, v := range p.Vehicles {
		if left == 0 {
			break
		}

		var (
			route   []int
			load    float64
			current = p.Depot
		)
		for {
			best := -1
			var bestCost float64
			for _, c := range customers {
				if visited[c] || !vrp.WithinCapacity(load+p.Demand(c), v.Capacity) {
					continue
				}
				// Strict comparison keeps the lowest id among equal costs.
				if d := costs.At(current, c); best < 0 || d < bestCost {
					best, bestCost = c, d
				}
			}
			if best < 0 {
				break
			}
			route = append(route, best)
			visited[best] = true
			load += p.Demand(best)
			current = best
			left--
		}
		s.Routes[vi] = vrp.NewRoute(p.Depot, route...)
	}

	if left > 0 {
		unassigned := make([]int, 0, left)
		for _, c := range customers {
			if !visited[c] {
				unassigned = append(unassigned, c)
			}
		}
		return nil, &optimization.ConstructionError{
			Initializer: nn.Name(),
			Reason:      "fleet cannot carry every customer",
			Unassigned:  unassigned,
		}
	}
	return s, nil
}
