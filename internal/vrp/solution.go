package vrp

import (
	"fmt"
	"strings"
)

// Route is the ordered visit sequence of one vehicle. A non-empty route starts
// and ends at the depot, e.g. [depot, a, b, depot]. A nil or [depot, depot]
// route means the vehicle stays home.
type Route struct {
	Visits []int `json:"visits"`
}

// NewRoute builds the depot-bracketed route serving customers in order.
// With no customers the route is empty.
func NewRoute(depot int, customers ...int) Route {
	if len(customers) == 0 {
		return Route{}
	}
	visits := make([]int, 0, len(customers)+2)
	visits = append(visits, depot)
	visits = append(visits, customers...)
	visits = append(visits, depot)
	return Route{Visits: visits}
}

// IsEmpty reports whether the route serves no customer.
func (r Route) IsEmpty() bool {
	return len(r.Visits) <= 2
}

// Customers returns a copy of the visits between the two depot stops.
func (r Route) Customers() []int {
	if r.IsEmpty() {
		return nil
	}
	return append([]int(nil), r.Visits[1:len(r.Visits)-1]...)
}

// Load sums the demand of every customer on the route. The result does not
// depend on the visit order.
func (r Route) Load(p *Problem) float64 {
	return p.LoadOf(r.Customers())
}

// Cost sums the cost of consecutive visits. An empty route costs nothing.
func (r Route) Cost(c *CostMatrix) float64 {
	if r.IsEmpty() {
		return 0
	}
	var total float64
	for k := 0; k+1 < len(r.Visits); k++ {
		total += c.At(r.Visits[k], r.Visits[k+1])
	}
	return total
}

// Solution assigns a route to each vehicle: Routes[i] is driven by Vehicles[i].
//
// A solution remembers the problem it was created for so that strategies can
// look up demands and costs; it never modifies that problem.
type Solution struct {
	Routes []Route `json:"routes"`

	problem *Problem
}

// NewSolution returns a solution for p with one empty route per vehicle.
func NewSolution(p *Problem) *Solution {
	return &Solution{
		Routes:  make([]Route, len(p.Vehicles)),
		problem: p,
	}
}

// Problem returns the problem the solution was created for.
func (s *Solution) Problem() *Problem {
	return s.problem
}

// IsValid reports whether s satisfies the capacity and coverage invariants of p.
func (s *Solution) IsValid(p *Problem) bool {
	return s.Validate(p) == nil
}

// Validate returns the first invariant of p that s violates, or nil.
func (s *Solution) Validate(p *Problem) error {
	if s == nil {
		return fmt.Errorf("nil solution: %w", ErrInvalidRoute)
	}
	if p == nil {
		return fmt.Errorf("nil problem: %w", ErrMalformedProblem)
	}
	if len(s.Routes) > len(p.Vehicles) {
		return fmt.Errorf("%d routes for %d vehicles: %w", len(s.Routes), len(p.Vehicles), ErrInvalidRoute)
	}

	n := len(p.Locations)
	seen := make([]int, n)
	for i, r := range s.Routes {
		if len(r.Visits) == 0 {
			continue
		}
		last := len(r.Visits) - 1
		if last < 1 || r.Visits[0] != p.Depot || r.Visits[last] != p.Depot {
			return fmt.Errorf("route %d must start and end at depot %d: %w", i, p.Depot, ErrInvalidRoute)
		}

		customers := r.Visits[1:last]
		for _, id := range customers {
			if id < 0 || id >= n {
				return fmt.Errorf("route %d visits unknown location %d: %w", i, id, ErrInvalidRoute)
			}
			if id == p.Depot {
				return fmt.Errorf("route %d returns to the depot mid-route: %w", i, ErrInvalidRoute)
			}
			seen[id]++
		}
		if !p.Fits(i, customers) {
			return fmt.Errorf("route %d load %v exceeds capacity %v: %w", i, p.LoadOf(customers), p.Vehicles[i].Capacity, ErrCapacityExceeded)
		}
	}

	for id, count := range seen {
		if id == p.Depot {
			continue
		}
		switch {
		case count == 0:
			return fmt.Errorf("customer %d is not visited: %w", id, ErrCoverage)
		case count > 1:
			return fmt.Errorf("customer %d is visited %d times: %w", id, count, ErrCoverage)
		}
	}
	return nil
}

// Cost returns the total travel cost of every route under c.
func (s *Solution) Cost(c *CostMatrix) float64 {
	var total float64
	for _, r := range s.Routes {
		total += r.Cost(c)
	}
	return total
}

// Clone returns a deep copy of s bound to the same problem.
func (s *Solution) Clone() *Solution {
	out := &Solution{
		Routes:  make([]Route, len(s.Routes)),
		problem: s.problem,
	}
	for i, r := range s.Routes {
		if r.Visits != nil {
			out.Routes[i].Visits = append([]int(nil), r.Visits...)
		}
	}
	return out
}

// String renders one line per route.
func (s *Solution) String() string {
	var b strings.Builder
	for i, r := range s.Routes {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "route %d:", i)
		if len(r.Visits) == 0 {
			b.WriteString(" <empty>")
			continue
		}
		for k, id := range r.Visits {
			if k > 0 {
				b.WriteString(" ->")
			}
			fmt.Fprintf(&b, " %d", id)
		}
	}
	return b.String()
}
