package vrp

import (
	"fmt"
	"math"
	"slices"
)

// CapacityTolerance is the relative slack allowed when comparing a summed
// load against a capacity, so that rounding in the sum never rejects a load
// that fits exactly.
const CapacityTolerance = 1e-9

// WithinCapacity reports whether load fits capacity up to CapacityTolerance.
func WithinCapacity(load, capacity float64) bool {
	return load <= capacity+CapacityTolerance*math.Max(1, capacity)
}

// Location is a depot or customer. ID equals the location's index in
// Problem.Locations and in the cost matrix.
type Location struct {
	ID     int     `json:"id" yaml:"id"`
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Demand float64 `json:"demand" yaml:"demand"`
	X      float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y      float64 `json:"y,omitempty" yaml:"y,omitempty"`
}

// Vehicle is one member of the fleet.
type Vehicle struct {
	ID       string  `json:"id" yaml:"id"`
	Capacity float64 `json:"capacity" yaml:"capacity"`
}

// NewHomogeneousFleet returns count vehicles sharing the same capacity.
// A negative count yields an empty fleet.
func NewHomogeneousFleet(count int, capacity float64) []Vehicle {
	fleet := make([]Vehicle, max(count, 0))
	for i := range fleet {
		fleet[i] = Vehicle{ID: fmt.Sprintf("v%d", i), Capacity: capacity}
	}
	return fleet
}

// Problem describes a capacitated VRP instance. It is built once and must not
// be modified while a solve is running; every solver component only reads it.
type Problem struct {
	Name      string
	Depot     int
	Locations []Location
	Vehicles  []Vehicle
	Costs     *CostMatrix
}

// CostMatrix returns the cost model used to evaluate solutions of p.
func (p *Problem) CostMatrix() *CostMatrix {
	return p.Costs
}

// IsValid reports whether p is structurally well formed. It does not say
// whether a feasible solution exists.
func (p *Problem) IsValid() bool {
	return p.Validate() == nil
}

// Validate returns the first structural defect of p, or nil.
func (p *Problem) Validate() error {
	if p == nil {
		return fmt.Errorf("nil problem: %w", ErrMalformedProblem)
	}
	if len(p.Vehicles) == 0 {
		return fmt.Errorf("no vehicles: %w", ErrMalformedProblem)
	}
	for i, v := range p.Vehicles {
		if math.IsNaN(v.Capacity) || math.IsInf(v.Capacity, 0) || v.Capacity < 0 {
			return fmt.Errorf("vehicle %d capacity %v: %w", i, v.Capacity, ErrMalformedProblem)
		}
	}

	n := len(p.Locations)
	if n == 0 {
		return fmt.Errorf("no locations: %w", ErrMalformedProblem)
	}
	if p.Depot < 0 || p.Depot >= n {
		return fmt.Errorf("depot %d out of range [0,%d): %w", p.Depot, n, ErrMalformedProblem)
	}
	for i, loc := range p.Locations {
		if loc.ID != i {
			return fmt.Errorf("location at index %d has id %d: %w", i, loc.ID, ErrMalformedProblem)
		}
		if math.IsNaN(loc.Demand) || math.IsInf(loc.Demand, 0) || loc.Demand < 0 {
			return fmt.Errorf("location %d demand %v: %w", i, loc.Demand, ErrMalformedProblem)
		}
	}

	if p.Costs == nil {
		return fmt.Errorf("missing cost matrix: %w", ErrMalformedProblem)
	}
	if p.Costs.Size() != n {
		return fmt.Errorf("cost matrix is %dx%[1]d for %d locations: %w", p.Costs.Size(), n, ErrMalformedProblem)
	}
	return p.Costs.validate()
}

// Customers returns every non-depot location id in ascending order.
func (p *Problem) Customers() []int {
	out := make([]int, 0, len(p.Locations))
	for i := range p.Locations {
		if i != p.Depot {
			out = append(out, i)
		}
	}
	return out
}

// Demand returns the demand of location id.
func (p *Problem) Demand(id int) float64 {
	return p.Locations[id].Demand
}

// LoadOf sums the demand of customers in ascending id order, so every
// permutation of the same customers has the same load.
func (p *Problem) LoadOf(customers []int) float64 {
	ids := slices.Clone(customers)
	slices.Sort(ids)
	var load float64
	for _, id := range ids {
		load += p.Locations[id].Demand
	}
	return load
}

// Fits reports whether vehicle can carry customers.
func (p *Problem) Fits(vehicle int, customers []int) bool {
	return WithinCapacity(p.LoadOf(customers), p.Vehicles[vehicle].Capacity)
}

// TotalDemand sums the demand of every customer.
func (p *Problem) TotalDemand() float64 {
	var total float64
	for _, id := range p.Customers() {
		total += p.Locations[id].Demand
	}
	return total
}

// TotalCapacity sums the capacity of the fleet.
func (p *Problem) TotalCapacity() float64 {
	var total float64
	for _, v := range p.Vehicles {
		total += v.Capacity
	}
	return total
}
