package initializers

import (
	"fmt"
	"sort"

	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/vrp"
)

var _ optimization.Initializer = (*Savings)(nil)

// Savings is the parallel Clarke-Wright savings heuristic.
//
// Every customer starts on its own route. Routes are then chained end to start
// in order of decreasing saving c(i,depot) + c(depot,j) - c(i,j) while the
// merged load fits the largest vehicle. If that leaves more routes than
// vehicles, a second pass also accepts non-positive savings. Finally routes are
// handed out heaviest first, each to the smallest free vehicle that holds it.
type Savings struct{}

// NewSavings creates a Clarke-Wright savings initializer.
func NewSavings() *Savings {
	return &Savings{}
}

// Name implements optimization.Named.
func (*Savings) Name() string { return "savings" }

type saving struct {
	from, to int
	value    float64
}

type chain struct {
	customers []int
	load      float64
	merged    bool
}

// InitialSolution implements optimization.Initializer.
func (sv *Savings) InitialSolution(p *vrp.Problem) (*vrp.Solution, error) {
	costs := p.CostMatrix()
	customers := p.Customers()

	var maxCap float64
	for _, v := range p.Vehicles {
		maxCap = max(maxCap, v.Capacity)
	}

	var oversized []int
	chains := make([]*chain, 0, len(customers))
	chainOf := make(map[int]*chain, len(customers))
	for _, c := range customers {
		if !vrp.WithinCapacity(p.Demand(c), maxCap) {
			oversized = append(oversized, c)
			continue
		}
		ch := &chain{customers: []int{c}, load: p.Demand(c)}
		chains = append(chains, ch)
		chainOf[c] = ch
	}
	if len(oversized) > 0 {
		return nil, &optimization.ConstructionError{
			Initializer: sv.Name(),
			Reason:      fmt.Sprintf("demand exceeds the largest vehicle capacity %v", maxCap),
			Unassigned:  oversized,
		}
	}

	list := make([]saving, 0, len(customers)*len(customers))
	for _, i := range customers {
		for _, j := range customers {
			if i == j {
				continue
			}
			list = append(list, saving{
				from:  i,
				to:    j,
				value: costs.At(i, p.Depot) + costs.At(p.Depot, j) - costs.At(i, j),
			})
		}
	}
	sort.SliceStable(list, func(a, b int) bool {
		return list[a].value > list[b].value
	})

	live := len(chains)
	live = mergeChains(list, chainOf, maxCap, live, false, 0)
	if live > len(p.Vehicles) {
		live = mergeChains(list, chainOf, maxCap, live, true, len(p.Vehicles))
	}

	remaining := make([]*chain, 0, live)
	for _, ch := range chains {
		if !ch.merged {
			remaining = append(remaining, ch)
		}
	}
	return sv.assign(p, remaining)
}

// mergeChains joins chains along the savings list and returns the number of
// chains left. Without anySaving only positive savings are used in a single
// pass; with it, passes repeat until target chains remain or nothing merges.
func mergeChains(list []saving, chainOf map[int]*chain, maxCap float64, live int, anySaving bool, target int) int {
	for {
		merged := false
		for _, s := range list {
			if anySaving && live <= target {
				return live
			}
			if !anySaving && s.value <= 0 {
				break
			}
			a, b := chainOf[s.from], chainOf[s.to]
			if a == b {
				continue
			}
			if a.customers[len(a.customers)-1] != s.from || b.customers[0] != s.to {
				continue
			}
			if !vrp.WithinCapacity(a.load+b.load, maxCap) {
				continue
			}

			a.customers = append(a.customers, b.customers...)
			a.load += b.load
			for _, c := range b.customers {
				chainOf[c] = a
			}
			b.merged = true
			live--
			merged = true
		}
		if !anySaving || !merged {
			return live
		}
	}
}

// assign gives each chain, heaviest first, the smallest free vehicle that can carry it.
func (sv *Savings) assign(p *vrp.Problem, chains []*chain) (*vrp.Solution, error) {
	sort.SliceStable(chains, func(a, b int) bool {
		return chains[a].load > chains[b].load
	})

	s := vrp.NewSolution(p)
	used := make([]bool, len(p.Vehicles))
	for idx, ch := range chains {
		best := -1
		for vi, v := range p.Vehicles {
			if used[vi] || !p.Fits(vi, ch.customers) {
				continue
			}
			if best < 0 || v.Capacity < p.Vehicles[best].Capacity {
				best = vi
			}
		}
		if best < 0 {
			var unassigned []int
			for _, rest := range chains[idx:] {
				unassigned = append(unassigned, rest.customers...)
			}
			sort.Ints(unassigned)
			return nil, &optimization.ConstructionError{
				Initializer: sv.Name(),
				Reason:      fmt.Sprintf("%d routes do not fit %d vehicles", len(chains), len(p.Vehicles)),
				Unassigned:  unassigned,
			}
		}
		used[best] = true
		s.Routes[best] = vrp.NewRoute(p.Depot, ch.customers...)
	}
	return s, nil
}
