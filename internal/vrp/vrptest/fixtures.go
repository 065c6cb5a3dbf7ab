// Package vrptest provides problem fixtures shared by solver tests.
package vrptest

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/vrpls/internal/vrp"
)

// Triangle returns the depot plus two customers with unit costs between
// every pair, served by a single vehicle that can carry both.
func Triangle() *vrp.Problem {
	return &vrp.Problem{
		Name:  "triangle",
		Depot: 0,
		Locations: []vrp.Location{
			{ID: 0, Name: "depot"},
			{ID: 1, Name: "A", Demand: 1},
			{ID: 2, Name: "B", Demand: 1},
		},
		Vehicles: vrp.NewHomogeneousFleet(1, 10),
		Costs: vrp.MustCostMatrix([][]float64{
			{0, 1, 1},
			{1, 0, 1},
			{1, 1, 0},
		}),
	}
}

// Line returns customers placed on a line at x = 1..n with the depot at 0.
// Costs are absolute distances, so the optimum for one vehicle is 2n.
func Line(n int, vehicles int, capacity float64) *vrp.Problem {
	xs := make([]float64, n+1)
	for i := range xs {
		xs[i] = float64(i)
	}
	return fromPoints("line", xs, make([]float64, n+1), vehicles, capacity)
}

// Random returns a Euclidean instance with n customers scattered in a
// 100x100 square and unit demands. The same seed gives the same instance.
func Random(t testing.TB, seed int64, n, vehicles int, capacity float64) *vrp.Problem {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	xs := make([]float64, n+1)
	ys := make([]float64, n+1)
	xs[0], ys[0] = 50, 50
	for i := 1; i <= n; i++ {
		xs[i] = rng.Float64() * 100
		ys[i] = rng.Float64() * 100
	}
	p := fromPoints("random", xs, ys, vehicles, capacity)
	require.True(t, p.IsValid(), "fixture must be valid: %v", p.Validate())
	return p
}

// Fractional is Random with demands drawn from 0.1..0.5 in steps of 0.1, so
// that summed loads carry rounding error.
func Fractional(t testing.TB, seed int64, n, vehicles int, capacity float64) *vrp.Problem {
	t.Helper()

	p := Random(t, seed, n, vehicles, capacity)
	p.Name = "fractional"
	rng := rand.New(rand.NewSource(seed + 1))
	for i := range p.Locations {
		if i != p.Depot {
			p.Locations[i].Demand = float64(rng.Intn(5)+1) / 10
		}
	}
	return p
}

func fromPoints(name string, xs, ys []float64, vehicles int, capacity float64) *vrp.Problem {
	n := len(xs)
	locs := make([]vrp.Location, n)
	rows := make([][]float64, n)
	for i := range locs {
		locs[i] = vrp.Location{ID: i, X: xs[i], Y: ys[i]}
		if i > 0 {
			locs[i].Demand = 1
		}
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = math.Hypot(xs[i]-xs[j], ys[i]-ys[j])
		}
	}
	return &vrp.Problem{
		Name:      name,
		Locations: locs,
		Vehicles:  vrp.NewHomogeneousFleet(vehicles, capacity),
		Costs:     vrp.MustCostMatrix(rows),
	}
}
