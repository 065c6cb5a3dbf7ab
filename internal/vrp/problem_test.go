package vrp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProblem() *Problem {
	return &Problem{
		Locations: []Location{
			{ID: 0},
			{ID: 1, Demand: 2},
			{ID: 2, Demand: 3},
		},
		Vehicles: NewHomogeneousFleet(2, 5),
		Costs: MustCostMatrix([][]float64{
			{0, 1, 2},
			{1, 0, 1},
			{2, 1, 0},
		}),
	}
}

func TestNewCostMatrix(t *testing.T) {
	_, err := NewCostMatrix(nil)
	assert.ErrorIs(t, err, ErrEmptyMatrix)

	_, err = NewCostMatrix([][]float64{{0, 1}, {1}})
	assert.ErrorIs(t, err, ErrNonSquare)

	c, err := NewCostMatrix([][]float64{{0, 4}, {3, 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Size())
	assert.Equal(t, 4.0, c.At(0, 1))
	assert.Equal(t, 3.0, c.At(1, 0))
	assert.False(t, c.IsSymmetric())
	assert.Equal(t, [][]float64{{0, 4}, {3, 0}}, c.Rows())
}

func TestCostMatrixIgnoresCallerMutation(t *testing.T) {
	rows := [][]float64{{0, 1}, {1, 0}}
	c := MustCostMatrix(rows)
	rows[0][1] = 99

	assert.Equal(t, 1.0, c.At(0, 1))
	assert.True(t, c.IsSymmetric())
}

func TestProblemValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Problem)
		valid  bool
	}{
		{name: "well formed", mutate: func(p *Problem) {}, valid: true},
		{name: "zero capacity is allowed", mutate: func(p *Problem) { p.Vehicles[0].Capacity = 0 }, valid: true},
		{name: "no vehicles", mutate: func(p *Problem) { p.Vehicles = nil }},
		{name: "negative capacity", mutate: func(p *Problem) { p.Vehicles[1].Capacity = -1 }},
		{name: "infinite capacity", mutate: func(p *Problem) { p.Vehicles[1].Capacity = math.Inf(1) }},
		{name: "no locations", mutate: func(p *Problem) { p.Locations = nil }},
		{name: "depot out of range", mutate: func(p *Problem) { p.Depot = 3 }},
		{name: "ids out of order", mutate: func(p *Problem) { p.Locations[2].ID = 7 }},
		{name: "negative demand", mutate: func(p *Problem) { p.Locations[1].Demand = -2 }},
		{name: "NaN demand", mutate: func(p *Problem) { p.Locations[1].Demand = math.NaN() }},
		{name: "missing matrix", mutate: func(p *Problem) { p.Costs = nil }},
		{name: "matrix too small", mutate: func(p *Problem) { p.Costs = MustCostMatrix([][]float64{{0, 1}, {1, 0}}) }},
		{
			name: "missing cost entry",
			mutate: func(p *Problem) {
				p.Costs = MustCostMatrix([][]float64{{0, 1, math.Inf(1)}, {1, 0, 1}, {2, 1, 0}})
			},
		},
		{
			name: "NaN cost entry",
			mutate: func(p *Problem) {
				p.Costs = MustCostMatrix([][]float64{{0, 1, 2}, {math.NaN(), 0, 1}, {2, 1, 0}})
			},
		},
		{
			name: "negative cost entry",
			mutate: func(p *Problem) {
				p.Costs = MustCostMatrix([][]float64{{0, 1, 2}, {1, 0, -1}, {2, 1, 0}})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProblem()
			tt.mutate(p)

			err := p.Validate()
			assert.Equal(t, tt.valid, p.IsValid())
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformedProblem)
			}
		})
	}
}

func TestNilProblemIsInvalid(t *testing.T) {
	var p *Problem
	assert.False(t, p.IsValid())
}

func TestProblemAccessors(t *testing.T) {
	p := validProblem()
	p.Depot = 1

	assert.Equal(t, []int{0, 2}, p.Customers())
	assert.Equal(t, 3.0, p.Demand(2))
	assert.Equal(t, 3.0, p.TotalDemand())
	assert.Equal(t, 10.0, p.TotalCapacity())
	assert.Same(t, p.Costs, p.CostMatrix())
}

func TestNewHomogeneousFleet(t *testing.T) {
	fleet := NewHomogeneousFleet(2, 5)
	assert.Equal(t, []Vehicle{{ID: "v0", Capacity: 5}, {ID: "v1", Capacity: 5}}, fleet)
	assert.Empty(t, NewHomogeneousFleet(-1, 5))

	p := validProblem()
	p.Vehicles = NewHomogeneousFleet(-3, 5)
	assert.ErrorIs(t, p.Validate(), ErrMalformedProblem)
}
