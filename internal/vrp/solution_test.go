package vrp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoute(t *testing.T) {
	assert.Equal(t, Route{}, NewRoute(0))
	r := NewRoute(0, 2, 1)
	assert.Equal(t, []int{0, 2, 1, 0}, r.Visits)
	assert.Equal(t, []int{2, 1}, r.Customers())
	assert.False(t, r.IsEmpty())
	assert.True(t, Route{Visits: []int{0, 0}}.IsEmpty())
}

func TestSolutionValidate(t *testing.T) {
	tests := []struct {
		name    string
		routes  []Route
		wantErr error
	}{
		{
			name:   "one route per customer",
			routes: []Route{NewRoute(0, 1), NewRoute(0, 2)},
		},
		{
			name:    "missing customer",
			routes:  []Route{NewRoute(0, 2), {}},
			wantErr: ErrCoverage,
		},
		{
			name:   "fewer routes than vehicles",
			routes: []Route{NewRoute(0, 2, 1)},
		},
		{
			name:    "too many routes",
			routes:  []Route{NewRoute(0, 1), NewRoute(0, 2), {}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "missing start depot",
			routes:  []Route{{Visits: []int{1, 2, 0}}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "missing end depot",
			routes:  []Route{{Visits: []int{0, 1, 2}}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "lone depot",
			routes:  []Route{{Visits: []int{0}}, NewRoute(0, 1, 2)},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "depot mid-route",
			routes:  []Route{{Visits: []int{0, 1, 0, 2, 0}}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "unknown location",
			routes:  []Route{{Visits: []int{0, 1, 2, 9, 0}}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "duplicate visit",
			routes:  []Route{NewRoute(0, 1), NewRoute(0, 2, 1)},
			wantErr: ErrCoverage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProblem()
			s := &Solution{Routes: tt.routes}

			err := s.Validate(p)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, s.IsValid(p))
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, s.IsValid(p))
		})
	}
}

func TestSolutionCapacityPerVehicle(t *testing.T) {
	p := validProblem()
	p.Vehicles[0].Capacity = 2
	p.Vehicles[1].Capacity = 10

	ok := &Solution{Routes: []Route{{}, NewRoute(0, 1, 2)}}
	assert.True(t, ok.IsValid(p))

	overloaded := &Solution{Routes: []Route{NewRoute(0, 1, 2), {}}}
	assert.ErrorIs(t, overloaded.Validate(p), ErrCapacityExceeded)
}

func TestSolutionCost(t *testing.T) {
	p := validProblem()
	s := &Solution{Routes: []Route{NewRoute(0, 1, 2), {}}}

	// 0->1 (1) + 1->2 (1) + 2->0 (2)
	assert.Equal(t, 4.0, s.Cost(p.CostMatrix()))
	assert.Equal(t, 0.0, Route{}.Cost(p.CostMatrix()))
	assert.Equal(t, 5.0, s.Routes[0].Load(p))

	// Repeated checks leave the solution untouched.
	before := s.Clone()
	for i := 0; i < 3; i++ {
		assert.Equal(t, 4.0, s.Cost(p.CostMatrix()))
		assert.True(t, s.IsValid(p))
	}
	assert.Equal(t, before.Routes, s.Routes)
}

func TestSolutionCostAsymmetric(t *testing.T) {
	c := MustCostMatrix([][]float64{
		{0, 1, 5},
		{5, 0, 1},
		{1, 5, 0},
	})
	forward := &Solution{Routes: []Route{NewRoute(0, 1, 2)}}
	backward := &Solution{Routes: []Route{NewRoute(0, 2, 1)}}

	assert.Equal(t, 3.0, forward.Cost(c))
	assert.Equal(t, 15.0, backward.Cost(c))
}

func TestNewSolutionAndClone(t *testing.T) {
	p := validProblem()
	s := NewSolution(p)
	require.Len(t, s.Routes, 2)
	assert.Same(t, p, s.Problem())

	s.Routes[0] = NewRoute(0, 1, 2)
	c := s.Clone()
	c.Routes[0].Visits[1] = 2

	assert.Equal(t, []int{0, 1, 2, 0}, s.Routes[0].Visits)
	assert.Same(t, p, c.Problem())
	assert.Nil(t, c.Routes[1].Visits)
}

func TestSolutionString(t *testing.T) {
	s := &Solution{Routes: []Route{NewRoute(0, 1, 2), {}}}
	assert.Equal(t, "route 0: 0 -> 1 -> 2 -> 0\nroute 1: <empty>", s.String())
}

// tenths has four customers whose demands sum to exactly one vehicle load.
func tenths() *Problem {
	rows := make([][]float64, 5)
	for i := range rows {
		rows[i] = make([]float64, 5)
		for j := range rows[i] {
			if i != j {
				rows[i][j] = 1
			}
		}
	}
	return &Problem{
		Locations: []Location{
			{ID: 0},
			{ID: 1, Demand: 0.1},
			{ID: 2, Demand: 0.2},
			{ID: 3, Demand: 0.3},
			{ID: 4, Demand: 0.4},
		},
		Vehicles: NewHomogeneousFleet(1, 1),
		Costs:    MustCostMatrix(rows),
	}
}

func TestCapacityIgnoresVisitOrder(t *testing.T) {
	p := tenths()

	// Summed in visit order these give 1.0000000000000002 and 0.9999999999999999.
	for _, order := range [][]int{{1, 2, 3, 4}, {2, 4, 3, 1}, {4, 3, 2, 1}, {4, 2, 3, 1}} {
		s := &Solution{Routes: []Route{NewRoute(0, order...)}}
		assert.NoError(t, s.Validate(p), "order %v", order)
		assert.Equal(t, 1.0, s.Routes[0].Load(p), "order %v", order)
		assert.True(t, p.Fits(0, order))
	}

	p.Vehicles[0].Capacity = 0.9
	s := &Solution{Routes: []Route{NewRoute(0, 2, 4, 3, 1)}}
	assert.ErrorIs(t, s.Validate(p), ErrCapacityExceeded)
}

func TestWithinCapacity(t *testing.T) {
	tests := []struct {
		load, capacity float64
		want           bool
	}{
		{load: 1, capacity: 1, want: true},
		{load: 1.0000000000000002, capacity: 1, want: true},
		{load: 1.001, capacity: 1, want: false},
		{load: 0, capacity: 0, want: true},
		{load: 1e-12, capacity: 0, want: true},
		{load: 1e-6, capacity: 0, want: false},
		{load: 1e6 + 1e-4, capacity: 1e6, want: true},
		{load: 1e6 + 1, capacity: 1e6, want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WithinCapacity(tt.load, tt.capacity), "load %v capacity %v", tt.load, tt.capacity)
	}
}
