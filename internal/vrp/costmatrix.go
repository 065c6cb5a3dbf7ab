// Package vrp holds the data model of a capacitated vehicle routing instance:
// the cost matrix, the problem description and candidate solutions.
package vrp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// symTol is the tolerance used when comparing a[i][j] with a[j][i].
const symTol = 1e-12

// CostMatrix is a square table of travel costs indexed by location id.
// It has no mutators and may be shared read-only between solves.
type CostMatrix struct {
	m *mat.Dense
	n int
}

// NewCostMatrix builds a cost matrix from row-major data.
// Every row must have exactly len(rows) entries.
func NewCostMatrix(rows [][]float64) (*CostMatrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("cost matrix: %w", ErrEmptyMatrix)
	}

	data := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("cost matrix: row %d has %d entries, want %d: %w", i, len(row), n, ErrNonSquare)
		}
		data = append(data, row...)
	}

	return &CostMatrix{m: mat.NewDense(n, n, data), n: n}, nil
}

// MustCostMatrix is like NewCostMatrix but panics on malformed input.
// Intended for tests and literals.
func MustCostMatrix(rows [][]float64) *CostMatrix {
	c, err := NewCostMatrix(rows)
	if err != nil {
		panic(err)
	}
	return c
}

// At returns the cost of travelling from one location to another.
func (c *CostMatrix) At(from, to int) float64 {
	return c.m.At(from, to)
}

// Size returns the matrix order.
func (c *CostMatrix) Size() int {
	if c == nil {
		return 0
	}
	return c.n
}

// IsSymmetric reports whether the cost of every pair is the same in both directions.
func (c *CostMatrix) IsSymmetric() bool {
	for i := 0; i < c.n; i++ {
		for j := i + 1; j < c.n; j++ {
			if math.Abs(c.m.At(i, j)-c.m.At(j, i)) > symTol {
				return false
			}
		}
	}
	return true
}

// Rows returns a copy of the matrix as row slices.
func (c *CostMatrix) Rows() [][]float64 {
	out := make([][]float64, c.n)
	for i := range out {
		out[i] = mat.Row(nil, i, c.m)
	}
	return out
}

// validate checks that every off-diagonal entry is a finite, non-negative number.
func (c *CostMatrix) validate() error {
	for i := 0; i < c.n; i++ {
		for j := 0; j < c.n; j++ {
			if i == j {
				continue
			}
			v := c.m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("cost %d->%d is missing: %w", i, j, ErrMalformedProblem)
			}
			if v < 0 {
				return fmt.Errorf("cost %d->%d is negative (%v): %w", i, j, v, ErrMalformedProblem)
			}
		}
	}
	return nil
}
