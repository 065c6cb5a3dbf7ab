package vrp

import "errors"

var (
	// ErrEmptyMatrix is returned when a cost matrix has no rows.
	ErrEmptyMatrix = errors.New("empty cost matrix")
	// ErrNonSquare is returned when a cost matrix row length differs from the row count.
	ErrNonSquare = errors.New("cost matrix is not square")

	// ErrMalformedProblem wraps every structural problem violation.
	ErrMalformedProblem = errors.New("malformed problem")

	// ErrInvalidRoute wraps route shape violations: missing depot ends,
	// depot visited mid-route, unknown location ids.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrCapacityExceeded is wrapped when a route carries more than its vehicle holds.
	ErrCapacityExceeded = errors.New("vehicle capacity exceeded")
	// ErrCoverage is wrapped when a customer is missed or visited more than once.
	ErrCoverage = errors.New("customer coverage violated")
)
