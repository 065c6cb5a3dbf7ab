package optimization

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProblem means the problem failed structural validation.
	// Nothing was initialized; the input has to be fixed upstream.
	ErrInvalidProblem = errors.New("invalid problem")
	// ErrInvalidSolution means the initializer returned a solution that breaks
	// the capacity or coverage invariants of the problem.
	ErrInvalidSolution = errors.New("invalid initial solution")
	// ErrConstruction means an initializer could not derive a feasible assignment.
	ErrConstruction = errors.New("no feasible initial solution")
)

// Error represents a solver error with context
// that can be wrapped with additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapErrorf wraps an existing error with additional formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// invalid builds the error for a failed validity check so that both the
// sentinel and the validation detail survive errors.Is.
func invalid(sentinel, detail error) error {
	if detail == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, detail)
}

// ConstructionError reports why an initializer could not build a feasible solution.
type ConstructionError struct {
	// Initializer names the initializer that gave up.
	Initializer string
	// Reason is a short human readable explanation.
	Reason string
	// Unassigned lists the customers left without a route, if known.
	Unassigned []int
}

func (e *ConstructionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Initializer)
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Unassigned) > 0 {
		fmt.Fprintf(&b, " (unassigned customers: %v)", e.Unassigned)
	}
	return b.String()
}

// Unwrap makes errors.Is(err, ErrConstruction) hold.
func (e *ConstructionError) Unwrap() error {
	return ErrConstruction
}

// IsSolverError checks if an error is of type Error.
// If it is, it returns the error and true.
func IsSolverError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
