// Package errors maps solver failures to HTTP responses and guards handlers
// against panics.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/optimization/catalog"
)

// Error codes reported to API clients.
const (
	CodeBadRequest      = "bad_request"
	CodeUnknownName     = "unknown_component"
	CodeInvalidProblem  = "invalid_problem"
	CodeInvalidSolution = "invalid_solution"
	CodeConstruction    = "construction_failed"
	CodeNotFound        = "not_found"
	CodeRateLimited     = "rate_limited"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal"
)

// Error is an API error with the HTTP status it maps to.
type Error struct {
	// Status is the HTTP status code
	Status int
	// Code is a stable machine-readable identifier
	Code string
	// Message describes the error to the client
	Message string
	// Err is the underlying error, if any
	Err error
	// Stack is captured for internal errors only
	Stack []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var builder strings.Builder
	builder.WriteString(e.Code)
	if e.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Message)
	}
	if e.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Err.Error())
	}
	return builder.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Detail is the client-facing text: the message and the underlying cause.
func (e *Error) Detail() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

// New creates an error with a status, code and message.
func New(status int, code, msg string) *Error {
	return &Error{Status: status, Code: code, Message: msg}
}

// Wrap wraps err with a status, code and message.
func Wrap(err error, status int, code, msg string) *Error {
	if err == nil {
		return nil
	}
	e := &Error{Status: status, Code: code, Message: msg, Err: err}
	if status >= http.StatusInternalServerError {
		e.Stack = getStackTrace()
	}
	return e
}

// BadRequest wraps a client input error.
func BadRequest(err error, format string, args ...any) *Error {
	return Wrap(err, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf(format, args...))
}

// From classifies err. Errors that are already *Error are returned as is;
// rejected problems and solutions become 422, unknown component names 400,
// everything else 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	switch {
	case stderrors.Is(err, catalog.ErrUnknown):
		return Wrap(err, http.StatusBadRequest, CodeUnknownName, "")
	case stderrors.Is(err, optimization.ErrInvalidProblem):
		return Wrap(err, http.StatusUnprocessableEntity, CodeInvalidProblem, "")
	case stderrors.Is(err, optimization.ErrInvalidSolution):
		return Wrap(err, http.StatusUnprocessableEntity, CodeInvalidSolution, "")
	case stderrors.Is(err, optimization.ErrConstruction):
		return Wrap(err, http.StatusUnprocessableEntity, CodeConstruction, "")
	default:
		return Wrap(err, http.StatusInternalServerError, CodeInternal, "")
	}
}

// getStackTrace returns the current stack trace as a slice of strings.
func getStackTrace() []string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // Skip runtime.Callers, getStackTrace, and the constructor
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]string, 0, n)

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") && !strings.Contains(frame.File, "internal/errors") {
			stack = append(stack, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}

	return stack
}
