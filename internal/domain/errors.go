// Package domain defines core types, interfaces, and errors for the maintenance graph.
package domain

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// LoadError identifies the serialized triple file that could not be read or parsed.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.File, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// QueryError carries the graph store's message for a query it rejected.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string { return e.Message }

// ErrNotReady is returned when a query is issued before the session reached
// the Reasoned state.
var ErrNotReady = errors.New("graph is not ready: load and reasoning have not completed")

// ErrEmptyOptions reports that a parameter resolved to no candidate values.
// It is a warning condition, never fatal.
var ErrEmptyOptions = errors.New("no options available")

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrQuery creates a QueryError with a formatted message.
func ErrQuery(format string, args ...interface{}) *QueryError {
	return &QueryError{Message: fmt.Sprintf(format, args...)}
}
