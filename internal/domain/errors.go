// Package domain defines core types, interfaces, and errors for the tabular
// data service.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input. Problems carries the structured
// violations when more than a bare message is available.
type ValidationError struct {
	Message  string
	Problems []Problem
}

func (e *ValidationError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrProblems creates a ValidationError carrying the given problems. The
// error message is the first problem's text.
func ErrProblems(problems []Problem) *ValidationError {
	msg := "validation failed"
	if len(problems) > 0 {
		msg = problems[0].Error
	}
	return &ValidationError{Message: msg, Problems: problems}
}
