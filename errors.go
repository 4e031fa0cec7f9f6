// Structured error types shared by the grid, executors and driver.

package stencil

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Invalid argument errors (bad extents, iteration counts, options)
	ErrTypeInvalidArg ErrorType = iota
	// File open/read/write errors
	ErrTypeIO
	// Grid buffer could not be obtained
	ErrTypeAllocation
	// Failure while a pass was running
	ErrTypeExecution
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stencil %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("stencil %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeIO:
		return "IOFailure"
	case ErrTypeAllocation:
		return "AllocationFailure"
	case ErrTypeExecution:
		return "Execution"
	default:
		return "Unknown"
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &Error{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewIOError creates an I/O error wrapping the underlying cause
func NewIOError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeIO,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewAllocationError creates an allocation error
func NewAllocationError(op string, message string) error {
	return &Error{
		Type:    ErrTypeAllocation,
		Op:      op,
		Message: message,
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

var (
	// ErrAliasedGrids is returned when a pass would read and write the same buffer
	ErrAliasedGrids = NewInvalidArgError("Apply", "input and output grids share storage")

	// ErrShapeMismatch is returned when input and output extents differ
	ErrShapeMismatch = NewInvalidArgError("Apply", "input and output grids differ in shape")

	// ErrNilGrid is returned when a nil grid is passed to a pass
	ErrNilGrid = NewInvalidArgError("Apply", "nil grid")

	// ErrPoolClosed is returned when work is submitted to a closed worker pool
	ErrPoolClosed = NewExecutionError("WorkerPool", "pool is closed", nil)
)

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	return isType(err, ErrTypeInvalidArg)
}

// IsIOError checks if an error is an I/O error
func IsIOError(err error) bool {
	return isType(err, ErrTypeIO)
}

// IsAllocationError checks if an error is an allocation error
func IsAllocationError(err error) bool {
	return isType(err, ErrTypeAllocation)
}

// IsExecutionError checks if an error is an execution error
func IsExecutionError(err error) bool {
	return isType(err, ErrTypeExecution)
}
