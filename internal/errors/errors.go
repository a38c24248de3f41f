// Package errors provides standardized error types for preprocessing
// operations. PipelineError carries the pipeline stage and column context so
// failures surface with enough information to locate the offending data.
package errors

import (
	"fmt"
)

// PipelineError represents standardized errors across preprocessing stages.
type PipelineError struct {
	Stage   string // Stage name (e.g. "guide", "encode", "impute")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s stage failed on column '%s': %s", e.Stage, e.Column, e.Message)
	}
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
func (e *PipelineError) Is(target error) bool {
	if pe, ok := target.(*PipelineError); ok {
		return e.Stage == pe.Stage && e.Column == pe.Column && e.Message == pe.Message
	}
	return false
}

// NewColumnNotFoundError creates an error for stages that require a column
// which is absent from the chunk.
func NewColumnNotFoundError(stage, column string) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewStructuralError creates an error for malformed data a stage cannot
// evaluate at all. Structural errors abort the chunk.
func NewStructuralError(stage, column, message string) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Column:  column,
		Message: message,
	}
}

// NewInvalidInputError creates an error for invalid stage inputs.
func NewInvalidInputError(stage, message string) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Message: message,
	}
}

// NewInternalError creates an error for internal stage failures.
func NewInternalError(stage string, cause error) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Predefined error variables for common cases.
var (
	// ErrEmptyChunk indicates operations on chunks with no rows.
	ErrEmptyChunk = &PipelineError{
		Stage:   "validation",
		Message: "operation not supported on empty chunk",
	}

	// ErrMismatchedLength indicates length mismatches between columns.
	ErrMismatchedLength = &PipelineError{
		Stage:   "validation",
		Message: "columns must have the same length",
	}

	// ErrNoTrainingRows indicates a learner was given no observed rows.
	ErrNoTrainingRows = &PipelineError{
		Stage:   "impute",
		Message: "no rows with observed target",
	}
)
