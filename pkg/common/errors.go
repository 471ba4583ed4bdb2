package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API callers as {code, message}.
const (
	CodeValidation       = "validation_error"
	CodeReference        = "reference_error"
	CodeStorage          = "storage_error"
	CodeComputationLimit = "computation_limit"
)

// ValidationError reports malformed or missing required input. It is never
// retried and is surfaced verbatim to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ReferenceError reports that a referenced entity does not exist in the
// tenant (missing edge endpoint, missing start node, missing merge source).
type ReferenceError struct {
	Message string
}

func (e *ReferenceError) Error() string { return e.Message }

func NewReferenceError(format string, args ...any) error {
	return &ReferenceError{Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a backing-store failure. The engine does not retry
// internally; transient failures are the caller's retry decision.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// ComputationLimitError reports that a graph is too large for synchronous
// computation; callers fall back to background processing.
type ComputationLimitError struct {
	Message string
}

func (e *ComputationLimitError) Error() string { return e.Message }

func NewComputationLimitError(format string, args ...any) error {
	return &ComputationLimitError{Message: fmt.Sprintf(format, args...)}
}

// ErrorCode maps an error to its API error code.
func ErrorCode(err error) string {
	var (
		ve *ValidationError
		re *ReferenceError
		ce *ComputationLimitError
	)
	switch {
	case errors.As(err, &ve):
		return CodeValidation
	case errors.As(err, &re):
		return CodeReference
	case errors.As(err, &ce):
		return CodeComputationLimit
	default:
		return CodeStorage
	}
}

// HTTPStatus maps an error to its HTTP-style status: 400 for validation,
// 404 for missing references, 422 for computation limits, 500 otherwise.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeReference:
		return http.StatusNotFound
	case CodeComputationLimit:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
