package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// ErrGeneration is the single user-facing category for every failed
	// call to the generation endpoint.
	ErrGeneration = errors.New("generation failed")

	// ErrMalformedResponse marks endpoint output that could not be decoded
	// into the expected shape. It is also an ErrGeneration.
	ErrMalformedResponse = fmt.Errorf("malformed AI response: %w", ErrGeneration)
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure, never shown to clients
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// GenerationFailed wraps an endpoint or transport failure.
func GenerationFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrGeneration,
		Message: "generation failed",
		Cause:   cause,
	}
}

// MalformedResponse wraps a decoding failure of endpoint output.
func MalformedResponse(cause error) *AppError {
	return &AppError{
		Err:     ErrMalformedResponse,
		Message: "generation failed",
		Cause:   cause,
	}
}
