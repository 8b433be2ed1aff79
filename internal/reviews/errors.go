package reviews

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a record does not exist for the caller.
	ErrNotFound = errors.New("review not found")
	// ErrValidation is returned when a submission is missing fields.
	ErrValidation = errors.New("validation failed")
	// ErrScoring is returned when the oracle fails, returns a bad shape, or the record cannot be saved.
	ErrScoring = errors.New("scoring failed")
)

// ValidationError lists the submission fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
