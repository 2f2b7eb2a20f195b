package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotAvailable  = errors.New("not available")
	ErrValidation    = errors.New("validation failed")
)

// ValidationError describes one rejected field. It unwraps to ErrValidation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// ValidationErrors collects required-field failures reported together.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrValidation }

// OrNil returns nil for an empty collection so callers can `return errs.OrNil()`.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
