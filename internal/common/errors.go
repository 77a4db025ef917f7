package common

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Services return these (wrapped with context via
// fmt.Errorf and %w); handlers translate them to HTTP responses.
var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the entity exists but belongs to another owner.
	// Ownership checks always run after the existence check so that the
	// two cases can be rendered identically at the HTTP boundary.
	ErrForbidden = errors.New("access denied")

	// ErrConflict means a storage uniqueness constraint rejected a write,
	// e.g. an invoice number collision.
	ErrConflict = errors.New("conflict")

	// ErrTemplateNotFound means a PDF layout was requested that the
	// renderer does not know. Kept distinct from ErrNotFound so callers
	// can tell a bad template selector from a missing invoice.
	ErrTemplateNotFound = errors.New("template not found")
)

// ValidationError is a caller-correctable input error. It is surfaced
// before any persistence attempt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
