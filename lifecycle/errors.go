package lifecycle

import (
	"errors"
	"fmt"

	"github.com/coreybb/couponbook/datastore"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is the registries' not-found error, re-exported for callers
	// of the engine.
	ErrNotFound = datastore.ErrNotFound
)

// ValidationError reports malformed or missing input. It is returned before
// any collection is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
