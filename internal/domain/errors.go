package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain-level errors
var (
	ErrProductNotFound = errors.New("product not found")
)

// Issue describes a single field that failed validation
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input, or the result of merging a patch
// into a stored product, does not satisfy the product schema.
type ValidationError struct {
	Message string
	Issues  []Issue
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return e.Message
	}

	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// NotFound wraps ErrProductNotFound with the id that was looked up
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrProductNotFound, id)
}
