// Package domain holds the concerns shared by every domain package: the
// business error taxonomy, pagination, and the atomic-execution contract.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError indicates that a referenced entity id does not resolve.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for the given entity display name and id.
func NotFound(entity string, id uuid.UUID) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidOperationError indicates a business-rule violation: mutating a
// closed order, using an inactive sale item, deleting a referenced catalog
// entry, and so on. The message names the offending operation and, where
// applicable, the conflicting reference count.
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return e.Reason
}

// InvalidOperation builds an InvalidOperationError from a format string.
func InvalidOperation(format string, args ...any) error {
	return &InvalidOperationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidInputError indicates a contract violation in an input value:
// a malformed filter parameter or a pricing input outside its domain.
// Upstream validation should normally catch these before they reach the core.
type InvalidInputError struct {
	Param    string
	Value    string
	Expected string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: expected %s", e.Value, e.Param, e.Expected)
}

// InvalidInput builds an InvalidInputError.
func InvalidInput(param, value, expected string) error {
	return &InvalidInputError{Param: param, Value: value, Expected: expected}
}
