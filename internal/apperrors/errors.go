// Package apperrors holds the sentinel error kinds shared by repositories,
// services and handlers. Callers classify failures with errors.Is and map
// each kind to an HTTP status at the handler boundary.
package apperrors

import "errors"

var (
	// ErrNotFound means the referenced record (product, category, user)
	// does not exist. Absence is a normal outcome, not a panic-worthy one.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller is authenticated but not allowed to
	// perform the operation, e.g. editing a product they do not own.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means the request payload was structurally valid JSON
	// but carried an unusable value, e.g. an unknown item condition.
	ErrValidation = errors.New("validation failed")
)
