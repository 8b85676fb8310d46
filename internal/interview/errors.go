package interview

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Forbidden reasons
const (
	ReasonAdminEmail = "admin accounts cannot take interviews"
	ReasonRevoked    = "interview access revoked"
)

// ValidationError reports malformed or missing input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ForbiddenError carries the reason an operation was refused. It matches
// ErrForbidden with errors.Is.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
