package errors

import "errors"

var (
	ErrNotFound = errors.New("tenant not found")

	ErrInvalidID = errors.New("invalid tenant ID format")

	// ErrDuplicate is returned when the user already has a tenant profile.
	ErrDuplicate = errors.New("tenant profile already exists for user")

	ErrStatusChanged = errors.New("tenant status changed concurrently")
)
