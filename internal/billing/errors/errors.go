package errors

import "errors"

var (
	ErrNotFound = errors.New("billing record not found")

	ErrInvalidID = errors.New("invalid billing ID format")

	// ErrDuplicate is returned when the tenant already has a bill for the month.
	ErrDuplicate = errors.New("bill already exists for tenant and month")

	ErrStatusChanged = errors.New("billing record status changed concurrently")
)
