package errors

import "errors"

var (
	ErrNotFound = errors.New("inventory record not found")

	ErrInvalidID = errors.New("invalid inventory ID format")

	ErrDuplicate = errors.New("inventory record already exists")

	// ErrStatusChanged is returned by conditional bed status updates when the
	// bed is no longer in the expected status.
	ErrStatusChanged = errors.New("bed status changed concurrently")
)
