package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged is returned by conditional updates when the stored
	// booking no longer has the status it was read with.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)
