package errors

import "errors"

var (
	ErrNotFound = errors.New("security deposit not found")

	ErrInvalidID = errors.New("invalid security deposit ID format")

	// ErrChanged is returned when the deposit was refunded by another request
	// since it was read.
	ErrChanged = errors.New("security deposit changed concurrently")
)
