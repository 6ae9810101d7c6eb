package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrInvalidID = errors.New("invalid user ID format")

	// ErrDuplicatePhone is returned when another user already owns the phone.
	ErrDuplicatePhone = errors.New("user with this phone already exists")
)
