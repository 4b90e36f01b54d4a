package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrLockHeld means another request owns the listing's booking lock.
	ErrLockHeld = errors.New("booking lock is held")

	// ErrStatusChanged means a conditional status update found the booking in
	// a status other than the expected ones.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)
