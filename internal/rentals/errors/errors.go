package errors

import "errors"

var (
	ErrNotFound = errors.New("rental listing not found")

	ErrInvalidID = errors.New("invalid rental listing ID format")

	ErrDuplicateProperty = errors.New("rental listing already exists for property")
)
