package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrInvalidSortKey is returned when a listing is requested with a sort
	// key outside the allow-list
	ErrInvalidSortKey = errors.New("invalid sort key")

	// ErrInvalidField is returned when an update names a field outside the
	// allow-list
	ErrInvalidField = errors.New("invalid field")
)
