package domain

import "errors"

var (
	// ErrNotFound is returned when a keyed lookup finds no record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when adding a record whose key is
	// already present.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict is returned when creating a resource whose id exists.
	ErrConflict = errors.New("already exists")
)
