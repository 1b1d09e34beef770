package database

import "errors"

var (
	// ErrNotFound is returned when a reservation or guest does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification is returned when a versioned update loses an
	// optimistic-locking race.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrUnknownResource is returned when an assignment references a resource
	// absent from the catalog snapshot.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrEmptyAssignment is returned when a commit carries no (day, resource)
	// pairs.
	ErrEmptyAssignment = errors.New("empty assignment")
)
