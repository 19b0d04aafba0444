package storage

import "errors"

// Storage errors shared by every store implementation.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. Insert paths never update in place.
	ErrDuplicateKey = errors.New("duplicate key: insert does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
