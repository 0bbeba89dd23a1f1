package storage

import "errors"

// Storage errors shared by the ledger stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a record with the same key already
	// exists. Runs and token events are never updated in place.
	ErrDuplicateKey = errors.New("duplicate key: ledger records are append-only")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
