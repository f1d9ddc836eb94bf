package service

import "errors"

// Service error taxonomy. The HTTP layer maps these onto status codes; the
// store adapters never return them directly.
var (
	// ErrInvalidInput marks a submission or query that fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a lookup for an unknown participant.
	ErrNotFound = errors.New("participant not found")

	// ErrStorageTimeout marks a storage call or lock wait that exceeded
	// its deadline. The operation may or may not have been applied.
	ErrStorageTimeout = errors.New("storage timeout")

	// ErrStorageUnavailable marks any other storage failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
