package api

import "errors"

// Sentinel kinds for API parameter errors.
var (
	ErrBadLimit         = errors.New("limit must be a positive integer")
	ErrBadWindow        = errors.New("hours must be a positive integer")
	ErrBadParticipantID = errors.New("participant id must be a single path segment")
)
