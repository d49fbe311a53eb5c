package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrJobNotFound is returned when a job is not found.
	ErrJobNotFound = errors.New("job not found")
	// ErrDuplicateJob is returned when an insert collides on the job identifier.
	// Should be unreachable with server-generated identifiers.
	ErrDuplicateJob = errors.New("job id already exists")
)
