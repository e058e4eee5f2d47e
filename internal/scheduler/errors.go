package scheduler

import "errors"

var (
	// ErrTaskExists is returned when a recurring task key is already registered.
	ErrTaskExists = errors.New("scheduler: task already registered")

	// ErrTaskNotFound is returned when cancelling an unknown task key.
	ErrTaskNotFound = errors.New("scheduler: task not found")

	// ErrInvalidInterval is returned for non-positive intervals.
	ErrInvalidInterval = errors.New("scheduler: interval must be positive")
)
