package jobs

import "errors"

// Domain errors for job state management.
var (
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrJobTerminal       = errors.New("job is in a terminal status")
	ErrSuggestionExists  = errors.New("violation already has a suggestion")
	ErrViolationNotFound = errors.New("violation not found on job")
)
