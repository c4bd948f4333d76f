package pipeline

import "errors"

// CauseCancelled is the failure cause recorded when a Job's context is
// cancelled.
const CauseCancelled = "cancelled"

// ErrCancelled is returned when a Job fails because its context was
// cancelled.
var ErrCancelled = errors.New("job cancelled")
