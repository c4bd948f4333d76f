package capability

import "errors"

// Capability call errors.
var (
	ErrNoCompletion    = errors.New("model returned no completion choices")
	ErrEmptyRewrite    = errors.New("model returned an empty replacement")
	ErrOversizeRewrite = errors.New("model returned an oversized replacement")
)
