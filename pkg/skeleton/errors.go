package skeleton

import "errors"

var (
	// ErrUnknownLift is returned when no definition exists for a lift id.
	ErrUnknownLift = errors.New("unknown lift")

	// ErrInvalidDefinition wraps structural problems found by Validate or the loader.
	ErrInvalidDefinition = errors.New("invalid skeleton definition")
)
