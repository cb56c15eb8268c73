package animation

import "errors"

var (
	// ErrUnknownProfile is returned when no motion profile exists for a lift.
	ErrUnknownProfile = errors.New("unknown motion profile")

	// ErrUnknownParameter is returned for a setup parameter key the profile does not declare.
	ErrUnknownParameter = errors.New("unknown setup parameter")

	// ErrInvalidProfile is returned when a profile file is malformed.
	ErrInvalidProfile = errors.New("invalid motion profile")
)
