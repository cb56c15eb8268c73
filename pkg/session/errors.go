package session

import "errors"

var (
	// ErrSessionNotFound is returned when no session has the requested id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownJoint is returned when a manual adjustment names a joint the
	// active skeleton cannot rotate or pin.
	ErrUnknownJoint = errors.New("unknown joint")
)
