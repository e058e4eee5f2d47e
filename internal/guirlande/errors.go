package guirlande

import "errors"

var (
	// ErrAccessDenied is returned by Authorize when an unauthenticated
	// request fails the access gate.
	ErrAccessDenied = errors.New("guirlande: access denied")

	// ErrInvalidAccessMode is returned when an access mode is neither
	// PUBLIC nor PRIVATE.
	ErrInvalidAccessMode = errors.New("guirlande: invalid access mode")
)
