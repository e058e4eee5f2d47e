package module

import "errors"

// Domain errors for the module package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, module.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a module id or token does not exist.
	ErrNotFound = errors.New("module: not found")

	// ErrExists is returned when creating a module with an id that already exists.
	ErrExists = errors.New("module: already exists")

	// ErrUnknownType is returned when a persisted type value matches no
	// known module kind. This is a fatal construction error, never a
	// silent default.
	ErrUnknownType = errors.New("module: unknown type")

	// ErrAlreadyOnline is returned by Connect while a session is already bound.
	ErrAlreadyOnline = errors.New("module: already online")

	// ErrOffline is returned by Send while no session is bound.
	ErrOffline = errors.New("module: module is offline")

	// ErrNotValidated is returned for operational traffic on an
	// unvalidated module.
	ErrNotValidated = errors.New("module: not validated")

	// ErrWrongKind is returned when asking a module for a typed command
	// surface that does not match its type.
	ErrWrongKind = errors.New("module: wrong kind")
)
