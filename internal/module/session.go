package module

import "encoding/json"

// Session is the live realtime channel bound to a module. The websocket
// layer provides the concrete implementation; tests use a mock.
//
// A session is bound to at most one module at a time, and the binding is
// the single source of truth for "is this module online".
type Session interface {
	// Emit sends a named event with an optional payload to the device.
	Emit(event string, payload any) error

	// On registers a handler for a named inbound event. Registering a
	// second handler for the same event replaces the first.
	On(event string, handler func(payload json.RawMessage))

	// Off removes any handler registered for the named event.
	Off(event string)

	// Close tears down the underlying transport connection.
	Close() error
}

// Wire event names for the handshake channel.
const (
	// EventConnect is the handshake event, both directions: the device
	// sends {token}, the server acknowledges with {status}.
	EventConnect = "module.connect"

	// EventError carries a fixed error code to the device.
	EventError = "module.error"
)

// Wire error codes surfaced on EventError.
const (
	CodeModuleNotFound     = "MODULE_NOT_FOUND"
	CodeModuleNotValidated = "MODULE_NOT_VALIDATED"
	CodeModuleError        = "MODULE_ERROR"
)

// ConnectRequest is the device-to-server handshake payload.
type ConnectRequest struct {
	Token string `json:"token"`
}

// ConnectAck is the server-to-device handshake acknowledgement.
type ConnectAck struct {
	Status Status `json:"status"`
}

// ErrorEvent is the payload of EventError.
type ErrorEvent struct {
	Error string `json:"error"`
}
