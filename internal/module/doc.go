// Package module implements the managed-device model: persistent identity,
// validation, session binding and the per-type command surface.
//
// A module is a physical device (LED strip, shutter actuator, weather
// display, test box) that authenticates over a realtime channel with an
// opaque token. Its persisted record and its in-memory instance share the
// same id and type for their whole coexistence; connection status is never
// persisted and is always derived from the live session binding.
//
// # Lifecycle
//
// A module is registered (created) with validated=false so it can
// authenticate immediately, but it may not exchange operational events
// until an administrator validates it. Modules that are never validated
// within the eviction window are deleted by a one-shot timer that
// re-checks the flag before acting. Once validated, a module may connect
// any number of times; deleting it tears down any live session.
//
// # Kinds
//
// The closed set of module kinds shares one concrete Module type; kind
// hooks wire inbound listeners and replay last-known metadata on connect.
// Typed command wrappers (LEDStrip, Shutter, Weather, Test) are obtained
// from a Module via its accessor methods and expose the per-kind commands.
//
// Registry holds the in-memory instances, arms eviction timers and is the
// single mutator of the module list.
package module
