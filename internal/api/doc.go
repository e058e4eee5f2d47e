// Package api implements the HTTP control plane and the module
// WebSocket endpoint for Maison Core.
//
// This package provides:
//   - REST endpoints for module management and per-type commands
//   - the guirlande surface with its PUBLIC/PRIVATE access gate
//   - user login and administration backed by internal/auth
//   - the WebSocket transport remote modules connect through, driving
//     the module.connect token handshake
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Error responses are structured {status, code, message} JSON bodies.
package api
