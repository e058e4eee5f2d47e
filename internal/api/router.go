package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Module WebSocket endpoint. Devices authenticate with their token
	// inside the module.connect handshake, not with a user JWT.
	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/ws/module"
	}
	r.Get(wsPath, s.handleModuleSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Guirlande public surface: its own PUBLIC/PRIVATE gate decides,
		// so these sit outside the JWT middleware.
		r.Route("/guirlande", func(r chi.Router) {
			r.Get("/", s.handleGetGuirlande)
			r.Post("/color", s.handleGuirlandeColor)
			r.Post("/presets", s.handleGuirlandePresets)

			// Administration of the gate itself always needs a user.
			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)
				r.Post("/access", s.handleGuirlandeAccess)
				r.Get("/code", s.handleGetGuirlandeCode)
				r.Post("/code", s.handleRegenerateGuirlandeCode)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/password", s.handleChangePassword)

			// User administration (admin only)
			r.Route("/users", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Delete("/{id}", s.handleDeleteUser)
			})

			// Module endpoints
			r.Route("/modules", func(r chi.Router) {
				r.Get("/", s.handleListModules)
				r.Post("/", s.handleCreateModule)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetModule)
					r.Put("/", s.handleRenameModule)
					r.Patch("/", s.handleRenameModule)
					r.Delete("/", s.handleDeleteModule)

					r.Post("/token", s.handleRegenerateModuleToken)
					r.Post("/validate", s.handleValidateModule)
					r.Post("/invalidate", s.handleInvalidateModule)
					r.Post("/disconnect", s.handleDisconnectModule)

					// LED strip commands
					r.Post("/color", s.handleModuleColor)
					r.Post("/loop", s.handleModuleLoop)

					// Shutter commands
					r.Post("/up", s.handleShutterCommand("up"))
					r.Post("/down", s.handleShutterCommand("down"))
					r.Post("/stop", s.handleShutterCommand("stop"))

					// Weather commands
					r.Post("/apiKey", s.handleWeatherAPIKey)
					r.Post("/location", s.handleWeatherLocation)
					r.Get("/weather/history", s.handleWeatherHistory)

					// Test commands (dev mode only)
					r.Post("/data", s.handleTestData)
				})
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
