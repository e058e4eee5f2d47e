package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/maison-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/maison-core/internal/loop"
	"github.com/nerrad567/maison-core/internal/module"
)

// ─── Request/Response Types ────────────────────────────────────────

type createModuleRequest struct {
	Type *int `json:"type"`
}

type createModuleResponse struct {
	ID       string `json:"id"`
	Type     int    `json:"type"`
	TypeName string `json:"type_name"`
	Token    string `json:"token"`
}

type renameModuleRequest struct {
	Name *string `json:"name"`
}

type colorRequest struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

type loopRequest struct {
	// A nil loop stops whatever the device is currently running.
	Loop *string `json:"loop"`
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type testDataRequest struct {
	Data any `json:"data"`
}

// ─── Collection Handlers ───────────────────────────────────────────

// handleListModules returns summaries of all registered modules.
// Tokens are never included.
func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	modules := s.registry.List()

	summaries := make([]module.Summary, 0, len(modules))
	for _, m := range modules {
		summaries = append(summaries, m.Summary())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"modules": summaries,
		"count":   len(summaries),
	})
}

// handleCreateModule registers a new module and returns its connection
// token. This is the only response that ever carries the token; it is
// shown once, at registration.
func (s *Server) handleCreateModule(w http.ResponseWriter, r *http.Request) {
	var req createModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Type == nil {
		writeBadRequest(w, "type is required")
		return
	}

	t := module.Type(*req.Type)
	if !t.Valid() {
		writeBadRequest(w, "unknown module type")
		return
	}
	if t == module.TypeTest && !s.devMode {
		writeBadRequest(w, "test modules are only available in dev mode")
		return
	}

	m, err := s.registry.Create(r.Context(), t)
	if err != nil {
		s.logger.Error("create module failed", "error", err)
		writeInternalError(w, "failed to register module")
		return
	}

	token, err := m.GenerateToken(r.Context())
	if err != nil {
		s.logger.Error("generate module token failed", "module_id", m.ID(), "error", err)
		writeInternalError(w, "failed to register module")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logger.Info("module registered",
		"module_id", m.ID(),
		"module_type", t.String(),
		"registered_by", claims.Subject)

	writeJSON(w, http.StatusCreated, createModuleResponse{
		ID:       m.ID(),
		Type:     int(t),
		TypeName: t.String(),
		Token:    token,
	})
}

// ─── Instance Handlers ─────────────────────────────────────────────

// handleGetModule returns a single module summary.
func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Summary())
}

// handleRenameModule sets the module's display name. PUT and PATCH
// behave identically; name is the only mutable field.
func (s *Server) handleRenameModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	var req renameModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == nil {
		writeBadRequest(w, "name is required")
		return
	}

	if err := m.SetName(r.Context(), *req.Name); err != nil {
		s.logger.Error("rename module failed", "module_id", m.ID(), "error", err)
		writeInternalError(w, "failed to rename module")
		return
	}

	writeJSON(w, http.StatusOK, m.Summary())
}

// handleDeleteModule removes a module. Any live session is torn down
// and the retained MQTT status is cleared.
func (s *Server) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	id := m.ID()
	if err := s.registry.Delete(r.Context(), m); err != nil {
		s.logger.Error("delete module failed", "module_id", id, "error", err)
		writeInternalError(w, "failed to delete module")
		return
	}

	if s.relay != nil {
		if err := s.relay.ModuleDeleted(id); err != nil {
			s.logger.Warn("clearing retained module status failed", "module_id", id, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRegenerateModuleToken issues a fresh connection token,
// invalidating the previous one. A live session is not disturbed; the
// old token simply stops matching on the next connect.
func (s *Server) handleRegenerateModuleToken(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	token, err := m.GenerateToken(r.Context())
	if err != nil {
		s.logger.Error("regenerate module token failed", "module_id", m.ID(), "error", err)
		writeInternalError(w, "failed to regenerate token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleValidateModule marks the module as validated, disarming the
// eviction timer. Idempotent.
func (s *Server) handleValidateModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	if err := m.Validate(r.Context()); err != nil {
		s.logger.Error("validate module failed", "module_id", m.ID(), "error", err)
		writeInternalError(w, "failed to validate module")
		return
	}

	writeJSON(w, http.StatusOK, m.Summary())
}

// handleInvalidateModule clears the validated flag. The module keeps
// any live session but cannot reconnect until re-validated.
func (s *Server) handleInvalidateModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	if err := m.Invalidate(r.Context()); err != nil {
		s.logger.Error("invalidate module failed", "module_id", m.ID(), "error", err)
		writeInternalError(w, "failed to invalidate module")
		return
	}

	writeJSON(w, http.StatusOK, m.Summary())
}

// handleDisconnectModule forcibly closes the module's live session.
// A no-op for offline modules.
func (s *Server) handleDisconnectModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	if m.Status() == module.StatusOnline {
		m.Disconnect()
		s.noteModuleOffline(m)
	}

	writeJSON(w, http.StatusOK, m.Summary())
}

// ─── Command Handlers ──────────────────────────────────────────────

// handleModuleColor sends a colour to an LED strip module.
func (s *Server) handleModuleColor(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	strip, err := m.AsLEDStrip()
	if err != nil {
		s.writeModuleError(w, err)
		return
	}

	var req colorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := strip.SendColor(r.Context(), req.Red, req.Green, req.Blue); err != nil {
		s.writeModuleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleModuleLoop sends a loop script to an LED strip module, or
// stops the running loop when no script is given.
func (s *Server) handleModuleLoop(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	strip, err := m.AsLEDStrip()
	if err != nil {
		s.writeModuleError(w, err)
		return
	}

	var req loopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var lp *loop.Loop
	if req.Loop != nil {
		lp, err = loop.Parse(*req.Loop)
		if err != nil {
			writeBadRequest(w, "invalid loop script: "+err.Error())
			return
		}
	}

	if err := strip.SendLoop(r.Context(), lp); err != nil {
		s.writeModuleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleShutterCommand returns a handler sending one of the three
// shutter movements.
func (s *Server) handleShutterCommand(direction string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := s.moduleFromRequest(w, r)
		if !ok {
			return
		}

		shutter, err := m.AsShutter()
		if err != nil {
			s.writeModuleError(w, err)
			return
		}

		switch direction {
		case "up":
			err = shutter.Up(r.Context())
		case "down":
			err = shutter.Down(r.Context())
		default:
			err = shutter.Stop(r.Context())
		}
		if err != nil {
			s.writeModuleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	}
}

// handleWeatherAPIKey sends an API key to a weather module.
func (s *Server) handleWeatherAPIKey(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	weather, err := m.AsWeather()
	if err != nil {
		s.writeModuleError(w, err)
		return
	}

	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.APIKey == "" {
		writeBadRequest(w, "api_key is required")
		return
	}

	if err := weather.SendAPIKey(r.Context(), req.APIKey); err != nil {
		s.writeModuleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleWeatherLocation sends coordinates to a weather module.
func (s *Server) handleWeatherLocation(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	weather, err := m.AsWeather()
	if err != nil {
		s.writeModuleError(w, err)
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeBadRequest(w, "lat and lon are required")
		return
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lon < -180 || *req.Lon > 180 {
		writeBadRequest(w, "coordinates out of range")
		return
	}

	if err := weather.SendLocation(r.Context(), *req.Lat, *req.Lon); err != nil {
		s.writeModuleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleWeatherHistory returns recent readings for a weather module
// from the telemetry store. The window query parameter takes a Go
// duration string and defaults to 24h.
func (s *Server) handleWeatherHistory(w http.ResponseWriter, r *http.Request) {
	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	if _, err := m.AsWeather(); err != nil {
		s.writeModuleError(w, err)
		return
	}

	if s.telemetry == nil || !s.telemetry.IsConnected() {
		writeError(w, http.StatusServiceUnavailable, "TELEMETRY_UNAVAILABLE", "telemetry store is not available")
		return
	}

	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "invalid window: use a positive duration such as 6h or 30m")
			return
		}
		window = parsed
	}

	readings, err := s.telemetry.WeatherHistory(r.Context(), m.ID(), window)
	if err != nil {
		if errors.Is(err, influxdb.ErrNotConnected) || errors.Is(err, influxdb.ErrDisabled) {
			writeError(w, http.StatusServiceUnavailable, "TELEMETRY_UNAVAILABLE", "telemetry store is not available")
			return
		}
		s.logger.Error("weather history query failed", "module_id", m.ID(), "error", err)
		writeInternalError(w, "failed to query weather history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"module_id": m.ID(),
		"window":    window.String(),
		"readings":  readings,
		"count":     len(readings),
	})
}

// handleTestData sends an arbitrary payload to a test module.
// Hidden outside dev mode.
func (s *Server) handleTestData(w http.ResponseWriter, r *http.Request) {
	if !s.devMode {
		writeNotFound(w, "not found")
		return
	}

	m, ok := s.moduleFromRequest(w, r)
	if !ok {
		return
	}

	test, err := m.AsTest()
	if err != nil {
		s.writeModuleError(w, err)
		return
	}

	var req testDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := test.SendData(r.Context(), req.Data); err != nil {
		s.writeModuleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// ─── Helpers ───────────────────────────────────────────────────────

// moduleFromRequest resolves the {id} URL parameter to a loaded module,
// writing a 404 when it does not exist.
func (s *Server) moduleFromRequest(w http.ResponseWriter, r *http.Request) (*module.Module, bool) {
	id := chi.URLParam(r, "id")

	m, err := s.registry.Get(id)
	if err != nil {
		writeNotFound(w, "module not found")
		return nil, false
	}
	return m, true
}

// writeModuleError maps module package errors onto HTTP responses.
func (s *Server) writeModuleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, module.ErrNotFound):
		writeNotFound(w, "module not found")
	case errors.Is(err, module.ErrWrongKind):
		writeBadRequest(w, "command does not apply to this module type")
	case errors.Is(err, module.ErrOffline):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "module is offline")
	case errors.Is(err, module.ErrNotValidated):
		writeForbidden(w, "module is not validated")
	default:
		s.logger.Error("module command failed", "error", err)
		writeInternalError(w, "module command failed")
	}
}

// noteModuleOffline mirrors an offline transition onto MQTT and the
// telemetry store. Best-effort: failures are logged, never surfaced.
func (s *Server) noteModuleOffline(m *module.Module) {
	if s.relay != nil {
		if err := s.relay.ModuleOffline(m.ID(), m.Type().String()); err != nil {
			s.logger.Warn("publishing module offline failed", "module_id", m.ID(), "error", err)
		}
	}
	if s.telemetry != nil {
		s.telemetry.WriteModuleStatus(m.ID(), m.Type().String(), false)
	}
}
