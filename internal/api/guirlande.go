package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/maison-core/internal/color"
	"github.com/nerrad567/maison-core/internal/guirlande"
)

// accessCodeHeader carries the shared code visitors present when the
// Guirlande is in PUBLIC mode.
const accessCodeHeader = "X-Access-Code"

type guirlandeColorRequest struct {
	Hex   *string `json:"hex,omitempty"`
	Red   *int    `json:"red,omitempty"`
	Green *int    `json:"green,omitempty"`
	Blue  *int    `json:"blue,omitempty"`
}

type guirlandePresetsRequest struct {
	Enabled *bool `json:"enabled"`
}

type guirlandeAccessRequest struct {
	Mode guirlande.AccessMode `json:"mode"`
}

// guirlandeState is the public view of the light: settings plus the
// live colour. The access code never appears here.
type guirlandeState struct {
	AccessMode     guirlande.AccessMode `json:"access_mode"`
	Red            int                  `json:"red"`
	Green          int                  `json:"green"`
	Blue           int                  `json:"blue"`
	Hex            string               `json:"hex"`
	ActivePreset   string               `json:"active_preset,omitempty"`
	RotationActive bool                 `json:"rotation_active"`
	Presets        []string             `json:"presets"`
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleGetGuirlande returns the light's settings and live colour.
func (s *Server) handleGetGuirlande(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeGuirlande(w, r) {
		return
	}

	settings, err := s.guirlande.Settings(r.Context())
	if err != nil {
		s.logger.Error("load guirlande settings failed", "error", err)
		writeInternalError(w, "failed to load guirlande state")
		return
	}

	red, green, blue := s.guirlande.Current()

	writeJSON(w, http.StatusOK, guirlandeState{
		AccessMode:     settings.AccessMode,
		Red:            red,
		Green:          green,
		Blue:           blue,
		Hex:            color.New(red, green, blue).Hex(),
		ActivePreset:   s.guirlande.ActivePreset(),
		RotationActive: s.guirlande.RotationActive(),
		Presets:        s.guirlande.PresetNames(),
	})
}

// handleGuirlandeColor sets the display colour, taking either a hex
// string or the three channels. A running preset is not stopped; the
// next tick simply overwrites a direct set.
func (s *Server) handleGuirlandeColor(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeGuirlande(w, r) {
		return
	}

	var req guirlandeColorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var err error
	switch {
	case req.Hex != nil:
		err = s.guirlande.SetColorHex(r.Context(), *req.Hex)
		if errors.Is(err, color.ErrInvalidHex) {
			writeBadRequest(w, "invalid hex colour: expected #RRGGBB")
			return
		}
	case req.Red != nil && req.Green != nil && req.Blue != nil:
		err = s.guirlande.SetColorRGB(r.Context(), *req.Red, *req.Green, *req.Blue)
	default:
		writeBadRequest(w, "provide hex or red, green and blue")
		return
	}
	if err != nil {
		s.logger.Error("set guirlande colour failed", "error", err)
		writeInternalError(w, "failed to set colour")
		return
	}

	red, green, blue := s.guirlande.Current()
	if s.telemetry != nil {
		s.telemetry.WriteGuirlandeColour(red, green, blue)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"red":   red,
		"green": green,
		"blue":  blue,
		"hex":   color.New(red, green, blue).Hex(),
	})
}

// handleGuirlandePresets starts or stops the preset rotation.
func (s *Server) handleGuirlandePresets(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeGuirlande(w, r) {
		return
	}

	var req guirlandePresetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Enabled == nil {
		writeBadRequest(w, "enabled is required")
		return
	}

	var err error
	if *req.Enabled {
		err = s.guirlande.StartPresets(r.Context())
	} else {
		err = s.guirlande.StopPresets(r.Context())
	}
	if err != nil {
		s.logger.Error("toggle guirlande presets failed", "enabled", *req.Enabled, "error", err)
		writeInternalError(w, "failed to toggle presets")
		return
	}

	if s.relay != nil {
		if err := s.relay.GuirlandePreset(s.guirlande.ActivePreset(), *req.Enabled); err != nil {
			s.logger.Warn("publishing guirlande preset state failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rotation_active": s.guirlande.RotationActive(),
		"active_preset":   s.guirlande.ActivePreset(),
	})
}

// handleGuirlandeAccess switches the light between PUBLIC and PRIVATE.
func (s *Server) handleGuirlandeAccess(w http.ResponseWriter, r *http.Request) {
	var req guirlandeAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !req.Mode.Valid() {
		writeBadRequest(w, "mode must be PUBLIC or PRIVATE")
		return
	}

	if err := s.guirlande.SetAccessMode(r.Context(), req.Mode); err != nil {
		s.logger.Error("set guirlande access mode failed", "error", err)
		writeInternalError(w, "failed to set access mode")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logger.Info("guirlande access mode changed", "mode", req.Mode, "changed_by", claims.Subject)

	writeJSON(w, http.StatusOK, map[string]any{"access_mode": req.Mode})
}

// handleGetGuirlandeCode returns the current access code so it can be
// shared with visitors.
func (s *Server) handleGetGuirlandeCode(w http.ResponseWriter, r *http.Request) {
	settings, err := s.guirlande.Settings(r.Context())
	if err != nil {
		s.logger.Error("load guirlande settings failed", "error", err)
		writeInternalError(w, "failed to load access code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"code": settings.AccessCode})
}

// handleRegenerateGuirlandeCode replaces the access code. Visitors
// holding the old one lose access immediately.
func (s *Server) handleRegenerateGuirlandeCode(w http.ResponseWriter, r *http.Request) {
	code, err := s.guirlande.GenerateAccessCode(r.Context())
	if err != nil {
		s.logger.Error("regenerate guirlande access code failed", "error", err)
		writeInternalError(w, "failed to regenerate access code")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logger.Info("guirlande access code regenerated", "changed_by", claims.Subject)

	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

// ─── Helpers ───────────────────────────────────────────────────────

// authorizeGuirlande runs the light's access gate for endpoints that
// sit outside the JWT middleware. A valid bearer token always passes;
// otherwise the gate decides based on mode and the X-Access-Code
// header. Writes a 403 and returns false on denial.
func (s *Server) authorizeGuirlande(w http.ResponseWriter, r *http.Request) bool {
	authenticated := false
	if token := bearerToken(r); token != "" {
		if _, err := s.auth.Authenticate(token); err == nil {
			authenticated = true
		}
	}

	code := r.Header.Get(accessCodeHeader)
	if err := s.guirlande.Authorize(r.Context(), authenticated, code); err != nil {
		if errors.Is(err, guirlande.ErrAccessDenied) {
			writeForbidden(w, "guirlande access denied")
			return false
		}
		s.logger.Error("guirlande authorization failed", "error", err)
		writeInternalError(w, "failed to authorize")
		return false
	}
	return true
}
