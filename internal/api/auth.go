package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/maison-core/internal/auth"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int        `json:"expires_in"`
	User        *auth.User `json:"user"`
}

// changePasswordRequest is the request body for POST /auth/password.
type changePasswordRequest struct {
	Current string `json:"current_password"`
	Next    string `json:"new_password"`
}

// handleLogin authenticates a user and returns a JWT access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.auth.TokenTTL().Seconds()),
		User:        user,
	})
}

// handleMe returns the account behind the presented token.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authorization required")
		return
	}

	user, err := s.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, "account no longer exists")
			return
		}
		s.logger.Error("fetch current user failed", "error", err)
		writeInternalError(w, "failed to fetch account")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleChangePassword updates the caller's own password after
// verifying the current one.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authorization required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Next) < minPasswordLength {
		writeBadRequest(w, "new password must be at least 8 characters")
		return
	}

	if err := s.auth.ChangePassword(r.Context(), claims.Subject, req.Current, req.Next); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeForbidden(w, "current password is incorrect")
			return
		}
		s.logger.Error("change password failed", "error", err)
		writeInternalError(w, "failed to change password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"changed": true})
}

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8
