package api

import (
	"net/http"
	"testing"

	"github.com/nerrad567/maison-core/internal/auth"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedUser(t, "marie", auth.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "marie",
		"password": "test-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Error("access_token missing from response")
	}
	if body["token_type"] != "Bearer" {
		t.Errorf("token_type = %v, want Bearer", body["token_type"])
	}
	if body["expires_in"].(float64) <= 0 {
		t.Errorf("expires_in = %v, want > 0", body["expires_in"])
	}

	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("user missing from response: %v", body)
	}
	if user["username"] != "marie" {
		t.Errorf("user.username = %v, want marie", user["username"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Error("password_hash must never be serialised")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedUser(t, "marie", auth.RoleUser)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "marie", "nope"},
		{"unknown user", "nobody", "test-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
				"username": tt.username,
				"password": tt.password,
			})
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "marie"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "marie", auth.RoleAdmin)

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	if body["username"] != "marie" {
		t.Errorf("username = %v, want marie", body["username"])
	}
	if body["role"] != "admin" {
		t.Errorf("role = %v, want admin", body["role"])
	}
}

func TestMe_InvalidToken(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "marie", auth.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/password", token, map[string]string{
		"current_password": "test-password",
		"new_password":     "fresh-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// The old password no longer logs in; the new one does.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "marie", "password": "test-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old password login status = %d, want 401", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "marie", "password": "fresh-password",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("new password login status = %d, want 200", rec.Code)
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "marie", auth.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/password", token, map[string]string{
		"current_password": "wrong",
		"new_password":     "fresh-password",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestChangePassword_TooShort(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "marie", auth.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/password", token, map[string]string{
		"current_password": "test-password",
		"new_password":     "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
