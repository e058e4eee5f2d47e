package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/nerrad567/maison-core/internal/auth"
	"github.com/nerrad567/maison-core/internal/module"
)

// registerModule registers a module over HTTP and returns its id and
// connection token.
func registerModule(t *testing.T, env *testEnv, token string, moduleType module.Type) (id, deviceToken string) {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/v1/modules/", token, map[string]int{"type": int(moduleType)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register module status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	id, _ = body["id"].(string)
	deviceToken, _ = body["token"].(string)
	if id == "" || deviceToken == "" {
		t.Fatalf("register module response missing id or token: %v", body)
	}
	return id, deviceToken
}

func TestCreateModule(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/api/v1/modules/", token, map[string]int{"type": 0})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	if body["type_name"] != "led-strip" {
		t.Errorf("type_name = %v, want led-strip", body["type_name"])
	}
	if body["token"] == "" {
		t.Error("token missing from registration response")
	}
	if env.registry.Count() != 1 {
		t.Errorf("registry count = %d, want 1", env.registry.Count())
	}
}

func TestCreateModule_Validation(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)

	tests := []struct {
		name string
		body any
	}{
		{"missing type", map[string]string{}},
		{"unknown type", map[string]int{"type": 42}},
		{"test type outside dev mode", map[string]int{"type": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/modules/", token, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateModule_TestTypeInDevMode(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.seedUser(t, "admin", auth.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/api/v1/modules/", token, map[string]int{"type": 3})
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestListModules_NeverLeaksToken(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	registerModule(t, env, token, module.TypeLEDStrip)

	rec := env.do(t, http.MethodGet, "/api/v1/modules/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	modules, ok := body["modules"].([]any)
	if !ok || len(modules) != 1 {
		t.Fatalf("modules = %v, want one entry", body["modules"])
	}
	entry := modules[0].(map[string]any)
	if _, leaked := entry["token"]; leaked {
		t.Error("module summary must not carry the token")
	}
	if entry["status"] != "offline" {
		t.Errorf("status = %v, want offline", entry["status"])
	}
}

func TestGetModule(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	id, _ := registerModule(t, env, token, module.TypeShutter)

	rec := env.do(t, http.MethodGet, "/api/v1/modules/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["type_name"] != "shutter" {
		t.Errorf("type_name = %v, want shutter", body["type_name"])
	}

	rec = env.do(t, http.MethodGet, "/api/v1/modules/mod-missing", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}

func TestRenameModule(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	id, _ := registerModule(t, env, token, module.TypeLEDStrip)

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		rec := env.do(t, method, "/api/v1/modules/"+id, token, map[string]string{"name": "salon " + method})
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200: %s", method, rec.Code, rec.Body.String())
		}
		if body := decode(t, rec); body["name"] != "salon "+method {
			t.Errorf("%s name = %v, want %q", method, body["name"], "salon "+method)
		}
	}

	rec := env.do(t, http.MethodPut, "/api/v1/modules/"+id, token, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", rec.Code)
	}
}

func TestValidateInvalidateModule(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	id, _ := registerModule(t, env, token, module.TypeLEDStrip)

	rec := env.do(t, http.MethodPost, "/api/v1/modules/"+id+"/validate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if body := decode(t, rec); body["validated"] != true {
		t.Errorf("validated = %v, want true", body["validated"])
	}

	// Idempotent.
	rec = env.do(t, http.MethodPost, "/api/v1/modules/"+id+"/validate", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("second validate status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/modules/"+id+"/invalidate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("invalidate status = %d, want 200", rec.Code)
	}
	if body := decode(t, rec); body["validated"] != false {
		t.Errorf("validated = %v, want false", body["validated"])
	}
}

func TestRegenerateModuleToken(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	id, oldToken := registerModule(t, env, token, module.TypeLEDStrip)

	rec := env.do(t, http.MethodPost, "/api/v1/modules/"+id+"/token", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	newToken, _ := body["token"].(string)
	if newToken == "" || newToken == oldToken {
		t.Errorf("token = %q, want fresh value != %q", newToken, oldToken)
	}

	// The old token stops matching.
	if _, err := env.registry.FindByToken(oldToken); err == nil {
		t.Error("old token still resolves after regeneration")
	}
	if _, err := env.registry.FindByToken(newToken); err != nil {
		t.Errorf("new token does not resolve: %v", err)
	}
}

func TestDeleteModule(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	id, _ := registerModule(t, env, token, module.TypeLEDStrip)

	rec := env.do(t, http.MethodDelete, "/api/v1/modules/"+id, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/modules/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("after delete status = %d, want 404", rec.Code)
	}
}

func TestModuleCommands_Offline(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)

	ledID, _ := registerModule(t, env, token, module.TypeLEDStrip)
	shutterID, _ := registerModule(t, env, token, module.TypeShutter)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"color", "/api/v1/modules/" + ledID + "/color", map[string]int{"red": 255, "green": 0, "blue": 0}},
		{"loop stop", "/api/v1/modules/" + ledID + "/loop", map[string]any{"loop": nil}},
		{"shutter up", "/api/v1/modules/" + shutterID + "/up", nil},
		{"shutter down", "/api/v1/modules/" + shutterID + "/down", nil},
		{"shutter stop", "/api/v1/modules/" + shutterID + "/stop", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, token, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 for offline module: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestModuleCommands_WrongKind(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	shutterID, _ := registerModule(t, env, token, module.TypeShutter)

	rec := env.do(t, http.MethodPost, "/api/v1/modules/"+shutterID+"/color", token,
		map[string]int{"red": 1, "green": 2, "blue": 3})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("color on shutter status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/modules/"+shutterID+"/apiKey", token,
		map[string]string{"api_key": "k"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("apiKey on shutter status = %d, want 400", rec.Code)
	}
}

func TestModuleLoop_ParseError(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	id, _ := registerModule(t, env, token, module.TypeLEDStrip)

	script := "c(1,2,3)|x(9)"
	rec := env.do(t, http.MethodPost, "/api/v1/modules/"+id+"/loop", token,
		map[string]any{"loop": script})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bad loop script: %s", rec.Code, rec.Body.String())
	}
}

func TestWeatherHistory_TelemetryUnavailable(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	id, _ := registerModule(t, env, token, module.TypeWeather)

	rec := env.do(t, http.MethodGet, "/api/v1/modules/"+id+"/weather/history", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without telemetry store: %s", rec.Code, rec.Body.String())
	}
}

func TestTestData_HiddenInProduction(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	id, _ := registerModule(t, env, token, module.TypeLEDStrip)

	rec := env.do(t, http.MethodPost, "/api/v1/modules/"+id+"/data", token, map[string]any{"data": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 outside dev mode", rec.Code)
	}
}

func TestWeatherLocation_Validation(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.seedUser(t, "admin", auth.RoleAdmin)
	id, _ := registerModule(t, env, token, module.TypeWeather)

	// Connect a mock session directly so the command path reaches the
	// validation rather than failing on the offline check.
	m, err := env.registry.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := m.Validate(context.Background()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/modules/"+id+"/location", token,
		map[string]float64{"lat": 95.0, "lon": 2.35})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range lat status = %d, want 400: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/modules/"+id+"/location", token,
		map[string]float64{"lat": 48.85})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing lon status = %d, want 400", rec.Code)
	}
}
