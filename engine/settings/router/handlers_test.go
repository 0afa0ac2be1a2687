package settingsrouter

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/chatdeploy/configurator/engine/infra/server/appstate"
	"github.com/chatdeploy/configurator/engine/infra/server/router"
	"github.com/chatdeploy/configurator/engine/infra/server/router/routertest"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/gin-gonic/gin"
	"github.com/kaptinlin/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, *appstate.State) {
	t.Helper()
	state := routertest.NewTestAppState(t)
	return routertest.NewEngine(t, state, Register), state
}

func statusOf(t *testing.T, report []settings.ValidationStatus, c settings.Category) settings.ValidationStatus {
	t.Helper()
	for _, st := range report {
		if st.Category == c {
			return st
		}
	}
	t.Fatalf("category %s missing from report", c)
	return settings.ValidationStatus{}
}

func TestGetDefault(t *testing.T) {
	t.Run("Should return defaults with local secrets applied", func(t *testing.T) {
		r, state := setup(t)
		state.Secrets.Set("openaiApiKey", "sk-local")
		w := routertest.Do(t, r, http.MethodGet, "/api/configuration/default", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := routertest.Decode[map[string]any](t, w)
		assert.Equal(t, "sk-local", body["openaiApiKey"])
		assert.EqualValues(t, 3080, body["port"])
	})
}

func TestValidateConfiguration(t *testing.T) {
	t.Run("Should report one status per category", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/configuration/validate", map[string]any{"port": 0})
		require.Equal(t, http.StatusOK, w.Code)
		report := routertest.Decode[[]settings.ValidationStatus](t, w)
		require.Len(t, report, len(settings.Categories))
		server := statusOf(t, report, settings.CategoryServer)
		assert.Equal(t, settings.StatusInvalid, server.Status)
		assert.Less(t, server.SettingsValid, server.SettingsTotal)
	})

	t.Run("Should accept the port boundaries", func(t *testing.T) {
		r, _ := setup(t)
		for _, port := range []int{1, 65535} {
			w := routertest.Do(t, r, http.MethodPost, "/api/configuration/validate?summary=true", map[string]any{"port": port})
			require.Equal(t, http.StatusOK, w.Code)
			summary := routertest.Decode[settings.Summary](t, w)
			assert.True(t, summary.Valid, "port %d", port)
		}
		for _, port := range []int{0, 65536} {
			w := routertest.Do(t, r, http.MethodPost, "/api/configuration/validate?summary=true", map[string]any{"port": port})
			summary := routertest.Decode[settings.Summary](t, w)
			assert.False(t, summary.Valid, "port %d", port)
			assert.Contains(t, summary.Errors.Paths(), "port")
		}
	})

	t.Run("Should return 400 for a body that is not an object", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/configuration/validate", "[1,2]")
		require.Equal(t, http.StatusBadRequest, w.Code)
		info := routertest.Decode[router.ErrorInfo](t, w)
		assert.Equal(t, router.ErrValidationCode, info.Code)
		require.Len(t, info.Fields, 1)
		assert.Equal(t, settings.RootPath, info.Fields[0].Path)
	})
}

func TestGetSchema(t *testing.T) {
	t.Run("Should publish a schema that accepts the defaults", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodGet, "/api/configuration/schema", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/schema+json", w.Header().Get("Content-Type"))

		schema, err := jsonschema.NewCompiler().Compile(w.Body.Bytes())
		require.NoError(t, err)
		raw, err := json.Marshal(settings.Default())
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(raw, &doc))
		result := schema.Validate(doc)
		assert.True(t, result.Valid, "%v", result.Errors)
	})
}

func TestImportConfiguration(t *testing.T) {
	t.Run("Should import a .env file", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/configuration/import?format=env",
			"PORT=4000\nAPP_TITLE=Imported\n")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := routertest.Decode[ImportResponse](t, w)
		assert.Equal(t, "env", string(resp.Format))
		assert.Equal(t, 4000, resp.Configuration.Port)
		assert.Equal(t, "Imported", resp.Configuration.AppTitle)
		assert.True(t, resp.Validation.Valid)
	})

	t.Run("Should return an invalid import with its errors", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/configuration/import",
			`{"name":"p","configuration":{"port":70000}}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := routertest.Decode[ImportResponse](t, w)
		assert.Equal(t, "profile", string(resp.Format))
		assert.False(t, resp.Validation.Valid)
		assert.Contains(t, resp.Validation.Errors.Paths(), "port")
	})

	t.Run("Should reject empty and malformed payloads", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/configuration/import", "   ")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = routertest.Do(t, r, http.MethodPost, "/api/configuration/import?format=yaml", "version: [1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = routertest.Do(t, r, http.MethodPost, "/api/configuration/import?format=toml", "a = 1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPutSecrets(t *testing.T) {
	t.Run("Should store secrets without echoing values", func(t *testing.T) {
		r, state := setup(t)
		w := routertest.Do(t, r, http.MethodPut, "/api/configuration/secrets", map[string]string{
			"openaiApiKey": "sk-local-value",
			"jwtSecret":    "",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "sk-local-value")
		resp := routertest.Decode[SecretsResponse](t, w)
		assert.Equal(t, []string{"openaiApiKey"}, resp.Keys)

		v, ok := state.Secrets.Get("openaiApiKey")
		require.True(t, ok)
		assert.Equal(t, "sk-local-value", v)
	})

	t.Run("Should reject settings that are not secrets", func(t *testing.T) {
		r, state := setup(t)
		w := routertest.Do(t, r, http.MethodPut, "/api/configuration/secrets", map[string]string{
			"appTitle": "x",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, state.Secrets.All())
	})
}
