package bundlerouter

import (
	"archive/zip"
	"bytes"
	"net/http"
	"testing"

	"github.com/chatdeploy/configurator/engine/bundle"
	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/infra/server/router"
	"github.com/chatdeploy/configurator/engine/infra/server/router/routertest"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, *store.HistoryStore) {
	t.Helper()
	state := routertest.NewTestAppState(t)
	return routertest.NewEngine(t, state, Register), state.History
}

func TestGeneratePackage(t *testing.T) {
	t.Run("Should return a placeholder for an unset OpenAI key", func(t *testing.T) {
		r, history := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/package/generate", map[string]any{
			"configuration": map[string]any{"appTitle": "Team Chat"},
			"includeFiles":  []string{"env"},
			"packageName":   "team",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		pkg := routertest.Decode[bundle.Package](t, w)
		require.Len(t, pkg.Files, 1)
		env := pkg.Files[".env"]
		assert.Contains(t, env, "\nOPENAI_API_KEY={{OPENAI_API_KEY}}\n")
		assert.NotContains(t, env, "OPENAI_API_KEY=\n")
		assert.NotContains(t, env, "undefined")

		entries, err := history.ListHistory(0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, pkg.HistoryID, entries[0].ID)
	})

	t.Run("Should return 400 with field errors for an invalid configuration", func(t *testing.T) {
		r, history := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/package/generate", map[string]any{
			"configuration": map[string]any{"port": 65536},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		info := routertest.Decode[router.ErrorInfo](t, w)
		assert.Equal(t, router.ErrValidationCode, info.Code)
		assert.Contains(t, settings.ValidationErrors(info.Fields).Paths(), "port")

		entries, err := history.ListHistory(0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Should return 400 for an unknown artifact", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/package/generate", map[string]any{
			"includeFiles": []string{"helm"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "helm")
	})

	t.Run("Should return 400 for malformed JSON", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/package/generate", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDownloadPackage(t *testing.T) {
	t.Run("Should return a zip of the selected files", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/package/download", map[string]any{
			"includeFiles": []string{"env", "install-sh"},
			"packageName":  "Team Chat",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "team-chat.zip")

		body := w.Body.Bytes()
		zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
		require.NoError(t, err)
		var names []string
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		assert.ElementsMatch(t, []string{"team-chat/.env", "team-chat/install.sh"}, names)
	})
}

func TestHistoryRoutes(t *testing.T) {
	t.Run("Should list history and load an entry", func(t *testing.T) {
		r, history := setup(t)
		cfg := settings.Default()
		cfg.AppTitle = "Saved"
		entry, err := history.AppendHistory(cfg, "saved")
		require.NoError(t, err)

		w := routertest.Do(t, r, http.MethodGet, "/api/configuration/history", nil)
		require.Equal(t, http.StatusOK, w.Code)
		entries := routertest.Decode[[]store.HistoryEntry](t, w)
		require.Len(t, entries, 1)
		assert.Equal(t, entry.ID, entries[0].ID)
		assert.Equal(t, "saved", entries[0].PackageName)

		raw := routertest.Decode[[]map[string]any](t, w)
		require.Len(t, raw, 1)
		for _, key := range []string{"id", "configuration", "timestamp", "packageName"} {
			assert.Contains(t, raw[0], key)
		}
		assert.Equal(t, "saved", raw[0]["packageName"])

		w = routertest.Do(t, r, http.MethodPost, "/api/configuration/load/"+entry.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		loaded := routertest.Decode[map[string]any](t, w)
		assert.Equal(t, "Saved", loaded["appTitle"])
	})

	t.Run("Should return an empty list when nothing was generated", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodGet, "/api/configuration/history", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})

	t.Run("Should reject a bad limit", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodGet, "/api/configuration/history?limit=0", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should return 404 for an unknown entry and 400 for a bad id", func(t *testing.T) {
		r, _ := setup(t)
		w := routertest.Do(t, r, http.MethodPost, "/api/configuration/load/"+core.MustNewID().String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = routertest.Do(t, r, http.MethodPost, "/api/configuration/load/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
