// Package routertest builds app state and gin engines for handler tests.
package routertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chatdeploy/configurator/engine/deployment"
	"github.com/chatdeploy/configurator/engine/infra/server/appstate"
	"github.com/chatdeploy/configurator/engine/infra/server/routes"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

// NewTestAppState builds an app state on an in-memory filesystem. The
// deployment worker is not started, so queued tasks stay pending.
func NewTestAppState(t *testing.T) *appstate.State {
	t.Helper()
	tick := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	base, err := store.NewStore("/data", store.WithFs(afero.NewMemMapFs()), store.WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))
	requireNoError(t, err)
	t.Cleanup(func() { _ = base.Close() })
	secrets := store.NewSecretsStore(base)
	deps := appstate.NewBaseDeps(base, secrets, 0)
	svc := deployment.NewService(
		deployment.NewStore(base),
		deployment.NewPlatforms(deployment.ManualPlatform{}),
		deployment.NewHealthChecker(deployment.DefaultHealthConfig()),
		deps.Profiles,
		deployment.WorkerConfig{QueueSize: 4, Concurrency: 1, TaskTimeout: time.Second},
	)
	state, err := appstate.NewState(deps, svc, nil)
	requireNoError(t, err)
	return state
}

// NewEngine returns a gin engine with state installed and register mounted
// under the API base path.
func NewEngine(t *testing.T, state *appstate.State, register func(*gin.RouterGroup)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(appstate.StateMiddleware(state))
	register(r.Group(routes.Base()))
	return r
}

// Do sends a request with body encoded as JSON. Strings and byte slices are
// sent as-is.
func Do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	case []byte:
		reader = bytes.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		requireNoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the recorded body into T.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
