package deployment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	svc      *Service
	profiles *store.ProfileStore
}

func newService(t *testing.T, workerCfg WorkerConfig, platforms ...Platform) *serviceFixture {
	t.Helper()
	base := newBaseStore(t)
	profiles := store.NewProfileStore(base, nil)
	if len(platforms) == 0 {
		platforms = []Platform{ManualPlatform{}}
	}
	svc := NewService(NewStore(base), NewPlatforms(platforms...), fastHealth(), profiles, workerCfg)
	return &serviceFixture{svc: svc, profiles: profiles}
}

func (f *serviceFixture) start(t *testing.T) {
	t.Helper()
	startWorker(t, f.svc.worker)
}

func waitFor(t *testing.T, svc *Service, id core.ID, cond func(*Deployment) bool) *Deployment {
	t.Helper()
	var last *Deployment
	require.Eventually(t, func() bool {
		d, err := svc.Get(id)
		if err != nil {
			return false
		}
		last = d
		return cond(d)
	}, 5*time.Second, 10*time.Millisecond)
	return last
}

func hasStatus(status Status) func(*Deployment) bool {
	return func(d *Deployment) bool { return d.Status == status }
}

func statusServer(t *testing.T, code int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestService_Create(t *testing.T) {
	t.Run("Should run a manual deployment to completion", func(t *testing.T) {
		f := newService(t, WorkerConfig{})
		f.start(t)
		d, err := f.svc.Create(context.Background(), CreateInput{
			Name:          "local",
			Configuration: settings.Default(),
			URLs:          []string{"http://localhost:3080"},
		})
		require.NoError(t, err)
		assert.Equal(t, PlatformManual, d.Platform)

		got := waitFor(t, f.svc, d.ID, hasStatus(StatusRunning))
		require.NotNil(t, got.DeployedAt)
		require.NotNil(t, got.Uptime.StartedAt)
		messages := make([]string, len(got.Logs))
		for i, l := range got.Logs {
			messages[i] = l.Message
		}
		assert.Contains(t, messages, "generating package")
		assert.Contains(t, messages, "platform reported running")
	})

	t.Run("Should deploy the configuration of a referenced profile", func(t *testing.T) {
		f := newService(t, WorkerConfig{})
		f.start(t)
		p, err := f.profiles.Save(&store.Profile{Name: "team", Configuration: settings.Default()})
		require.NoError(t, err)
		d, err := f.svc.Create(context.Background(), CreateInput{Name: "from-profile", ConfigurationProfileID: p.ID})
		require.NoError(t, err)
		waitFor(t, f.svc, d.ID, hasStatus(StatusRunning))
	})

	t.Run("Should reject invalid requests before storing anything", func(t *testing.T) {
		f := newService(t, WorkerConfig{})
		ctx := context.Background()

		_, err := f.svc.Create(ctx, CreateInput{Name: "x", Platform: "heroku", Configuration: settings.Default()})
		assert.ErrorIs(t, err, ErrUnknownPlatform)

		_, err = f.svc.Create(ctx, CreateInput{Name: "x"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = f.svc.Create(ctx, CreateInput{Name: "x", ConfigurationProfileID: core.MustNewID()})
		assert.ErrorIs(t, err, store.ErrProfileNotFound)

		cfg := settings.Default()
		cfg.Port = 0
		_, err = f.svc.Create(ctx, CreateInput{Name: "x", Configuration: cfg})
		var verrs settings.ValidationErrors
		assert.ErrorAs(t, err, &verrs)

		all, err := f.svc.List()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("Should keep the record when the queue is full", func(t *testing.T) {
		f := newService(t, WorkerConfig{QueueSize: 1})
		ctx := context.Background()
		_, err := f.svc.Create(ctx, CreateInput{Name: "first", Configuration: settings.Default()})
		require.NoError(t, err)
		d, err := f.svc.Create(ctx, CreateInput{Name: "second", Configuration: settings.Default()})
		assert.ErrorIs(t, err, ErrQueueFull)
		require.NotNil(t, d)
		assert.Equal(t, StatusPending, d.Status)
		assert.Equal(t, LogWarn, d.Logs[len(d.Logs)-1].Level)
	})
}

func TestService_Failures(t *testing.T) {
	t.Run("Should record a platform failure on the deployment", func(t *testing.T) {
		hook := statusServer(t, http.StatusInternalServerError)
		f := newService(t, WorkerConfig{}, NewWebhookPlatform(WebhookConfig{URL: hook.URL}))
		f.start(t)
		d, err := f.svc.Create(context.Background(), CreateInput{
			Name:          "doomed",
			Platform:      PlatformWebhook,
			Configuration: settings.Default(),
		})
		require.NoError(t, err)
		got := waitFor(t, f.svc, d.ID, hasStatus(StatusFailed))
		last := got.Logs[len(got.Logs)-1]
		assert.Equal(t, LogError, last.Level)
		assert.Contains(t, last.Message, "initiate failed")
		assert.Contains(t, last.Message, "500")
	})
}

func TestService_HealthCheck(t *testing.T) {
	t.Run("Should record a healthy check", func(t *testing.T) {
		app := statusServer(t, http.StatusOK)
		hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"deploying","urls":["` + app.URL + `"]}`))
		}))
		defer hook.Close()
		f := newService(t, WorkerConfig{}, NewWebhookPlatform(WebhookConfig{URL: hook.URL}))
		f.start(t)
		d, err := f.svc.Create(context.Background(), CreateInput{
			Name:          "cloud",
			Platform:      PlatformWebhook,
			Configuration: settings.Default(),
		})
		require.NoError(t, err)
		waitFor(t, f.svc, d.ID, func(d *Deployment) bool { return len(d.URLs) == 1 })

		_, err = f.svc.RequestHealthCheck(context.Background(), d.ID)
		require.NoError(t, err)
		got := waitFor(t, f.svc, d.ID, func(d *Deployment) bool { return d.Uptime.Checks == 1 })
		assert.True(t, got.Uptime.Healthy)
		assert.NotNil(t, got.Uptime.LastHealthyAt)
		assert.Equal(t, StatusRunning, got.Status)
		assert.Equal(t, []string{app.URL}, got.URLs)
		assert.NotNil(t, got.DeployedAt)
	})

	t.Run("Should mark a running deployment failed when unhealthy", func(t *testing.T) {
		app := statusServer(t, http.StatusBadGateway)
		f := newService(t, WorkerConfig{})
		f.start(t)
		d, err := f.svc.Create(context.Background(), CreateInput{
			Name:          "flaky",
			Configuration: settings.Default(),
			URLs:          []string{app.URL},
		})
		require.NoError(t, err)
		waitFor(t, f.svc, d.ID, hasStatus(StatusRunning))

		_, err = f.svc.RequestHealthCheck(context.Background(), d.ID)
		require.NoError(t, err)
		got := waitFor(t, f.svc, d.ID, hasStatus(StatusFailed))
		assert.Equal(t, 1, got.Uptime.Failures)
		assert.False(t, got.Uptime.Healthy)
		assert.Contains(t, got.Logs[len(got.Logs)-1].Message, app.URL)
	})

	t.Run("Should report missing deployments", func(t *testing.T) {
		f := newService(t, WorkerConfig{})
		_, err := f.svc.RequestHealthCheck(context.Background(), core.MustNewID())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Redeploy(t *testing.T) {
	t.Run("Should roll a running deployment through updating", func(t *testing.T) {
		f := newService(t, WorkerConfig{})
		f.start(t)
		d, err := f.svc.Create(context.Background(), CreateInput{Name: "app", Configuration: settings.Default()})
		require.NoError(t, err)
		waitFor(t, f.svc, d.ID, hasStatus(StatusRunning))

		_, err = f.svc.Redeploy(context.Background(), d.ID)
		require.NoError(t, err)
		got := waitFor(t, f.svc, d.ID, func(d *Deployment) bool {
			for _, l := range d.Logs {
				if l.Message == "redeploy requested, status running -> updating" {
					return d.Status == StatusRunning
				}
			}
			return false
		})
		assert.Equal(t, StatusRunning, got.Status)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("Should remove the record even when teardown fails", func(t *testing.T) {
		hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodDelete {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"running"}`))
		}))
		defer hook.Close()
		f := newService(t, WorkerConfig{}, NewWebhookPlatform(WebhookConfig{URL: hook.URL}))
		d, err := f.svc.Create(context.Background(), CreateInput{
			Name:          "temp",
			Platform:      PlatformWebhook,
			Configuration: settings.Default(),
		})
		require.NoError(t, err)
		removed, err := f.svc.Delete(context.Background(), d.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = f.svc.Delete(context.Background(), d.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}
