package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Load(t *testing.T) {
	t.Run("Should expose the loaded configuration", func(t *testing.T) {
		m := NewManager(nil)
		cfg, err := m.Load(context.Background(), NewCLIProvider(map[string]any{"port": 7070}))
		require.NoError(t, err)
		assert.Same(t, cfg, m.Get())
		assert.Equal(t, 7070, m.Get().Server.Port)
		assert.Len(t, m.Sources(), 1)
		require.NoError(t, m.Close(context.Background()))
	})

	t.Run("Should keep Get nil before loading", func(t *testing.T) {
		assert.Nil(t, NewManager(nil).Get())
	})
}

func TestManager_Reload(t *testing.T) {
	t.Run("Should notify callbacks only when the configuration changes", func(t *testing.T) {
		source := &mockSource{data: map[string]any{"storage": map[string]any{"history_retention": 5}}, sourceType: SourceYAML}
		m := NewManager(nil)
		_, err := m.Load(context.Background(), source)
		require.NoError(t, err)

		var calls atomic.Int32
		m.OnChange(func(*Config) { calls.Add(1) })

		require.NoError(t, m.Reload(context.Background()))
		assert.Zero(t, calls.Load())

		source.data = map[string]any{"storage": map[string]any{"history_retention": 9}}
		require.NoError(t, m.Reload(context.Background()))
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 9, m.Get().Storage.HistoryRetention)
	})

	t.Run("Should keep the previous configuration when a reload is invalid", func(t *testing.T) {
		source := &mockSource{data: map[string]any{}, sourceType: SourceYAML}
		m := NewManager(nil)
		_, err := m.Load(context.Background(), source)
		require.NoError(t, err)

		source.data = map[string]any{"server": map[string]any{"port": 0}}
		require.Error(t, m.Reload(context.Background()))
		assert.Equal(t, 5050, m.Get().Server.Port)
	})
}

func TestManager_OnFieldChange(t *testing.T) {
	t.Run("Should run hooks only for the paths that changed", func(t *testing.T) {
		source := &mockSource{data: map[string]any{}, sourceType: SourceYAML}
		m := NewManager(nil)
		_, err := m.Load(context.Background(), source)
		require.NoError(t, err)

		var retention, deploy, server atomic.Int32
		m.OnFieldChange("storage.history_retention", func(*Config) { retention.Add(1) })
		m.OnFieldChange("deploy", func(*Config) { deploy.Add(1) })
		m.OnFieldChange("server.port", func(*Config) { server.Add(1) })

		source.data = map[string]any{"deploy": map[string]any{"health": map[string]any{"max_retries": 7}}}
		require.NoError(t, m.Reload(context.Background()))
		assert.Zero(t, retention.Load())
		assert.Equal(t, int32(1), deploy.Load())
		assert.Zero(t, server.Load())

		source.data = map[string]any{
			"deploy":  map[string]any{"health": map[string]any{"max_retries": 7}},
			"storage": map[string]any{"history_retention": 3},
		}
		require.NoError(t, m.Reload(context.Background()))
		assert.Equal(t, int32(1), retention.Load())
		assert.Equal(t, int32(1), deploy.Load())
	})

	t.Run("Should ignore nil hooks", func(t *testing.T) {
		m := NewManager(nil)
		m.OnFieldChange("storage", nil)
		assert.Empty(t, m.hooks)
	})
}

func TestChangedPaths(t *testing.T) {
	t.Run("Should list leaf paths that differ", func(t *testing.T) {
		a := Default()
		b := Default()
		b.Storage.HistoryRetention = a.Storage.HistoryRetention + 1
		b.Deploy.Webhook.Token = "rotated"
		assert.Equal(t, []string{"storage.history_retention", "deploy.webhook.token"}, changedPaths(a, b))
		assert.Empty(t, changedPaths(a, Default()))
		assert.Nil(t, changedPaths(nil, b))
	})

	t.Run("Should match a path against itself and its parents only", func(t *testing.T) {
		assert.True(t, underPath("deploy.health.backoff", "deploy"))
		assert.True(t, underPath("deploy.health.backoff", "deploy.health.backoff"))
		assert.False(t, underPath("deploy.health_sweep", "deploy.health"))
		assert.False(t, underPath("server.port", "storage"))
	})

	t.Run("Should flag startup-only settings as needing a restart", func(t *testing.T) {
		got := restartRequired([]string{"server.port", "storage.history_retention", "deploy.task_timeout", "runtime.log_level"})
		assert.Equal(t, []string{"server.port", "deploy.task_timeout", "runtime.log_level"}, got)
		assert.Empty(t, restartRequired([]string{"storage.history_retention"}))
	})
}

func TestManager_Watch(t *testing.T) {
	t.Run("Should reload when the YAML file changes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "configurator.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage:\n  history_retention: 5\n"), 0o644))

		m := NewManager(nil)
		_, err := m.Load(t.Context(), NewYAMLProvider(path))
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Close(context.Background()) })

		changed := make(chan *Config, 1)
		m.OnChange(func(cfg *Config) {
			select {
			case changed <- cfg:
			default:
			}
		})
		time.Sleep(100 * time.Millisecond)
		require.NoError(t, os.WriteFile(path, []byte("storage:\n  history_retention: 12\n"), 0o644))

		select {
		case cfg := <-changed:
			assert.Equal(t, 12, cfg.Storage.HistoryRetention)
		case <-time.After(3 * time.Second):
			t.Fatal("timeout waiting for reload")
		}
	})
}

func TestContext(t *testing.T) {
	t.Run("Should return the manager stored in context", func(t *testing.T) {
		m := NewManager(nil)
		_, err := m.Load(context.Background())
		require.NoError(t, err)
		ctx := ContextWithManager(context.Background(), m)
		assert.Same(t, m, ManagerFromContext(ctx))
		assert.Same(t, m.Get(), FromContext(ctx))
	})

	t.Run("Should fall back to a default manager", func(t *testing.T) {
		cfg := FromContext(context.Background())
		require.NotNil(t, cfg)
		assert.NotEmpty(t, cfg.Storage.DataDir)
	})
}
