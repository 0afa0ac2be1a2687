package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Run("Should load default configuration when no sources provided", func(t *testing.T) {
		cfg, err := NewService().Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("Should keep sibling defaults for partial sections", func(t *testing.T) {
		source := &mockSource{
			data:       map[string]any{"deploy": map[string]any{"health": map[string]any{"max_retries": 5}}},
			sourceType: SourceYAML,
		}
		cfg, err := NewService().Load(context.Background(), source)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Deploy.Health.MaxRetries)
		assert.Equal(t, 5*time.Second, cfg.Deploy.Health.Timeout)
		assert.Equal(t, 2, cfg.Deploy.Concurrency)
	})

	t.Run("Should apply YAML, then environment, then CLI", func(t *testing.T) {
		t.Setenv("SERVER_HOST", "env.example.com")
		t.Setenv("SERVER_PORT", "7000")
		yamlSource := &mockSource{
			data: map[string]any{
				"server":  map[string]any{"host": "yaml.example.com", "port": 6000},
				"storage": map[string]any{"data_dir": "/var/lib/configurator"},
			},
			sourceType: SourceYAML,
		}
		cli := NewCLIProvider(map[string]any{"port": 8000})

		cfg, err := NewService().Load(context.Background(), cli, yamlSource)
		require.NoError(t, err)
		assert.Equal(t, "env.example.com", cfg.Server.Host)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, "/var/lib/configurator", cfg.Storage.DataDir)
	})

	t.Run("Should decode durations, slices and secrets from the environment", func(t *testing.T) {
		t.Setenv("RATELIMIT_GLOBAL_PERIOD", "30s")
		t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
		t.Setenv("DEPLOY_WEBHOOK_URL", "https://deploy.example.com/hook")
		t.Setenv("DEPLOY_WEBHOOK_TOKEN", "tok-123")

		cfg, err := NewService().Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, cfg.RateLimit.GlobalRate.Period)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORS.AllowedOrigins)
		assert.Equal(t, "tok-123", cfg.Deploy.Webhook.Token.Value())
		assert.Equal(t, "[REDACTED]", cfg.Deploy.Webhook.Token.String())
	})

	t.Run("Should ignore unrelated environment variables", func(t *testing.T) {
		t.Setenv("SERVER", "not-a-section")
		t.Setenv("STORAGE_UNKNOWN_KEY", "x")
		_, err := NewService().Load(context.Background())
		assert.NoError(t, err)
	})

	t.Run("Should validate configuration after loading", func(t *testing.T) {
		source := &mockSource{
			data:       map[string]any{"server": map[string]any{"port": 99999}},
			sourceType: SourceYAML,
		}
		_, err := NewService().Load(context.Background(), source)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("Should handle nil sources gracefully", func(t *testing.T) {
		cfg, err := NewService().Load(context.Background(), nil, NewEnvProvider())
		require.NoError(t, err)
		assert.NotNil(t, cfg)
	})

	t.Run("Should surface source loading errors", func(t *testing.T) {
		source := &mockSource{loadErr: errors.New("disk on fire"), sourceType: SourceYAML}
		_, err := NewService().Load(context.Background(), source)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk on fire")
	})
}

func TestLoader_Validate(t *testing.T) {
	t.Run("Should reject nil configuration", func(t *testing.T) {
		err := NewService().Validate(nil)
		assert.ErrorContains(t, err, "cannot be nil")
	})

	t.Run("Should reject a zero task timeout", func(t *testing.T) {
		cfg := Default()
		cfg.Deploy.TaskTimeout = 0
		assert.ErrorContains(t, NewService().Validate(cfg), "task_timeout")
	})
}

func TestFlattenMap(t *testing.T) {
	t.Run("Should produce dotted keys for nested maps", func(t *testing.T) {
		got := flattenMap("", map[string]any{
			"server": map[string]any{"port": 1, "cors": map[string]any{"max_age": 2}},
			"top":    "x",
		})
		assert.Equal(t, map[string]any{"server.port": 1, "server.cors.max_age": 2, "top": "x"}, got)
	})
}

// mockSource is a test implementation of the Source interface
type mockSource struct {
	data       map[string]any
	sourceType SourceType
	loadErr    error
}

func (m *mockSource) Load() (map[string]any, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data, nil
}

func (m *mockSource) Watch(_ context.Context, _ func()) error {
	return nil
}

func (m *mockSource) Type() SourceType {
	return m.sourceType
}

func (m *mockSource) Close() error {
	return nil
}
