package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Run("Should validate without errors", func(t *testing.T) {
		errs := Validate(Default())
		assert.Empty(t, errs)
	})

	t.Run("Should resolve file strategy and email service", func(t *testing.T) {
		cfg := Default()
		assert.Equal(t, SingleFileStrategy(BackendLocal), cfg.FileStrategy)
		assert.Equal(t, "none", cfg.EmailServiceType)
	})

	t.Run("Should use documented values", func(t *testing.T) {
		cfg := Default()
		assert.Equal(t, 3080, cfg.Port)
		assert.Equal(t, "15m", cfg.SessionExpiry)
		assert.Equal(t, "7d", cfg.RefreshTokenExpiry)
		assert.Equal(t, DefaultMongoURI, cfg.MongoURI)
		assert.Equal(t, 100, cfg.RateLimitsPerIP)
		assert.Equal(t, 50, cfg.RateLimitsPerUser)
		assert.Equal(t, 60, cfg.RateLimitsWindow)
		assert.Equal(t, 720, cfg.TemporaryChatRetention)
		assert.Equal(t, 25, cfg.AgentsRecursionLimit)
	})
}

func TestParse(t *testing.T) {
	t.Run("Should merge input over defaults", func(t *testing.T) {
		cfg, errs := Parse(map[string]any{
			"port":     8080,
			"appTitle": "Team Chat",
			"interface": map[string]any{
				"presets": false,
			},
		})
		require.Empty(t, errs)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "Team Chat", cfg.AppTitle)
		assert.False(t, cfg.Interface.Presets)
		assert.True(t, cfg.Interface.Prompts)
		assert.Equal(t, "0.0.0.0", cfg.Host)
	})

	t.Run("Should replace list defaults instead of merging them", func(t *testing.T) {
		cfg, errs := Parse(map[string]any{"enabledEndpoints": []any{"openAI"}})
		require.Empty(t, errs)
		assert.Equal(t, []string{"openAI"}, cfg.EnabledEndpoints)
	})

	t.Run("Should accept string encoded numbers and booleans", func(t *testing.T) {
		cfg, errs := Parse(map[string]any{"port": "3090", "useRedis": "true"})
		require.Empty(t, errs)
		assert.Equal(t, 3090, cfg.Port)
		assert.True(t, cfg.UseRedis)
		assert.Equal(t, DefaultRedisURI, cfg.RedisURI)
	})

	t.Run("Should still require a redis uri when it is cleared", func(t *testing.T) {
		_, errs := Parse(map[string]any{"useRedis": true, "redisUri": ""})
		assert.Contains(t, errs.Paths(), "redisUri")
	})

	t.Run("Should report a field error for a value of the wrong type", func(t *testing.T) {
		_, errs := Parse(map[string]any{"port": "not-a-port"})
		require.NotEmpty(t, errs)
		assert.Contains(t, errs.Paths(), "port")
	})

	t.Run("Should treat placeholders in secret fields as unset", func(t *testing.T) {
		cfg, errs := Parse(map[string]any{
			"openaiApiKey": "{{OPENAI_API_KEY}}",
			"jwtSecret":    "${JWT_SECRET}",
		})
		require.Empty(t, errs)
		assert.Empty(t, cfg.OpenAIAPIKey)
		assert.Empty(t, cfg.JWTSecret)
	})

	t.Run("Should keep placeholder-looking text in non-secret fields", func(t *testing.T) {
		cfg, errs := Parse(map[string]any{"appTitle": "{{APP}}"})
		require.Empty(t, errs)
		assert.Equal(t, "{{APP}}", cfg.AppTitle)
	})
}

func TestParseJSON(t *testing.T) {
	t.Run("Should report malformed JSON on the root path", func(t *testing.T) {
		cfg, errs := ParseJSON([]byte(`{"port": `))
		assert.Nil(t, cfg)
		require.Len(t, errs, 1)
		assert.Equal(t, RootPath, errs[0].Path)
	})

	t.Run("Should reject a JSON array", func(t *testing.T) {
		_, errs := ParseJSON([]byte(`[1,2]`))
		require.Len(t, errs, 1)
		assert.Equal(t, RootPath, errs[0].Path)
	})

	t.Run("Should parse a valid document", func(t *testing.T) {
		cfg, errs := ParseJSON([]byte(`{"port": 4000, "fileStrategy": "s3", "awsBucketName": "uploads"}`))
		require.Empty(t, errs)
		assert.Equal(t, 4000, cfg.Port)
		assert.Equal(t, BackendS3, cfg.FileStrategy.Backend(AssetImage))
	})
}

func TestToMap(t *testing.T) {
	t.Run("Should round trip through Parse", func(t *testing.T) {
		cfg := Default()
		cfg.AppTitle = "Round Trip"
		cfg.MCPServers = NewMCPServers(MCPServer{
			Name: "files", Type: MCPStdio, Command: "npx", Args: []string{"-y", "server-files"},
			Timeout: DefaultMCPTimeout, InitTimeout: DefaultMCPInitTimeout, ChatMenu: true,
		})
		m, err := ToMap(cfg)
		require.NoError(t, err)

		back, errs := Parse(m)
		require.Empty(t, errs)
		assert.Equal(t, cfg, back)
	})
}
