package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	t.Run("Should replace populated secrets with placeholders", func(t *testing.T) {
		cfg := Default()
		cfg.OpenAIAPIKey = "sk-live-123"
		cfg.MongoURI = "mongodb://admin:pw@db.internal:27017/chat"
		cfg.WebSearch.SerperAPIKey = "serper-secret"
		cfg.Endpoints.Custom = []CustomEndpoint{{Name: "OpenRouter", APIKey: "or-key", BaseURL: "https://openrouter.ai/api/v1"}}
		cfg.MCPServers = NewMCPServers(MCPServer{Name: "github", Command: "gh-mcp", Env: map[string]string{"GITHUB_TOKEN": "ghp_x"}})

		out := Sanitize(cfg)
		require.NotNil(t, out)
		assert.Equal(t, "{{OPENAI_API_KEY}}", out.OpenAIAPIKey)
		assert.Equal(t, "{{WEB_SEARCH_SERPER_API_KEY}}", out.WebSearch.SerperAPIKey)
		assert.Equal(t, "{{OPEN_ROUTER_API_KEY}}", out.Endpoints.Custom[0].APIKey)
		assert.Equal(t, "{{MCP_SERVERS_GITHUB_ENV_GITHUB_TOKEN}}", out.MCPServers.Servers[0].Env["GITHUB_TOKEN"])
		assert.Equal(t, "{{MONGO_URI}}", out.MongoURI)
	})

	t.Run("Should leave the input untouched", func(t *testing.T) {
		cfg := Default()
		cfg.OpenAIAPIKey = "sk-live-123"
		cfg.MCPServers = NewMCPServers(MCPServer{Name: "x", Env: map[string]string{"K": "v"}})
		_ = Sanitize(cfg)
		assert.Equal(t, "sk-live-123", cfg.OpenAIAPIKey)
		assert.Equal(t, "v", cfg.MCPServers.Servers[0].Env["K"])
	})

	t.Run("Should leave empty secrets, defaults and non-secret fields alone", func(t *testing.T) {
		out := Sanitize(Default())
		assert.Empty(t, out.AnthropicAPIKey)
		assert.Equal(t, DefaultMongoURI, out.MongoURI)
		assert.Equal(t, 3080, out.Port)
		assert.Equal(t, "LibreChat", out.AppTitle)
	})

	t.Run("Should produce a document that parses back without secrets", func(t *testing.T) {
		cfg := Default()
		cfg.OpenAIAPIKey = "sk-live-123"
		cfg.MongoURI = "mongodb://admin:pw@db.internal:27017/chat"
		m, err := ToMap(Sanitize(cfg))
		require.NoError(t, err)
		back, errs := Parse(m)
		require.Empty(t, errs)
		assert.Empty(t, back.OpenAIAPIKey)
		assert.Equal(t, DefaultMongoURI, back.MongoURI)
		assert.Empty(t, Secrets(back))
	})
}

func TestSecrets(t *testing.T) {
	t.Run("Should collect populated secrets by path", func(t *testing.T) {
		cfg := Default()
		cfg.MongoURI = "mongodb://u:p@db:27017/chat"
		cfg.OCR.APIKey = "ocr-key"
		got := Secrets(cfg)
		assert.Equal(t, "ocr-key", got["ocr.apiKey"])
		assert.Equal(t, "mongodb://u:p@db:27017/chat", got["mongoUri"])
	})
}
