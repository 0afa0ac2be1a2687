package mapping

import (
	"strings"
	"testing"

	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func richConfiguration(t *testing.T) *settings.Configuration {
	t.Helper()
	cfg, errs := settings.Parse(map[string]any{
		"jwtSecret":          strings.Repeat("j", 32),
		"jwtRefreshSecret":   strings.Repeat("r", 32),
		"openaiApiKey":       "sk-live-openai",
		"openaiModels":       "gpt-4o,gpt-4o-mini",
		"sessionExpiry":      "30m",
		"refreshTokenExpiry": "14d",
		"banDuration":        "45s",
		"enabledEndpoints":   []any{"openAI", "custom"},
		"fileStrategy":       map[string]any{"avatar": "s3", "image": "local", "document": "s3"},
		"awsBucketName":      "chat-files",
		"awsRegion":          "eu-west-1",
		"awsAccessKeyId":     "AKIAEXAMPLE",
		"rateLimitsPerIP":    250,
		"modelSpecs": map[string]any{
			"list": []any{map[string]any{"name": "fast", "endpoint": "openAI", "model": "gpt-4o-mini", "default": true}},
		},
		"endpoints": map[string]any{
			"custom": []any{map[string]any{
				"name":    "Mirror",
				"apiKey":  "sk-mirror",
				"baseURL": "https://mirror.example.com/v1",
				"models":  []any{"m1"},
			}},
		},
		"mcpServers": map[string]any{
			"github": map[string]any{
				"command": "npx -y @modelcontextprotocol/server-github",
				"env":     map[string]any{"GITHUB_TOKEN": "ghp_secret"},
			},
		},
		"webSearch": map[string]any{"serperApiKey": "serper-live"},
	})
	require.Empty(t, errs)
	return cfg
}

func TestCheckCoverage(t *testing.T) {
	t.Run("Should cover every nested leaf and read every flat leaf", func(t *testing.T) {
		assert.NoError(t, CheckCoverage())
	})

	t.Run("Should index env leaves by variable name", func(t *testing.T) {
		l, ok := LookupLeaf("env.JWT_SECRET")
		require.True(t, ok)
		assert.True(t, l.Sensitive)
		assert.Equal(t, "JWT_SECRET", l.EnvName())

		l, ok = LookupLeaf("config.interface.presets")
		require.True(t, ok)
		assert.False(t, l.Sensitive)
		assert.Empty(t, l.EnvName())
	})

	t.Run("Should treat the file strategy union as a single leaf", func(t *testing.T) {
		_, ok := LookupLeaf("config.fileStrategy")
		assert.True(t, ok)
		_, ok = LookupLeaf("config.fileStrategy.Kind")
		assert.False(t, ok)
	})
}

func TestToNested(t *testing.T) {
	t.Run("Should convert durations to milliseconds", func(t *testing.T) {
		n := ToNested(richConfiguration(t))
		assert.Equal(t, int64(30*60*1000), n.Env.SessionExpiry)
		assert.Equal(t, int64(14*24*60*60*1000), n.Env.RefreshTokenExpiry)
		assert.Equal(t, int64(45000), n.Env.BanDuration)
	})

	t.Run("Should fan the per-IP limit out to every bucket", func(t *testing.T) {
		rl := ToNested(richConfiguration(t)).Config.RateLimits
		for _, b := range []RateBucket{rl.FileUploads, rl.ConversationsImport, rl.STT, rl.TTS} {
			assert.Equal(t, 250, b.IPMax)
			assert.Equal(t, 50, b.UserMax)
			assert.Equal(t, 60, b.IPWindowInMinutes)
		}
	})

	t.Run("Should keep secrets out of the yaml document", func(t *testing.T) {
		n := ToNested(richConfiguration(t))
		assert.Equal(t, "${SERPER_API_KEY}", n.Config.WebSearch.SerperAPIKey)
		assert.Equal(t, "serper-live", n.Env.SerperAPIKey)

		require.Len(t, n.Config.Endpoints.Custom, 1)
		assert.Equal(t, "${MIRROR_API_KEY}", n.Config.Endpoints.Custom[0].APIKey)
		assert.Equal(t, "sk-mirror", n.Env.Extra["MIRROR_API_KEY"])

		gh := n.Config.MCPServers["github"]
		assert.Equal(t, "npx", gh.Command)
		assert.Equal(t, []string{"-y", "@modelcontextprotocol/server-github"}, gh.Args)
		assert.Equal(t, "${MCP_GITHUB_GITHUB_TOKEN}", gh.Env["GITHUB_TOKEN"])
		assert.Equal(t, "ghp_secret", n.Env.Extra["MCP_GITHUB_GITHUB_TOKEN"])
	})

	t.Run("Should render an unset custom endpoint key as a placeholder", func(t *testing.T) {
		cfg := settings.Default()
		cfg.Endpoints.Custom = []settings.CustomEndpoint{
			{Name: "Local LLM", BaseURL: "http://ollama:11434/v1", FetchModels: true},
			{Name: "Shared", APIKey: UserProvided, BaseURL: "https://shared.example.com/v1", Models: []string{"a"}},
		}
		n := ToNested(cfg)
		assert.Equal(t, "{{LOCAL_LLM_API_KEY}}", n.Config.Endpoints.Custom[0].APIKey)
		assert.Equal(t, UserProvided, n.Config.Endpoints.Custom[1].APIKey)
		v, ok := n.Env.Extra["LOCAL_LLM_API_KEY"]
		assert.True(t, ok)
		assert.Empty(t, v)
		assert.NotContains(t, n.Env.Extra, "SHARED_API_KEY")
	})

	t.Run("Should move custom endpoint keys that collide with built-in variables", func(t *testing.T) {
		cfg := settings.Default()
		cfg.GroqAPIKey = "gsk_realgroqkey1234567890"
		cfg.Endpoints.Custom = []settings.CustomEndpoint{
			{Name: "groq", APIKey: "gsk_custom", BaseURL: "https://api.groq.com/openai/v1", Models: []string{"a"}},
		}
		n := ToNested(cfg)
		assert.Equal(t, "gsk_realgroqkey1234567890", n.Env.GroqAPIKey)
		assert.Equal(t, "gsk_custom", n.Env.Extra["CUSTOM_GROQ_API_KEY"])
		assert.NotContains(t, n.Env.Extra, "GROQ_API_KEY")
		assert.Equal(t, "${CUSTOM_GROQ_API_KEY}", n.Config.Endpoints.Custom[0].APIKey)

		back := ToFlat(n)
		assert.Equal(t, "gsk_custom", back.Endpoints.Custom[0].APIKey)
		assert.Equal(t, "gsk_realgroqkey1234567890", back.GroqAPIKey)
		assert.Equal(t, "MIRROR_API_KEY", CustomEndpointVar("Mirror"))
	})

	t.Run("Should derive the rag api url only when enabled", func(t *testing.T) {
		cfg := settings.Default()
		assert.Empty(t, ToNested(cfg).Env.RAGAPIURL)
		cfg.EnableRAGAPI = true
		cfg.RAGPort = 8010
		n := ToNested(cfg)
		assert.Equal(t, "http://rag_api:8010", n.Env.RAGAPIURL)
		assert.True(t, n.Deploy.RAGAPI)
	})

	t.Run("Should open policy links in a new tab only when set", func(t *testing.T) {
		cfg := settings.Default()
		assert.False(t, ToNested(cfg).Config.Interface.PrivacyPolicy.OpenNewTab)
		cfg.Interface.PrivacyPolicyURL = "https://example.com/privacy"
		assert.True(t, ToNested(cfg).Config.Interface.PrivacyPolicy.OpenNewTab)
	})

	t.Run("Should not share slices with the flat input", func(t *testing.T) {
		cfg := settings.Default()
		n := ToNested(cfg)
		n.Config.Endpoints.Agents.Capabilities[0] = "changed"
		assert.Equal(t, "execute_code", cfg.AgentsCapabilities[0])
	})
}

func TestToFlat(t *testing.T) {
	t.Run("Should round-trip the defaults", func(t *testing.T) {
		assert.Equal(t, settings.Default(), ToFlat(ToNested(settings.Default())))
	})

	t.Run("Should round-trip a populated configuration", func(t *testing.T) {
		cfg := richConfiguration(t)
		assert.Equal(t, cfg, ToFlat(ToNested(cfg)))
	})

	t.Run("Should be stable across nested round trips", func(t *testing.T) {
		n := ToNested(richConfiguration(t))
		assert.Equal(t, n, ToNested(ToFlat(n)))
	})

	t.Run("Should infer strategies absent from the nested shape", func(t *testing.T) {
		n := ToNested(settings.Default())
		n.Config.FileStrategy = settings.FileStrategy{}
		n.Deploy.EmailService = ""
		n.Env.FirebaseAPIKey = "firebase-key"
		n.Env.MailgunDomain = "mg.example.com"
		cfg := ToFlat(n)
		assert.Equal(t, settings.SingleFileStrategy(settings.BackendFirebase), cfg.FileStrategy)
		assert.Equal(t, "mailgun", cfg.EmailServiceType)
	})

	t.Run("Should treat unresolved references as unset secrets", func(t *testing.T) {
		n := ToNested(settings.Default())
		n.Env.OpenAIAPIKey = "{{OPENAI_API_KEY}}"
		n.Config.Endpoints.Custom = []CustomEndpointConfig{{
			Name:    "Mirror",
			APIKey:  "${MIRROR_API_KEY}",
			BaseURL: "https://mirror.example.com/v1",
			Models:  CustomModels{Fetch: true},
		}}
		cfg := ToFlat(n)
		assert.Empty(t, cfg.OpenAIAPIKey)
		require.Len(t, cfg.Endpoints.Custom, 1)
		assert.Empty(t, cfg.Endpoints.Custom[0].APIKey)
	})

	t.Run("Should keep a literal secret found in the yaml document", func(t *testing.T) {
		n := ToNested(settings.Default())
		n.Config.WebSearch.JinaAPIKey = "jina-inline"
		assert.Equal(t, "jina-inline", ToFlat(n).WebSearch.JinaAPIKey)
	})

	t.Run("Should fill MCP timeouts missing from the yaml document", func(t *testing.T) {
		n := ToNested(settings.Default())
		n.Config.MCPServers = map[string]MCPServerConfig{"docs": {URL: "https://mcp.example.com/mcp"}}
		cfg := ToFlat(n)
		s, ok := cfg.MCPServers.Get("docs")
		require.True(t, ok)
		assert.Equal(t, settings.MCPStreamableHTTP, s.Type)
		assert.Equal(t, settings.DefaultMCPTimeout, s.Timeout)
		assert.Equal(t, settings.DefaultMCPInitTimeout, s.InitTimeout)
		assert.True(t, s.ChatMenu)
	})

	t.Run("Should keep chatMenu false when the yaml document says so", func(t *testing.T) {
		cfg := settings.Default()
		cfg.MCPServers = settings.MCPServersFromMap(map[string]settings.MCPServer{
			"docs": {Type: settings.MCPStreamableHTTP, URL: "https://mcp.example.com/mcp", ChatMenu: false},
		})
		n := ToNested(cfg)
		require.NotNil(t, n.Config.MCPServers["docs"].ChatMenu)
		assert.False(t, *n.Config.MCPServers["docs"].ChatMenu)
		s, ok := ToFlat(n).MCPServers.Get("docs")
		require.True(t, ok)
		assert.False(t, s.ChatMenu)
	})
}

func TestFormatDuration(t *testing.T) {
	t.Run("Should prefer whole days", func(t *testing.T) {
		n := ToNested(settings.Default())
		n.Env.RefreshTokenExpiry = 7 * 24 * 60 * 60 * 1000
		n.Env.SessionExpiry = 15 * 60 * 1000
		n.Env.BanDuration = 1500
		cfg := ToFlat(n)
		assert.Equal(t, "7d", cfg.RefreshTokenExpiry)
		assert.Equal(t, "15m", cfg.SessionExpiry)
		assert.Equal(t, "1s500ms", cfg.BanDuration)
	})
}
