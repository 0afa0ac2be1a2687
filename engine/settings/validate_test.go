package settings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("Should enforce port boundaries", func(t *testing.T) {
		for _, tc := range []struct {
			port  int
			valid bool
		}{
			{0, false},
			{1, true},
			{3080, true},
			{65535, true},
			{65536, false},
		} {
			cfg := Default()
			cfg.Port = tc.port
			errs := Validate(cfg)
			if tc.valid {
				assert.NotContains(t, errs.Paths(), "port", "port %d", tc.port)
			} else {
				assert.Contains(t, errs.Paths(), "port", "port %d", tc.port)
			}
		}
	})

	t.Run("Should enforce secret lengths when set", func(t *testing.T) {
		cfg := Default()
		cfg.JWTSecret = "short"
		cfg.CredsKey = strings.Repeat("k", 31)
		cfg.CredsIV = strings.Repeat("i", 16)
		errs := Validate(cfg)
		assert.Contains(t, errs.Paths(), "jwtSecret")
		assert.Contains(t, errs.Paths(), "credsKey")
		assert.NotContains(t, errs.Paths(), "credsIV")
	})

	t.Run("Should require distinct JWT secrets", func(t *testing.T) {
		cfg := Default()
		secret := strings.Repeat("s", 32)
		cfg.JWTSecret = secret
		cfg.JWTRefreshSecret = secret
		errs := Validate(cfg)
		assert.Equal(t, []string{"jwtRefreshSecret"}, errs.Paths())
		assert.Equal(t, CategorySecurity, errs[0].Category)
	})

	t.Run("Should reject durations that cannot be parsed", func(t *testing.T) {
		cfg := Default()
		cfg.SessionExpiry = "soon"
		assert.Contains(t, Validate(cfg).Paths(), "sessionExpiry")
	})

	t.Run("Should require refresh tokens to outlive sessions", func(t *testing.T) {
		cfg := Default()
		cfg.SessionExpiry = "8d"
		assert.Contains(t, Validate(cfg).Paths(), "refreshTokenExpiry")
	})

	t.Run("Should check the config version range", func(t *testing.T) {
		cfg := Default()
		cfg.ConfigVersion = "2.0.0"
		assert.Contains(t, Validate(cfg).Paths(), "configVersion")
		cfg.ConfigVersion = "banana"
		assert.Contains(t, Validate(cfg).Paths(), "configVersion")
	})

	t.Run("Should reject unsupported mongo URIs", func(t *testing.T) {
		cfg := Default()
		cfg.MongoURI = "postgres://db:5432/chat"
		assert.Contains(t, Validate(cfg).Paths(), "mongoUri")
		cfg.MongoURI = "mongodb+srv://user:pw@cluster0.example.net/chat"
		assert.NotContains(t, Validate(cfg).Paths(), "mongoUri")
	})

	t.Run("Should validate list items", func(t *testing.T) {
		cfg := Default()
		cfg.EnabledEndpoints = []string{"openAI", "skynet"}
		cfg.ActionsAllowedDomains = []string{"api.example.com", "*.example.org", "https://svc.example.net", "not a domain"}
		errs := Validate(cfg)
		assert.Contains(t, errs.Paths(), "enabledEndpoints[1]")
		assert.Contains(t, errs.Paths(), "actionsAllowedDomains[3]")
		assert.NotContains(t, errs.Paths(), "actionsAllowedDomains[0]")
		assert.NotContains(t, errs.Paths(), "actionsAllowedDomains[1]")
		assert.NotContains(t, errs.Paths(), "actionsAllowedDomains[2]")
	})

	t.Run("Should check model specs against enabled endpoints", func(t *testing.T) {
		cfg := Default()
		cfg.ModelSpecs.List = []ModelSpec{
			{Name: "fast", Endpoint: "openAI", Model: "gpt-4o-mini", Default: true},
			{Name: "fast", Endpoint: "bedrock", Model: "claude", Default: true},
		}
		paths := Validate(cfg).Paths()
		assert.Contains(t, paths, "modelSpecs.list[1].name")
		assert.Contains(t, paths, "modelSpecs.list[1].endpoint")
		assert.Contains(t, paths, "modelSpecs.list")
	})

	t.Run("Should require custom to be enabled for custom endpoints", func(t *testing.T) {
		cfg := Default()
		cfg.EnabledEndpoints = []string{"openAI"}
		cfg.Endpoints.Custom = []CustomEndpoint{{Name: "Mirror", BaseURL: "https://mirror.example.com/v1", Models: []string{"m"}}}
		assert.Contains(t, Validate(cfg).Paths(), "enabledEndpoints")
		cfg.EnabledEndpoints = append(cfg.EnabledEndpoints, "custom")
		assert.Empty(t, Validate(cfg))
	})

	t.Run("Should reject custom endpoints that share a key variable", func(t *testing.T) {
		cfg := Default()
		cfg.Endpoints.Custom = []CustomEndpoint{
			{Name: "my-ep", BaseURL: "https://a.example.com/v1", Models: []string{"m"}},
			{Name: "my_ep", BaseURL: "https://b.example.com/v1", Models: []string{"m"}},
		}
		assert.Contains(t, Validate(cfg).Paths(), "endpoints.custom[1].name")
	})

	t.Run("Should require storage identifiers for the chosen backend", func(t *testing.T) {
		cfg, errs := Parse(map[string]any{"fileStrategy": "firebase"})
		require.NotNil(t, cfg)
		assert.Contains(t, errs.Paths(), "firebaseProjectId")
		assert.Contains(t, errs.Paths(), "firebaseStorageBucket")
	})

	t.Run("Should name the failing asset class of an unknown backend", func(t *testing.T) {
		_, errs := Parse(map[string]any{"fileStrategy": map[string]any{"image": "ftp"}})
		assert.Equal(t, []string{"fileStrategy.image"}, errs.Paths())
	})

	t.Run("Should require email settings for the chosen service", func(t *testing.T) {
		_, errs := Parse(map[string]any{"emailServiceType": "smtp", "emailFrom": ""})
		assert.Contains(t, errs.Paths(), "emailHost")
		assert.Contains(t, errs.Paths(), "emailFrom")

		_, errs = Parse(map[string]any{"emailServiceType": "mailgun"})
		assert.Equal(t, []string{"mailgunDomain"}, errs.Paths())
	})

	t.Run("Should order errors by category then path", func(t *testing.T) {
		cfg := Default()
		cfg.TemporaryChatRetention = 0
		cfg.Port = 0
		cfg.MinPasswordLength = 1
		assert.Equal(t, []string{"port", "minPasswordLength", "temporaryChatRetention"}, Validate(cfg).Paths())
	})

	t.Run("Should describe failures in plain words", func(t *testing.T) {
		cfg := Default()
		cfg.Port = 0
		errs := Validate(cfg)
		require.Len(t, errs, 1)
		assert.Equal(t, "port must be at least 1", errs[0].Message)
	})
}
