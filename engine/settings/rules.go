package settings

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/xhit/go-str2duration/v2"
)

// SupportedConfigVersions bounds the librechat.yaml schema versions we can emit.
const SupportedConfigVersions = ">= 1.0.0, < 2.0.0"

// A rule checks one cross-field constraint. Secrets are never required by a rule:
// a missing secret is rendered as a placeholder and supplied at deploy time.
type rule func(cfg *Configuration) []FieldError

var rules = []rule{
	ruleDistinctJWTSecrets,
	ruleTokenLifetimes,
	ruleConfigVersion,
	ruleRedis,
	ruleRAGPort,
	ruleSharedLinks,
	ruleTermsModal,
	ruleModelSpecs,
	ruleCustomEndpoints,
	ruleAgentLimits,
	ruleFileStrategy,
	ruleEmailService,
	ruleSocialLogins,
	ruleMemory,
	ruleSearch,
	ruleMCPServers,
	ruleOCR,
}

func ruleDistinctJWTSecrets(cfg *Configuration) []FieldError {
	if cfg.JWTSecret != "" && cfg.JWTSecret == cfg.JWTRefreshSecret {
		return []FieldError{newFieldError("jwtRefreshSecret", "jwtRefreshSecret must differ from jwtSecret")}
	}
	return nil
}

func ruleTokenLifetimes(cfg *Configuration) []FieldError {
	session, err1 := str2duration.ParseDuration(cfg.SessionExpiry)
	refresh, err2 := str2duration.ParseDuration(cfg.RefreshTokenExpiry)
	if err1 != nil || err2 != nil {
		return nil
	}
	if refresh <= session {
		return []FieldError{newFieldError("refreshTokenExpiry", "refreshTokenExpiry must be longer than sessionExpiry")}
	}
	return nil
}

func ruleConfigVersion(cfg *Configuration) []FieldError {
	if cfg.ConfigVersion == "" {
		return nil
	}
	v, err := semver.NewVersion(cfg.ConfigVersion)
	if err != nil {
		return []FieldError{newFieldError("configVersion", "configVersion must be a semantic version such as %s", DefaultConfigVersion)}
	}
	constraint, err := semver.NewConstraint(SupportedConfigVersions)
	if err != nil {
		return nil
	}
	if !constraint.Check(v) {
		return []FieldError{newFieldError("configVersion", "configVersion must satisfy %s", SupportedConfigVersions)}
	}
	return nil
}

func ruleRedis(cfg *Configuration) []FieldError {
	if cfg.UseRedis && cfg.RedisURI == "" {
		return []FieldError{newFieldError("redisUri", "redisUri is required when useRedis is enabled")}
	}
	return nil
}

func ruleRAGPort(cfg *Configuration) []FieldError {
	if cfg.EnableRAGAPI && cfg.RAGPort == cfg.Port {
		return []FieldError{newFieldError("ragPort", "ragPort must differ from port")}
	}
	return nil
}

func ruleSharedLinks(cfg *Configuration) []FieldError {
	if cfg.AllowSharedLinksPublic && !cfg.AllowSharedLinks {
		return []FieldError{newFieldError("allowSharedLinksPublic", "allowSharedLinksPublic requires allowSharedLinks")}
	}
	return nil
}

func ruleTermsModal(cfg *Configuration) []FieldError {
	if cfg.Interface.TermsModalAcceptance && cfg.Interface.TermsOfServiceURL == "" {
		return []FieldError{newFieldError("interface.termsOfServiceUrl",
			"termsOfServiceUrl is required when termsModalAcceptance is enabled")}
	}
	return nil
}

func ruleModelSpecs(cfg *Configuration) []FieldError {
	var out []FieldError
	specs := cfg.ModelSpecs
	if specs.Enforce && len(specs.List) == 0 {
		out = append(out, newFieldError("modelSpecs.list", "list must contain at least one spec when enforce is enabled"))
	}
	seen := map[string]bool{}
	defaults := 0
	endpoints := cfg.knownEndpoints()
	for i, spec := range specs.List {
		path := fmt.Sprintf("modelSpecs.list[%d]", i)
		if spec.Name != "" && seen[spec.Name] {
			out = append(out, newFieldError(path+".name", "duplicate model spec name %q", spec.Name))
		}
		seen[spec.Name] = true
		if spec.Default {
			defaults++
		}
		if spec.Endpoint != "" && !slices.Contains(endpoints, spec.Endpoint) {
			out = append(out, newFieldError(path+".endpoint", "endpoint %q is not enabled", spec.Endpoint))
		}
	}
	if defaults > 1 {
		out = append(out, newFieldError("modelSpecs.list", "at most one model spec may be the default"))
	}
	return out
}

// knownEndpoints lists enabled endpoint names plus every custom endpoint name.
func (c *Configuration) knownEndpoints() []string {
	out := slices.Clone(c.EnabledEndpoints)
	for _, e := range c.Endpoints.Custom {
		out = append(out, e.Name)
	}
	return out
}

func ruleCustomEndpoints(cfg *Configuration) []FieldError {
	var out []FieldError
	seen := map[string]bool{}
	for i, e := range cfg.Endpoints.Custom {
		path := fmt.Sprintf("endpoints.custom[%d]", i)
		key := CustomEndpointKeyName(e.Name)
		if e.Name != "" && seen[key] {
			out = append(out, newFieldError(path+".name", "custom endpoint name %q collides with an earlier endpoint", e.Name))
		}
		seen[key] = true
		if len(e.Models) == 0 && !e.FetchModels {
			out = append(out, newFieldError(path+".models", "models must list at least one model unless fetchModels is enabled"))
		}
	}
	if len(cfg.Endpoints.Custom) > 0 && !slices.Contains(cfg.EnabledEndpoints, "custom") {
		out = append(out, newFieldError("enabledEndpoints", "enabledEndpoints must include custom when custom endpoints are defined"))
	}
	return out
}

func ruleAgentLimits(cfg *Configuration) []FieldError {
	if cfg.AgentsRecursionLimit > cfg.AgentsMaxRecursionLimit {
		return []FieldError{newFieldError("agentsRecursionLimit",
			"agentsRecursionLimit must not exceed agentsMaxRecursionLimit (%d)", cfg.AgentsMaxRecursionLimit)}
	}
	return nil
}

func ruleFileStrategy(cfg *Configuration) []FieldError {
	var out []FieldError
	fs := cfg.FileStrategy
	for _, class := range assetClasses {
		if b := fs.Backend(class); !b.Valid() {
			path := "fileStrategy"
			if fs.Kind == FileStrategyPerAsset {
				path += "." + string(class)
			}
			out = append(out, newFieldError(path, "unknown storage backend %q", b))
		}
	}
	if len(out) > 0 {
		return out
	}
	if fs.Uses(BackendFirebase) {
		out = append(out, requireSet(map[string]string{
			"firebaseProjectId":     cfg.FirebaseProjectID,
			"firebaseStorageBucket": cfg.FirebaseStorageBucket,
		}, "the firebase file strategy")...)
	}
	if fs.Uses(BackendS3) || fs.Uses(BackendCloudFront) {
		out = append(out, requireSet(map[string]string{
			"awsBucketName": cfg.AWSBucketName,
			"awsRegion":     cfg.AWSRegion,
		}, "the s3 file strategy")...)
	}
	if fs.Uses(BackendAzureBlob) {
		out = append(out, requireSet(map[string]string{
			"azureContainerName": cfg.AzureContainerName,
		}, "the azure_blob file strategy")...)
	}
	return out
}

func requireSet(fields map[string]string, reason string) []FieldError {
	var out []FieldError
	for path, v := range fields {
		if strings.TrimSpace(v) == "" {
			out = append(out, newFieldError(path, "%s is required by %s", path, reason))
		}
	}
	return out
}

func ruleEmailService(cfg *Configuration) []FieldError {
	var out []FieldError
	switch cfg.EmailServiceType {
	case "smtp":
		if cfg.EmailHost == "" && cfg.EmailService == "" {
			out = append(out, newFieldError("emailHost", "emailHost or emailService is required for smtp"))
		}
		out = append(out, requireSet(map[string]string{"emailFrom": cfg.EmailFrom}, "smtp")...)
	case "mailgun":
		out = append(out, requireSet(map[string]string{
			"mailgunDomain": cfg.MailgunDomain,
			"emailFrom":     cfg.EmailFrom,
		}, "mailgun")...)
	}
	if cfg.AllowPasswordReset && cfg.EmailServiceType == "none" {
		out = append(out, newFieldError("allowPasswordReset", "allowPasswordReset requires an email service"))
	}
	return out
}

func ruleSocialLogins(cfg *Configuration) []FieldError {
	if !cfg.AllowSocialLogin {
		return nil
	}
	var out []FieldError
	if len(cfg.SocialLogins) == 0 {
		out = append(out, newFieldError("socialLogins", "socialLogins must list a provider when allowSocialLogin is enabled"))
	}
	for _, provider := range cfg.SocialLogins {
		switch provider {
		case "google":
			out = append(out, requireSet(map[string]string{"googleClientId": cfg.GoogleClientID}, "google login")...)
		case "github":
			out = append(out, requireSet(map[string]string{"githubClientId": cfg.GithubClientID}, "github login")...)
		case "discord":
			out = append(out, requireSet(map[string]string{"discordClientId": cfg.DiscordClientID}, "discord login")...)
		case "openid":
			out = append(out, requireSet(map[string]string{
				"openidClientId": cfg.OpenIDClientID,
				"openidIssuer":   cfg.OpenIDIssuer,
			}, "openid login")...)
		}
	}
	return out
}

func ruleMemory(cfg *Configuration) []FieldError {
	if cfg.Memory.Disabled || cfg.Memory.AgentProvider == "" {
		return nil
	}
	return requireSet(map[string]string{"memory.agentModel": cfg.Memory.AgentModel}, "memory.agentProvider")
}

func ruleSearch(cfg *Configuration) []FieldError {
	var out []FieldError
	if cfg.Search && cfg.MeiliHost == "" {
		out = append(out, newFieldError("meiliHost", "meiliHost is required when search is enabled"))
	}
	if cfg.WebSearch.SearchProvider == "searxng" && cfg.WebSearch.SearxngInstanceURL == "" {
		out = append(out, newFieldError("webSearch.searxngInstanceUrl", "searxngInstanceUrl is required for the searxng provider"))
	}
	return out
}

func ruleMCPServers(cfg *Configuration) []FieldError {
	var out []FieldError
	seen := map[string]bool{}
	for i, s := range cfg.MCPServers.Servers {
		path := fmt.Sprintf("mcpServers[%d]", i)
		if s.Name != "" && seen[s.Name] {
			out = append(out, newFieldError(path+".name", "duplicate MCP server name %q", s.Name))
		}
		seen[s.Name] = true
		switch s.Type {
		case MCPStdio:
			if s.Command == "" {
				out = append(out, newFieldError(path+".command", "command is required for stdio servers"))
			}
		case MCPSSE, MCPStreamableHTTP:
			out = append(out, requireScheme(path+".url", s.URL, string(s.Type), "http", "https")...)
		case MCPWebsocket:
			out = append(out, requireScheme(path+".url", s.URL, string(s.Type), "ws", "wss")...)
		}
		if s.InitTimeout > s.Timeout {
			out = append(out, newFieldError(path+".initTimeout", "initTimeout must not exceed timeout"))
		}
	}
	return out
}

func requireScheme(path, raw, transport string, schemes ...string) []FieldError {
	if raw == "" {
		return []FieldError{newFieldError(path, "url is required for %s servers", transport)}
	}
	u, err := url.Parse(raw)
	if err != nil || !slices.Contains(schemes, u.Scheme) {
		return []FieldError{newFieldError(path, "url must use %s for %s servers", strings.Join(schemes, " or "), transport)}
	}
	return nil
}

func ruleOCR(cfg *Configuration) []FieldError {
	if cfg.OCR.Strategy == "custom_ocr" && cfg.OCR.BaseURL == "" {
		return []FieldError{newFieldError("ocr.baseURL", "baseURL is required for custom_ocr")}
	}
	return nil
}
