package mapping

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/xhit/go-str2duration/v2"
)

// Rule binds one or more nested targets to the flat sources they derive from.
// Reverse is nil for targets that are pure projections of a source another
// rule already restores.
type Rule struct {
	Name    string
	Targets []string
	Sources []string
	Forward func(cfg *settings.Configuration, n *NestedConfiguration)
	Reverse func(n *NestedConfiguration, cfg *settings.Configuration)

	copyOf bool
}

// UserProvided lets each user supply their own key for a custom endpoint.
const UserProvided = "user_provided"

// Copy binds a nested leaf to a flat leaf of a compatible type in both directions.
func Copy(target, source string) Rule {
	r := Project(target, source)
	r.Name = "copy " + source
	r.Reverse = func(n *NestedConfiguration, cfg *settings.Configuration) {
		l, f, ok := bind(target, source)
		if !ok {
			return
		}
		assign(f.Value(cfg), l.Value(n))
	}
	return r
}

// Project copies a flat leaf into a nested leaf without a way back.
func Project(target, source string) Rule {
	return Rule{
		Name:    "project " + source,
		Targets: []string{target},
		Sources: []string{source},
		Forward: func(cfg *settings.Configuration, n *NestedConfiguration) {
			l, f, ok := bind(target, source)
			if !ok {
				return
			}
			assign(l.Value(n), f.Value(cfg))
		},
		copyOf: true,
	}
}

// Const pins a nested leaf that has no flat counterpart.
func Const(target string, value any) Rule {
	return Rule{
		Name:    "const " + target,
		Targets: []string{target},
		Forward: func(_ *settings.Configuration, n *NestedConfiguration) {
			if l, ok := LookupLeaf(target); ok {
				assign(l.Value(n), reflect.ValueOf(value))
			}
		},
	}
}

// SecretRef points a yaml secret at its env variable. A literal found in an
// imported document is carried back into the flat source.
func SecretRef(target, envTarget, source string) Rule {
	return Rule{
		Name:    "secret " + source,
		Targets: []string{target},
		Sources: []string{source},
		Forward: func(_ *settings.Configuration, n *NestedConfiguration) {
			l, ok := LookupLeaf(target)
			env, envOK := LookupLeaf(envTarget)
			if !ok || !envOK {
				return
			}
			l.Value(n).SetString(EnvRef(env.EnvName()))
		},
		Reverse: func(n *NestedConfiguration, cfg *settings.Configuration) {
			l, f, ok := bind(target, source)
			if !ok {
				return
			}
			if v := l.Value(n).String(); v != "" && !settings.IsPlaceholderValue(v) {
				f.Value(cfg).SetString(v)
			}
		},
	}
}

func bind(target, source string) (Leaf, settings.Field, bool) {
	l, ok := LookupLeaf(target)
	if !ok {
		return Leaf{}, settings.Field{}, false
	}
	f, ok := settings.LookupField(source)
	if !ok {
		return Leaf{}, settings.Field{}, false
	}
	return l, f, true
}

// EnvRef renders a reference to an environment variable as librechat.yaml expects.
func EnvRef(name string) string {
	return "${" + name + "}"
}

var envRefRe = regexp.MustCompile(`^\$\{([A-Za-z0-9_]+)\}$`)

// RefName returns the variable named by a "${NAME}" reference.
func RefName(v string) (string, bool) {
	m := envRefRe.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Rules returns the ordered mapping table. Reverse rules run in the same
// order, so later rules win when two restore the same flat field.
func Rules() []Rule {
	return rules()
}

var rules = sync.OnceValue(func() []Rule {
	var out []Rule
	add := func(rs ...Rule) { out = append(out, rs...) }
	copies := func(pairs ...string) {
		for i := 0; i+1 < len(pairs); i += 2 {
			add(Copy(pairs[i], pairs[i+1]))
		}
	}

	copies(
		"env.HOST", "host",
		"env.PORT", "port",
		"env.DOMAIN_CLIENT", "domainClient",
		"env.DOMAIN_SERVER", "domainServer",
		"env.NO_INDEX", "noIndex",
		"env.TRUST_PROXY", "trustProxy",
		"env.NODE_ENV", "nodeEnv",
		"env.CONSOLE_JSON", "consoleJson",
		"env.DEBUG_LOGGING", "debugLogging",
		"env.DEBUG_CONSOLE", "debugConsole",
		"env.APP_TITLE", "appTitle",
		"env.CUSTOM_FOOTER", "customFooter",
		"env.HELP_AND_FAQ_URL", "helpAndFaqUrl",
		"env.RAG_PORT", "ragPort",
	)
	add(ragAPIURL())

	copies(
		"env.MONGO_URI", "mongoUri",
		"env.USE_REDIS", "useRedis",
		"env.REDIS_URI", "redisUri",
		"env.JWT_SECRET", "jwtSecret",
		"env.JWT_REFRESH_SECRET", "jwtRefreshSecret",
		"env.CREDS_KEY", "credsKey",
		"env.CREDS_IV", "credsIV",
	)
	add(
		durationMillis("env.SESSION_EXPIRY", "sessionExpiry"),
		durationMillis("env.REFRESH_TOKEN_EXPIRY", "refreshTokenExpiry"),
	)
	copies(
		"env.MIN_PASSWORD_LENGTH", "minPasswordLength",
		"env.BAN_VIOLATIONS", "banViolations",
		"env.BAN_INTERVAL", "banInterval",
	)
	add(durationMillis("env.BAN_DURATION", "banDuration"))

	copies(
		"env.ALLOW_SHARED_LINKS", "allowSharedLinks",
		"env.ALLOW_SHARED_LINKS_PUBLIC", "allowSharedLinksPublic",
	)

	add(
		commaList("env.ENDPOINTS", "enabledEndpoints"),
		commaList("env.OPENAI_MODELS", "openaiModels"),
		commaList("env.ANTHROPIC_MODELS", "anthropicModels"),
		commaList("env.GOOGLE_MODELS", "googleModels"),
	)
	copies(
		"env.OPENAI_API_KEY", "openaiApiKey",
		"env.ANTHROPIC_API_KEY", "anthropicApiKey",
		"env.GOOGLE_KEY", "googleKey",
		"env.GROQ_API_KEY", "groqApiKey",
		"env.MISTRAL_API_KEY", "mistralApiKey",
		"env.OPENROUTER_KEY", "openrouterKey",
		"env.AZURE_OPENAI_API_KEY", "azureOpenaiApiKey",
		"env.STT_API_KEY", "stt.apiKey",
		"env.TTS_API_KEY", "tts.apiKey",
	)

	copies(
		"env.FIREBASE_API_KEY", "firebaseApiKey",
		"env.FIREBASE_AUTH_DOMAIN", "firebaseAuthDomain",
		"env.FIREBASE_PROJECT_ID", "firebaseProjectId",
		"env.FIREBASE_STORAGE_BUCKET", "firebaseStorageBucket",
		"env.FIREBASE_MESSAGING_SENDER_ID", "firebaseMessagingSenderId",
		"env.FIREBASE_APP_ID", "firebaseAppId",
		"env.AWS_ACCESS_KEY_ID", "awsAccessKeyId",
		"env.AWS_SECRET_ACCESS_KEY", "awsSecretAccessKey",
		"env.AWS_REGION", "awsRegion",
		"env.AWS_BUCKET_NAME", "awsBucketName",
		"env.AWS_ENDPOINT_URL", "awsEndpointUrl",
		"env.AZURE_STORAGE_CONNECTION_STRING", "azureStorageConnectionString",
		"env.AZURE_CONTAINER_NAME", "azureContainerName",

		"env.LIMIT_CONCURRENT_MESSAGES", "rateLimits.limitConcurrentMessages",
		"env.CONCURRENT_MESSAGE_MAX", "rateLimits.concurrentMessageMax",
		"env.LIMIT_MESSAGE_IP", "rateLimits.limitMessageIp",
		"env.MESSAGE_IP_MAX", "rateLimits.messageIpMax",
		"env.MESSAGE_IP_WINDOW", "rateLimits.messageIpWindow",
		"env.LIMIT_MESSAGE_USER", "rateLimits.limitMessageUser",
		"env.MESSAGE_USER_MAX", "rateLimits.messageUserMax",
		"env.MESSAGE_USER_WINDOW", "rateLimits.messageUserWindow",
		"env.LOGIN_MAX", "rateLimits.loginMax",
		"env.LOGIN_WINDOW", "rateLimits.loginWindow",
		"env.REGISTER_MAX", "rateLimits.registerMax",
		"env.REGISTER_WINDOW", "rateLimits.registerWindow",

		"env.ALLOW_EMAIL_LOGIN", "allowEmailLogin",
		"env.ALLOW_REGISTRATION", "allowRegistration",
		"env.ALLOW_SOCIAL_LOGIN", "allowSocialLogin",
		"env.ALLOW_SOCIAL_REGISTRATION", "allowSocialRegistration",
		"env.ALLOW_PASSWORD_RESET", "allowPasswordReset",
		"env.ALLOW_UNVERIFIED_EMAIL_LOGIN", "allowUnverifiedEmailLogin",
		"env.GOOGLE_CLIENT_ID", "googleClientId",
		"env.GOOGLE_CLIENT_SECRET", "googleClientSecret",
		"env.GITHUB_CLIENT_ID", "githubClientId",
		"env.GITHUB_CLIENT_SECRET", "githubClientSecret",
		"env.DISCORD_CLIENT_ID", "discordClientId",
		"env.DISCORD_CLIENT_SECRET", "discordClientSecret",
		"env.OPENID_CLIENT_ID", "openidClientId",
		"env.OPENID_CLIENT_SECRET", "openidClientSecret",
		"env.OPENID_ISSUER", "openidIssuer",
		"env.OPENID_SESSION_SECRET", "openidSessionSecret",
		"env.OPENID_SCOPE", "openidScope",
		"env.OPENID_BUTTON_LABEL", "openidButtonLabel",
	)
	add(
		Const("env.GOOGLE_CALLBACK_URL", "/oauth/google/callback"),
		Const("env.GITHUB_CALLBACK_URL", "/oauth/github/callback"),
		Const("env.DISCORD_CALLBACK_URL", "/oauth/discord/callback"),
		Const("env.OPENID_CALLBACK_URL", "/oauth/openid/callback"),
	)

	copies(
		"env.EMAIL_SERVICE", "emailService",
		"env.EMAIL_HOST", "emailHost",
		"env.EMAIL_PORT", "emailPort",
		"env.EMAIL_ENCRYPTION", "emailEncryption",
		"env.EMAIL_USERNAME", "emailUsername",
		"env.EMAIL_PASSWORD", "emailPassword",
		"env.MAILGUN_API_KEY", "mailgunApiKey",
		"env.MAILGUN_DOMAIN", "mailgunDomain",
		"env.MAILGUN_HOST", "mailgunHost",
		"env.EMAIL_FROM", "emailFrom",
		"env.EMAIL_FROM_NAME", "emailFromName",

		"env.SEARCH", "search",
		"env.MEILI_HOST", "meiliHost",
		"env.MEILI_MASTER_KEY", "meiliMasterKey",
		"env.MEILI_NO_ANALYTICS", "meiliNoAnalytics",

		"env.SERPER_API_KEY", "webSearch.serperApiKey",
		"env.SEARXNG_API_KEY", "webSearch.searxngApiKey",
		"env.FIRECRAWL_API_KEY", "webSearch.firecrawlApiKey",
		"env.JINA_API_KEY", "webSearch.jinaApiKey",
		"env.COHERE_API_KEY", "webSearch.cohereApiKey",
		"env.OCR_API_KEY", "ocr.apiKey",
	)

	copies(
		"config.version", "configVersion",
		"config.cache", "cache",
		"config.interface.customWelcome", "interface.customWelcome",
		"config.interface.privacyPolicy.externalUrl", "interface.privacyPolicyUrl",
		"config.interface.termsOfService.externalUrl", "interface.termsOfServiceUrl",
		"config.interface.termsOfService.modalAcceptance", "interface.termsModalAcceptance",
		"config.interface.endpointsMenu", "interface.endpointsMenu",
		"config.interface.modelSelect", "interface.modelSelect",
		"config.interface.parameters", "interface.parameters",
		"config.interface.sidePanel", "interface.sidePanel",
		"config.interface.presets", "interface.presets",
		"config.interface.prompts", "interface.prompts",
		"config.interface.bookmarks", "interface.bookmarks",
		"config.interface.multiConvo", "interface.multiConvo",
		"config.interface.agents", "interface.agents",
		"config.interface.runCode", "interface.runCode",
		"config.interface.webSearch", "interface.webSearch",
		"config.interface.fileSearch", "interface.fileSearch",
		"config.interface.temporaryChat", "temporaryChat",
		"config.interface.temporaryChatRetention", "temporaryChatRetention",
	)
	add(
		linkTab("config.interface.privacyPolicy.openNewTab", "config.interface.privacyPolicy.externalUrl"),
		linkTab("config.interface.termsOfService.openNewTab", "config.interface.termsOfService.externalUrl"),
	)

	copies(
		"config.registration.socialLogins", "socialLogins",
		"config.registration.allowedDomains", "allowedDomains",
		"config.fileStrategy", "fileStrategy",
		"config.fileConfig.endpoints.default.fileLimit", "fileConfig.fileLimit",
		"config.fileConfig.endpoints.default.fileSizeLimit", "fileConfig.fileSizeLimit",
		"config.fileConfig.serverFileSizeLimit", "fileConfig.serverFileSizeLimit",
		"config.fileConfig.avatarSizeLimit", "fileConfig.avatarSizeLimit",
	)
	add(rateLimitBuckets(), speech())

	copies(
		"config.webSearch.searxngInstanceUrl", "webSearch.searxngInstanceUrl",
		"config.webSearch.firecrawlApiUrl", "webSearch.firecrawlApiUrl",
		"config.webSearch.searchProvider", "webSearch.searchProvider",
		"config.webSearch.scraperType", "webSearch.scraperType",
		"config.webSearch.rerankerType", "webSearch.rerankerType",
		"config.webSearch.safeSearch", "webSearch.safeSearch",
	)
	add(
		SecretRef("config.webSearch.serperApiKey", "env.SERPER_API_KEY", "webSearch.serperApiKey"),
		SecretRef("config.webSearch.searxngApiKey", "env.SEARXNG_API_KEY", "webSearch.searxngApiKey"),
		SecretRef("config.webSearch.firecrawlApiKey", "env.FIRECRAWL_API_KEY", "webSearch.firecrawlApiKey"),
		SecretRef("config.webSearch.jinaApiKey", "env.JINA_API_KEY", "webSearch.jinaApiKey"),
		SecretRef("config.webSearch.cohereApiKey", "env.COHERE_API_KEY", "webSearch.cohereApiKey"),
		SecretRef("config.ocr.apiKey", "env.OCR_API_KEY", "ocr.apiKey"),
	)

	copies(
		"config.ocr.baseURL", "ocr.baseURL",
		"config.ocr.strategy", "ocr.strategy",
		"config.ocr.mistralModel", "ocr.mistralModel",
		"config.memory.disabled", "memory.disabled",
		"config.memory.personalize", "memory.personalize",
		"config.memory.tokenLimit", "memory.tokenLimit",
		"config.memory.messageWindowSize", "memory.messageWindowSize",
		"config.memory.validKeys", "memory.validKeys",
		"config.memory.agent.provider", "memory.agentProvider",
		"config.memory.agent.model", "memory.agentModel",
		"config.actions.allowedDomains", "actionsAllowedDomains",
		"config.modelSpecs.enforce", "modelSpecs.enforce",
		"config.modelSpecs.prioritize", "modelSpecs.prioritize",
	)
	add(modelSpecList())

	copies(
		"config.endpoints.all.titleConvo", "endpoints.titleConvo",
		"config.endpoints.all.titleModel", "endpoints.titleModel",
		"config.endpoints.agents.recursionLimit", "agentsRecursionLimit",
		"config.endpoints.agents.maxRecursionLimit", "agentsMaxRecursionLimit",
		"config.endpoints.agents.disableBuilder", "agentsDisableBuilder",
		"config.endpoints.agents.capabilities", "agentsCapabilities",
	)
	add(customEndpoints(), mcpServers())

	add(
		Copy("deploy.image", "dockerImage"),
		Project("deploy.port", "port"),
		Project("deploy.ragApi", "enableRagApi"),
		Project("deploy.ragPort", "ragPort"),
		Project("deploy.meilisearch", "search"),
		Project("deploy.redis", "useRedis"),
		Copy("deploy.emailService", "emailServiceType"),
	)
	return out
})

func ragAPIURL() Rule {
	return Rule{
		Name:    "rag api url",
		Targets: []string{"env.RAG_API_URL"},
		Sources: []string{"enableRagApi"},
		Forward: func(cfg *settings.Configuration, n *NestedConfiguration) {
			if cfg.EnableRAGAPI {
				n.Env.RAGAPIURL = "http://rag_api:" + strconv.Itoa(cfg.RAGPort)
			}
		},
		Reverse: func(n *NestedConfiguration, cfg *settings.Configuration) {
			cfg.EnableRAGAPI = strings.TrimSpace(n.Env.RAGAPIURL) != ""
		},
	}
}

const day = 24 * time.Hour

// FormatDuration renders d in the short form accepted for duration fields,
// preferring whole days.
func FormatDuration(d time.Duration) string {
	if d > 0 && d%day == 0 {
		return strconv.FormatInt(int64(d/day), 10) + "d"
	}
	return str2duration.String(d)
}

func durationMillis(target, source string) Rule {
	return Rule{
		Name:    "milliseconds " + source,
		Targets: []string{target},
		Sources: []string{source},
		Forward: func(cfg *settings.Configuration, n *NestedConfiguration) {
			l, f, ok := bind(target, source)
			if !ok {
				return
			}
			d, err := str2duration.ParseDuration(f.Value(cfg).String())
			if err != nil {
				return
			}
			l.Value(n).SetInt(d.Milliseconds())
		},
		Reverse: func(n *NestedConfiguration, cfg *settings.Configuration) {
			l, f, ok := bind(target, source)
			if !ok {
				return
			}
			if ms := l.Value(n).Int(); ms > 0 {
				f.Value(cfg).SetString(FormatDuration(time.Duration(ms) * time.Millisecond))
			}
		},
	}
}

func commaList(target, source string) Rule {
	return Rule{
		Name:    "list " + source,
		Targets: []string{target},
		Sources: []string{source},
		Forward: func(cfg *settings.Configuration, n *NestedConfiguration) {
			l, f, ok := bind(target, source)
			if !ok {
				return
			}
			items, _ := f.Interface(cfg).([]string)
			l.Value(n).SetString(strings.Join(items, ","))
		},
		Reverse: func(n *NestedConfiguration, cfg *settings.Configuration) {
			l, f, ok := bind(target, source)
			if !ok {
				return
			}
			f.Set(cfg, SplitList(l.Value(n).String()))
		},
	}
}

// SplitList splits a comma separated value, dropping blanks. It returns nil
// for an empty input.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func linkTab(target, urlTarget string) Rule {
	return Rule{
		Name:    "new tab " + urlTarget,
		Targets: []string{target},
		Forward: func(_ *settings.Configuration, n *NestedConfiguration) {
			l, ok := LookupLeaf(target)
			u, uok := LookupLeaf(urlTarget)
			if ok && uok {
				l.Value(n).SetBool(u.Value(n).String() != "")
			}
		},
	}
}

var bucketTargets = func() []string {
	var out []string
	for _, b := range []string{"fileUploads", "conversationsImport", "stt", "tts"} {
		for _, k := range []string{"ipMax", "ipWindowInMinutes", "userMax", "userWindowInMinutes"} {
			out = append(out, "config.rateLimits."+b+"."+k)
		}
	}
	return out
}()

// rateLimitBuckets fans the three flat limits out to every bucket and reads
// them back from the file upload bucket.
func rateLimitBuckets() Rule {
	return Rule{
		Name:    "rate limit buckets",
		Targets: bucketTargets,
		Sources: []string{"rateLimitsPerIP", "rateLimitsPerUser", "rateLimitsWindow"},
		Forward: func(cfg *settings.Configuration, n *NestedConfiguration) {
			b := RateBucket{
				IPMax:               cfg.RateLimitsPerIP,
				IPWindowInMinutes:   cfg.RateLimitsWindow,
				UserMax:             cfg.RateLimitsPerUser,
				UserWindowInMinutes: cfg.RateLimitsWindow,
			}
			n.Config.RateLimits = RateLimitsConfig{FileUploads: b, ConversationsImport: b, STT: b, TTS: b}
		},
		Reverse: func(n *NestedConfiguration, cfg *settings.Configuration) {
			b := n.Config.RateLimits.FileUploads
			if b.IPMax > 0 {
				cfg.RateLimitsPerIP = b.IPMax
			}
			if b.UserMax > 0 {
				cfg.RateLimitsPerUser = b.UserMax
			}
			if b.IPWindowInMinutes > 0 {
				cfg.RateLimitsWindow = b.IPWindowInMinutes
			}
		},
	}
}

func speech() Rule {
	return Rule{
		Name:    "speech providers",
		Targets: []string{"config.speech.stt", "config.speech.tts"},
		Sources: []string{"stt.provider", "stt.model", "stt.url", "tts.provider", "tts.model", "tts.voices", "tts.url"},
		Forward: func(cfg *settings.Configuration, n *NestedConfiguration) {
			if cfg.STT.Provider != "" {
				n.Config.Speech.STT = map[string]SpeechProvider{cfg.STT.Provider: {
					URL:    cfg.STT.URL,
					APIKey: EnvRef("STT_API_KEY"),
					Model:  cfg.STT.Model,
				}}
			}
			if cfg.TTS.Provider != "" {
				n.Config.Speech.TTS = map[string]SpeechProvider{cfg.TTS.Provider: {
					URL:    cfg.TTS.URL,
					APIKey: EnvRef("TTS_API_KEY"),
					Model:  cfg.TTS.Model,
					Voices: slices.Clone(cfg.TTS.Voices),
				}}
			}
		},
		Reverse: func(n *NestedConfiguration, cfg *settings.Configuration) {
			if name, p, ok := firstProvider(n.Config.Speech.STT); ok {
				cfg.STT.Provider, cfg.STT.Model, cfg.STT.URL = name, p.Model, p.URL
				if literalSecret(p.APIKey) {
					cfg.STT.APIKey = p.APIKey
				}
			}
			if name, p, ok := firstProvider(n.Config.Speech.TTS); ok {
				cfg.TTS.Provider, cfg.TTS.Model, cfg.TTS.URL = name, p.Model, p.URL
				if len(p.Voices) > 0 {
					cfg.TTS.Voices = slices.Clone(p.Voices)
				}
				if literalSecret(p.APIKey) {
					cfg.TTS.APIKey = p.APIKey
				}
			}
		},
	}
}

func firstProvider(m map[string]SpeechProvider) (string, SpeechProvider, bool) {
	if len(m) == 0 {
		return "", SpeechProvider{}, false
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names[0], m[names[0]], true
}

func literalSecret(v string) bool {
	return v != "" && !settings.IsPlaceholderValue(v)
}

func modelSpecList() Rule {
	return Rule{
		Name:    "model specs",
		Targets: []string{"config.modelSpecs.list"},
		Sources: []string{"modelSpecs.list"},
		Forward: func(cfg *settings.Configuration, n *NestedConfiguration) {
			var list []ModelSpecConfig
			for _, s := range cfg.ModelSpecs.List {
				list = append(list, ModelSpecConfig{
					Name:        s.Name,
					Label:       s.Label,
					Description: s.Description,
					Default:     s.Default,
					Preset:      ModelPreset{Endpoint: s.Endpoint, Model: s.Model},
				})
			}
			n.Config.ModelSpecs.List = list
		},
		Reverse: func(n *NestedConfiguration, cfg *settings.Configuration) {
			var list []settings.ModelSpec
			for _, s := range n.Config.ModelSpecs.List {
				list = append(list, settings.ModelSpec{
					Name:        s.Name,
					Label:       s.Label,
					Description: s.Description,
					Default:     s.Default,
					Endpoint:    s.Preset.Endpoint,
					Model:       s.Preset.Model,
				})
			}
			cfg.ModelSpecs.List = list
		},
	}
}

func (e *EnvSettings) setExtra(name, value string) {
	if e.Extra == nil {
		e.Extra = map[string]string{}
	}
	e.Extra[name] = value
}

// resolve replaces a "${NAME}" reference with the value held in the env
// settings. Unknown references are returned unchanged.
func (n *NestedConfiguration) resolve(v string) string {
	name, ok := RefName(v)
	if !ok {
		return v
	}
	if val, ok := n.Env.Lookup(name); ok && val != "" {
		return val
	}
	return v
}

// CustomEndpointVar names the variable holding a custom endpoint's key. A name
// that would shadow a built-in variable, such as GROQ_API_KEY for an endpoint
// called "groq", moves under the CUSTOM_ prefix.
func CustomEndpointVar(endpoint string) string {
	name := settings.CustomEndpointKeyName(endpoint)
	if _, builtin := lookupEnvField(name); builtin {
		return "CUSTOM_" + name
	}
	return name
}

// customEndpoints moves each endpoint key into a variable named after the
// endpoint. Unset keys are rendered as placeholders so the yaml never holds
// an empty key.
func customEndpoints() Rule {
	return Rule{
		Name:    "custom endpoints",
		Targets: []string{"config.endpoints.custom", "env.extra"},
		Sources: []string{"endpoints.custom"},
		Forward: func(cfg *settings.Configuration, n *NestedConfiguration) {
			var list []CustomEndpointConfig
			for _, ep := range cfg.Endpoints.Custom {
				keyName := CustomEndpointVar(ep.Name)
				apiKey := EnvRef(keyName)
				switch {
				case ep.APIKey == UserProvided:
					apiKey = UserProvided
				case literalSecret(ep.APIKey):
					n.Env.setExtra(keyName, ep.APIKey)
				default:
					n.Env.setExtra(keyName, "")
					apiKey = core.Placeholder(keyName)
				}
				list = append(list, CustomEndpointConfig{
					Name:              ep.Name,
					APIKey:            apiKey,
					BaseURL:           ep.BaseURL,
					Models:            CustomModels{Default: slices.Clone(ep.Models), Fetch: ep.FetchModels},
					TitleConvo:        ep.TitleConvo,
					TitleModel:        ep.TitleModel,
					ModelDisplayLabel: ep.ModelDisplayLabel,
				})
			}
			n.Config.Endpoints.Custom = list
		},
		Reverse: func(n *NestedConfiguration, cfg *settings.Configuration) {
			var list []settings.CustomEndpoint
			for _, ep := range n.Config.Endpoints.Custom {
				list = append(list, settings.CustomEndpoint{
					Name:              ep.Name,
					APIKey:            n.resolve(ep.APIKey),
					BaseURL:           ep.BaseURL,
					Models:            slices.Clone(ep.Models.Default),
					FetchModels:       ep.Models.Fetch,
					TitleConvo:        ep.TitleConvo,
					TitleModel:        ep.TitleModel,
					ModelDisplayLabel: ep.ModelDisplayLabel,
				})
			}
			cfg.Endpoints.Custom = list
		},
	}
}

// MCPSecretName names the variable holding one env or header value of an MCP server.
func MCPSecretName(server, key string) string {
	return "MCP_" + core.ScreamingSnake(server) + "_" + core.ScreamingSnake(key)
}

// mcpServers renders the name-keyed server map. Env and header values move
// into variables and the yaml keeps references to them.
func mcpServers() Rule {
	return Rule{
		Name:    "mcp servers",
		Targets: []string{"config.mcpServers", "env.extra"},
		Sources: []string{"mcpServers"},
		Forward: func(cfg *settings.Configuration, n *NestedConfiguration) {
			if cfg.MCPServers.Len() == 0 {
				return
			}
			out := make(map[string]MCPServerConfig, cfg.MCPServers.Len())
			for _, s := range cfg.MCPServers.Servers {
				out[s.Name] = MCPServerConfig{
					Type:               string(s.Type),
					Command:            s.Command,
					Args:               slices.Clone(s.Args),
					URL:                s.URL,
					Env:                n.referenceSecrets(s.Name, s.Env),
					Headers:            n.referenceSecrets(s.Name, s.Headers),
					Timeout:            s.Timeout,
					InitTimeout:        s.InitTimeout,
					IconPath:           s.IconPath,
					ChatMenu:           &s.ChatMenu,
					ServerInstructions: s.ServerInstructions,
				}
			}
			n.Config.MCPServers = out
		},
		Reverse: func(n *NestedConfiguration, cfg *settings.Configuration) {
			byName := make(map[string]settings.MCPServer, len(n.Config.MCPServers))
			for name, s := range n.Config.MCPServers {
				byName[name] = settings.MCPServer{
					Type:               settings.MCPTransport(s.Type),
					Command:            s.Command,
					Args:               slices.Clone(s.Args),
					URL:                s.URL,
					Env:                n.resolveAll(s.Env),
					Headers:            n.resolveAll(s.Headers),
					Timeout:            orDefault(s.Timeout, settings.DefaultMCPTimeout),
					InitTimeout:        orDefault(s.InitTimeout, settings.DefaultMCPInitTimeout),
					IconPath:           s.IconPath,
					ChatMenu:           s.ChatMenu == nil || *s.ChatMenu,
					ServerInstructions: s.ServerInstructions,
				}
			}
			if len(byName) == 0 {
				cfg.MCPServers = settings.MCPServers{}
				return
			}
			cfg.MCPServers = settings.MCPServersFromMap(byName)
		},
	}
}

func (n *NestedConfiguration) referenceSecrets(server string, in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v == "" || settings.IsPlaceholderValue(v) {
			out[k] = v
			continue
		}
		name := MCPSecretName(server, k)
		n.Env.setExtra(name, v)
		out[k] = EnvRef(name)
	}
	return out
}

func (n *NestedConfiguration) resolveAll(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = n.resolve(v)
	}
	return out
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// String renders a rule for coverage reports.
func (r Rule) String() string {
	return fmt.Sprintf("%s (%s <- %s)", r.Name, strings.Join(r.Targets, ", "), strings.Join(r.Sources, ", "))
}
