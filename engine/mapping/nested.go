package mapping

import "github.com/chatdeploy/configurator/engine/settings"

// NestedConfiguration is the generator-facing shape of a deployment: the
// environment file, the librechat.yaml document and the compose inputs.
type NestedConfiguration struct {
	Env    EnvSettings     `yaml:"env"`
	Config LibreChatConfig `yaml:"config"`
	Deploy DeploySettings  `yaml:"deploy"`
}

// EnvSettings holds one field per variable of the generated .env file.
// A section tag starts a new block; fields in a group are emitted only
// while that group is active.
type EnvSettings struct {
	Host          string `env:"HOST"             section:"Server"`
	Port          int    `env:"PORT"`
	DomainClient  string `env:"DOMAIN_CLIENT"`
	DomainServer  string `env:"DOMAIN_SERVER"`
	NoIndex       bool   `env:"NO_INDEX"`
	TrustProxy    int    `env:"TRUST_PROXY"`
	NodeEnv       string `env:"NODE_ENV"`
	ConsoleJSON   bool   `env:"CONSOLE_JSON"`
	DebugLogging  bool   `env:"DEBUG_LOGGING"`
	DebugConsole  bool   `env:"DEBUG_CONSOLE"`
	AppTitle      string `env:"APP_TITLE"`
	CustomFooter  string `env:"CUSTOM_FOOTER"`
	HelpAndFAQURL string `env:"HELP_AND_FAQ_URL"`

	RAGAPIURL string `env:"RAG_API_URL" group:"rag" section:"RAG API"`
	RAGPort   int    `env:"RAG_PORT"    group:"rag"`

	MongoURI string `env:"MONGO_URI" sensitive:"true" section:"Database"`
	UseRedis bool   `env:"USE_REDIS"`
	RedisURI string `env:"REDIS_URI" sensitive:"true" group:"redis"`

	JWTSecret          string `env:"JWT_SECRET"           sensitive:"true" section:"Security"`
	JWTRefreshSecret   string `env:"JWT_REFRESH_SECRET"   sensitive:"true"`
	CredsKey           string `env:"CREDS_KEY"            sensitive:"true"`
	CredsIV            string `env:"CREDS_IV"             sensitive:"true"`
	SessionExpiry      int64  `env:"SESSION_EXPIRY"`
	RefreshTokenExpiry int64  `env:"REFRESH_TOKEN_EXPIRY"`
	MinPasswordLength  int    `env:"MIN_PASSWORD_LENGTH"`
	BanViolations      bool   `env:"BAN_VIOLATIONS"`
	BanDuration        int64  `env:"BAN_DURATION"`
	BanInterval        int    `env:"BAN_INTERVAL"`

	AllowSharedLinks       bool `env:"ALLOW_SHARED_LINKS"        section:"Shared Links"`
	AllowSharedLinksPublic bool `env:"ALLOW_SHARED_LINKS_PUBLIC"`

	Endpoints         string `env:"ENDPOINTS"            section:"Endpoints"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"       sensitive:"true"`
	OpenAIModels      string `env:"OPENAI_MODELS"`
	AnthropicAPIKey   string `env:"ANTHROPIC_API_KEY"    sensitive:"true"`
	AnthropicModels   string `env:"ANTHROPIC_MODELS"`
	GoogleKey         string `env:"GOOGLE_KEY"           sensitive:"true"`
	GoogleModels      string `env:"GOOGLE_MODELS"`
	GroqAPIKey        string `env:"GROQ_API_KEY"         sensitive:"true"`
	MistralAPIKey     string `env:"MISTRAL_API_KEY"      sensitive:"true"`
	OpenRouterKey     string `env:"OPENROUTER_KEY"       sensitive:"true"`
	AzureOpenAIAPIKey string `env:"AZURE_OPENAI_API_KEY" sensitive:"true"`
	STTAPIKey         string `env:"STT_API_KEY"          sensitive:"true"`
	TTSAPIKey         string `env:"TTS_API_KEY"          sensitive:"true"`

	FirebaseAPIKey               string `env:"FIREBASE_API_KEY"                sensitive:"true" group:"firebase" section:"File Storage"`
	FirebaseAuthDomain           string `env:"FIREBASE_AUTH_DOMAIN"                             group:"firebase"`
	FirebaseProjectID            string `env:"FIREBASE_PROJECT_ID"                              group:"firebase"`
	FirebaseStorageBucket        string `env:"FIREBASE_STORAGE_BUCKET"                          group:"firebase"`
	FirebaseMessagingSenderID    string `env:"FIREBASE_MESSAGING_SENDER_ID"                     group:"firebase"`
	FirebaseAppID                string `env:"FIREBASE_APP_ID"                                  group:"firebase"`
	AWSAccessKeyID               string `env:"AWS_ACCESS_KEY_ID"               sensitive:"true" group:"s3"`
	AWSSecretAccessKey           string `env:"AWS_SECRET_ACCESS_KEY"           sensitive:"true" group:"s3"`
	AWSRegion                    string `env:"AWS_REGION"                                       group:"s3"`
	AWSBucketName                string `env:"AWS_BUCKET_NAME"                                  group:"s3"`
	AWSEndpointURL               string `env:"AWS_ENDPOINT_URL"                                 group:"s3"`
	AzureStorageConnectionString string `env:"AZURE_STORAGE_CONNECTION_STRING" sensitive:"true" group:"azure"`
	AzureContainerName           string `env:"AZURE_CONTAINER_NAME"                             group:"azure"`

	LimitConcurrentMessages bool `env:"LIMIT_CONCURRENT_MESSAGES" section:"Rate Limits"`
	ConcurrentMessageMax    int  `env:"CONCURRENT_MESSAGE_MAX"`
	LimitMessageIP          bool `env:"LIMIT_MESSAGE_IP"`
	MessageIPMax            int  `env:"MESSAGE_IP_MAX"`
	MessageIPWindow         int  `env:"MESSAGE_IP_WINDOW"`
	LimitMessageUser        bool `env:"LIMIT_MESSAGE_USER"`
	MessageUserMax          int  `env:"MESSAGE_USER_MAX"`
	MessageUserWindow       int  `env:"MESSAGE_USER_WINDOW"`
	LoginMax                int  `env:"LOGIN_MAX"`
	LoginWindow             int  `env:"LOGIN_WINDOW"`
	RegisterMax             int  `env:"REGISTER_MAX"`
	RegisterWindow          int  `env:"REGISTER_WINDOW"`

	AllowEmailLogin           bool `env:"ALLOW_EMAIL_LOGIN" section:"Authentication"`
	AllowRegistration         bool `env:"ALLOW_REGISTRATION"`
	AllowSocialLogin          bool `env:"ALLOW_SOCIAL_LOGIN"`
	AllowSocialRegistration   bool `env:"ALLOW_SOCIAL_REGISTRATION"`
	AllowPasswordReset        bool `env:"ALLOW_PASSWORD_RESET"`
	AllowUnverifiedEmailLogin bool `env:"ALLOW_UNVERIFIED_EMAIL_LOGIN"`

	GoogleClientID      string `env:"GOOGLE_CLIENT_ID"      group:"google"`
	GoogleClientSecret  string `env:"GOOGLE_CLIENT_SECRET"  group:"google"  sensitive:"true"`
	GoogleCallbackURL   string `env:"GOOGLE_CALLBACK_URL"   group:"google"`
	GithubClientID      string `env:"GITHUB_CLIENT_ID"      group:"github"`
	GithubClientSecret  string `env:"GITHUB_CLIENT_SECRET"  group:"github"  sensitive:"true"`
	GithubCallbackURL   string `env:"GITHUB_CALLBACK_URL"   group:"github"`
	DiscordClientID     string `env:"DISCORD_CLIENT_ID"     group:"discord"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET" group:"discord" sensitive:"true"`
	DiscordCallbackURL  string `env:"DISCORD_CALLBACK_URL"  group:"discord"`
	OpenIDClientID      string `env:"OPENID_CLIENT_ID"      group:"openid"`
	OpenIDClientSecret  string `env:"OPENID_CLIENT_SECRET"  group:"openid"  sensitive:"true"`
	OpenIDIssuer        string `env:"OPENID_ISSUER"         group:"openid"`
	OpenIDSessionSecret string `env:"OPENID_SESSION_SECRET" group:"openid"  sensitive:"true"`
	OpenIDScope         string `env:"OPENID_SCOPE"          group:"openid"`
	OpenIDButtonLabel   string `env:"OPENID_BUTTON_LABEL"   group:"openid"`
	OpenIDCallbackURL   string `env:"OPENID_CALLBACK_URL"   group:"openid"`

	EmailService    string `env:"EMAIL_SERVICE"    group:"smtp" section:"Email"`
	EmailHost       string `env:"EMAIL_HOST"       group:"smtp"`
	EmailPort       int    `env:"EMAIL_PORT"       group:"smtp"`
	EmailEncryption string `env:"EMAIL_ENCRYPTION" group:"smtp"`
	EmailUsername   string `env:"EMAIL_USERNAME"   group:"smtp"`
	EmailPassword   string `env:"EMAIL_PASSWORD"   group:"smtp"    sensitive:"true"`
	MailgunAPIKey   string `env:"MAILGUN_API_KEY"  group:"mailgun" sensitive:"true"`
	MailgunDomain   string `env:"MAILGUN_DOMAIN"   group:"mailgun"`
	MailgunHost     string `env:"MAILGUN_HOST"     group:"mailgun"`
	EmailFrom       string `env:"EMAIL_FROM"       group:"email"`
	EmailFromName   string `env:"EMAIL_FROM_NAME"  group:"email"`

	Search           bool   `env:"SEARCH"             section:"Search"`
	MeiliHost        string `env:"MEILI_HOST"         group:"meili"`
	MeiliMasterKey   string `env:"MEILI_MASTER_KEY"   group:"meili" sensitive:"true"`
	MeiliNoAnalytics bool   `env:"MEILI_NO_ANALYTICS" group:"meili"`

	SerperAPIKey    string `env:"SERPER_API_KEY"    sensitive:"true" section:"Web Search"`
	SearxngAPIKey   string `env:"SEARXNG_API_KEY"   sensitive:"true"`
	FirecrawlAPIKey string `env:"FIRECRAWL_API_KEY" sensitive:"true"`
	JinaAPIKey      string `env:"JINA_API_KEY"      sensitive:"true"`
	CohereAPIKey    string `env:"COHERE_API_KEY"    sensitive:"true"`

	OCRAPIKey string `env:"OCR_API_KEY" sensitive:"true" section:"OCR"`

	// Extra holds dynamically named secrets: custom endpoint keys and MCP
	// server environment and header values.
	Extra map[string]string `yaml:"extra" env:"-" sensitive:"true" section:"Custom Endpoints & MCP"`
}

// LibreChatConfig mirrors the librechat.yaml document. Field order is the
// order of the generated file.
type LibreChatConfig struct {
	Version      string                     `yaml:"version"`
	Cache        bool                       `yaml:"cache"`
	Interface    InterfaceConfig            `yaml:"interface"`
	Registration RegistrationConfig         `yaml:"registration,omitempty"`
	FileStrategy settings.FileStrategy      `yaml:"fileStrategy,omitempty"`
	FileConfig   FileConfig                 `yaml:"fileConfig"`
	RateLimits   RateLimitsConfig           `yaml:"rateLimits"`
	Speech       SpeechConfig               `yaml:"speech,omitempty"`
	WebSearch    WebSearchConfig            `yaml:"webSearch"`
	OCR          OCRConfig                  `yaml:"ocr"`
	Memory       MemoryConfig               `yaml:"memory"`
	Actions      ActionsConfig              `yaml:"actions,omitempty"`
	ModelSpecs   ModelSpecsConfig           `yaml:"modelSpecs"`
	Endpoints    EndpointsConfig            `yaml:"endpoints"`
	MCPServers   map[string]MCPServerConfig `yaml:"mcpServers,omitempty"`
}

type InterfaceConfig struct {
	CustomWelcome          string         `yaml:"customWelcome,omitempty"`
	PrivacyPolicy          ExternalLink   `yaml:"privacyPolicy,omitempty"`
	TermsOfService         TermsOfService `yaml:"termsOfService,omitempty"`
	EndpointsMenu          bool           `yaml:"endpointsMenu"`
	ModelSelect            bool           `yaml:"modelSelect"`
	Parameters             bool           `yaml:"parameters"`
	SidePanel              bool           `yaml:"sidePanel"`
	Presets                bool           `yaml:"presets"`
	Prompts                bool           `yaml:"prompts"`
	Bookmarks              bool           `yaml:"bookmarks"`
	MultiConvo             bool           `yaml:"multiConvo"`
	Agents                 bool           `yaml:"agents"`
	RunCode                bool           `yaml:"runCode"`
	WebSearch              bool           `yaml:"webSearch"`
	FileSearch             bool           `yaml:"fileSearch"`
	TemporaryChat          bool           `yaml:"temporaryChat"`
	TemporaryChatRetention int            `yaml:"temporaryChatRetention"`
}

type ExternalLink struct {
	ExternalURL string `yaml:"externalUrl,omitempty"`
	OpenNewTab  bool   `yaml:"openNewTab,omitempty"`
}

type TermsOfService struct {
	ExternalURL     string `yaml:"externalUrl,omitempty"`
	OpenNewTab      bool   `yaml:"openNewTab,omitempty"`
	ModalAcceptance bool   `yaml:"modalAcceptance,omitempty"`
}

type RegistrationConfig struct {
	SocialLogins   []string `yaml:"socialLogins,omitempty"`
	AllowedDomains []string `yaml:"allowedDomains,omitempty"`
}

type FileConfig struct {
	Endpoints           FileEndpoints `yaml:"endpoints"`
	ServerFileSizeLimit int           `yaml:"serverFileSizeLimit"`
	AvatarSizeLimit     int           `yaml:"avatarSizeLimit"`
}

type FileEndpoints struct {
	Default FileLimits `yaml:"default"`
}

type FileLimits struct {
	FileLimit     int `yaml:"fileLimit"`
	FileSizeLimit int `yaml:"fileSizeLimit"`
}

type RateLimitsConfig struct {
	FileUploads         RateBucket `yaml:"fileUploads"`
	ConversationsImport RateBucket `yaml:"conversationsImport"`
	STT                 RateBucket `yaml:"stt"`
	TTS                 RateBucket `yaml:"tts"`
}

type RateBucket struct {
	IPMax               int `yaml:"ipMax"`
	IPWindowInMinutes   int `yaml:"ipWindowInMinutes"`
	UserMax             int `yaml:"userMax"`
	UserWindowInMinutes int `yaml:"userWindowInMinutes"`
}

// SpeechConfig keys each direction by provider name, as librechat.yaml does.
type SpeechConfig struct {
	STT map[string]SpeechProvider `yaml:"stt,omitempty"`
	TTS map[string]SpeechProvider `yaml:"tts,omitempty"`
}

type SpeechProvider struct {
	URL    string   `yaml:"url,omitempty"`
	APIKey string   `yaml:"apiKey"`
	Model  string   `yaml:"model"`
	Voices []string `yaml:"voices,omitempty"`
}

type WebSearchConfig struct {
	SerperAPIKey       string `yaml:"serperApiKey"`
	SearxngInstanceURL string `yaml:"searxngInstanceUrl,omitempty"`
	SearxngAPIKey      string `yaml:"searxngApiKey"`
	FirecrawlAPIKey    string `yaml:"firecrawlApiKey"`
	FirecrawlAPIURL    string `yaml:"firecrawlApiUrl,omitempty"`
	JinaAPIKey         string `yaml:"jinaApiKey"`
	CohereAPIKey       string `yaml:"cohereApiKey"`
	SearchProvider     string `yaml:"searchProvider"`
	ScraperType        string `yaml:"scraperType"`
	RerankerType       string `yaml:"rerankerType"`
	SafeSearch         int    `yaml:"safeSearch"`
}

type OCRConfig struct {
	APIKey       string `yaml:"apiKey"`
	BaseURL      string `yaml:"baseURL,omitempty"`
	Strategy     string `yaml:"strategy"`
	MistralModel string `yaml:"mistralModel"`
}

type MemoryConfig struct {
	Disabled          bool        `yaml:"disabled"`
	Personalize       bool        `yaml:"personalize"`
	TokenLimit        int         `yaml:"tokenLimit"`
	MessageWindowSize int         `yaml:"messageWindowSize"`
	ValidKeys         []string    `yaml:"validKeys,omitempty"`
	Agent             MemoryAgent `yaml:"agent,omitempty"`
}

type MemoryAgent struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

type ActionsConfig struct {
	AllowedDomains []string `yaml:"allowedDomains,omitempty"`
}

type ModelSpecsConfig struct {
	Enforce    bool              `yaml:"enforce"`
	Prioritize bool              `yaml:"prioritize"`
	List       []ModelSpecConfig `yaml:"list,omitempty"`
}

type ModelSpecConfig struct {
	Name        string      `yaml:"name"`
	Label       string      `yaml:"label,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Default     bool        `yaml:"default,omitempty"`
	Preset      ModelPreset `yaml:"preset"`
}

type ModelPreset struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

type EndpointsConfig struct {
	All    AllEndpoints           `yaml:"all"`
	Agents AgentsEndpoint         `yaml:"agents"`
	Custom []CustomEndpointConfig `yaml:"custom,omitempty"`
}

type AllEndpoints struct {
	TitleConvo bool   `yaml:"titleConvo"`
	TitleModel string `yaml:"titleModel,omitempty"`
}

type AgentsEndpoint struct {
	RecursionLimit    int      `yaml:"recursionLimit"`
	MaxRecursionLimit int      `yaml:"maxRecursionLimit"`
	DisableBuilder    bool     `yaml:"disableBuilder"`
	Capabilities      []string `yaml:"capabilities,omitempty"`
}

type CustomEndpointConfig struct {
	Name              string       `yaml:"name"`
	APIKey            string       `yaml:"apiKey"`
	BaseURL           string       `yaml:"baseURL"`
	Models            CustomModels `yaml:"models"`
	TitleConvo        bool         `yaml:"titleConvo,omitempty"`
	TitleModel        string       `yaml:"titleModel,omitempty"`
	ModelDisplayLabel string       `yaml:"modelDisplayLabel,omitempty"`
}

type CustomModels struct {
	Default []string `yaml:"default,omitempty"`
	Fetch   bool     `yaml:"fetch"`
}

type MCPServerConfig struct {
	Type               string            `yaml:"type"`
	Command            string            `yaml:"command,omitempty"`
	Args               []string          `yaml:"args,omitempty"`
	URL                string            `yaml:"url,omitempty"`
	Env                map[string]string `yaml:"env,omitempty"`
	Headers            map[string]string `yaml:"headers,omitempty"`
	Timeout            int               `yaml:"timeout,omitempty"`
	InitTimeout        int               `yaml:"initTimeout,omitempty"`
	IconPath           string            `yaml:"iconPath,omitempty"`
	ChatMenu           *bool             `yaml:"chatMenu,omitempty"`
	ServerInstructions string            `yaml:"serverInstructions,omitempty"`
}

// DeploySettings carries what the compose file and install scripts need
// beyond the application's own configuration.
type DeploySettings struct {
	Image        string `yaml:"image"`
	Port         int    `yaml:"port"`
	RAGAPI       bool   `yaml:"ragApi"`
	RAGPort      int    `yaml:"ragPort"`
	Meilisearch  bool   `yaml:"meilisearch"`
	Redis        bool   `yaml:"redis"`
	EmailService string `yaml:"emailService"`
}
