package settings

// Configuration is the flat, UI-facing description of a chat deployment.
// Top-level fields carry a category tag; fields of nested sub-objects inherit it.
// Fields tagged sensitive are secrets and are withheld by Sanitize.
type Configuration struct {
	// Server
	Host          string `json:"host"          validate:"required,max=255"      category:"Server"`
	Port          int    `json:"port"          validate:"min=1,max=65535"       category:"Server"`
	DomainClient  string `json:"domainClient"  validate:"omitempty,url"         category:"Server"`
	DomainServer  string `json:"domainServer"  validate:"omitempty,url"         category:"Server"`
	NoIndex       bool   `json:"noIndex"                                        category:"Server"`
	TrustProxy    int    `json:"trustProxy"    validate:"min=0,max=10"          category:"Server"`
	NodeEnv       string `json:"nodeEnv"       validate:"oneof=development production" category:"Server"`
	ConsoleJSON   bool   `json:"consoleJson"                                    category:"Server"`
	DebugLogging  bool   `json:"debugLogging"                                   category:"Server"`
	DebugConsole  bool   `json:"debugConsole"                                   category:"Server"`
	AppTitle      string `json:"appTitle"      validate:"max=100"               category:"Server"`
	CustomFooter  string `json:"customFooter"  validate:"max=500"               category:"Server"`
	HelpAndFAQURL string `json:"helpAndFaqUrl" validate:"omitempty,url"         category:"Server"`
	DockerImage   string `json:"dockerImage"   validate:"required,max=255"      category:"Server"`
	EnableRAGAPI  bool   `json:"enableRagApi"                                   category:"Server"`
	RAGPort       int    `json:"ragPort"       validate:"min=1,max=65535"       category:"Server"`
	ConfigVersion string `json:"configVersion" validate:"required"              category:"Server"`
	Cache         bool   `json:"cache"                                          category:"Server"`

	// Security
	JWTSecret          string `json:"jwtSecret"          validate:"omitempty,min=32"  category:"Security" sensitive:"true"`
	JWTRefreshSecret   string `json:"jwtRefreshSecret"   validate:"omitempty,min=32"  category:"Security" sensitive:"true"`
	CredsKey           string `json:"credsKey"           validate:"omitempty,len=32"  category:"Security" sensitive:"true"`
	CredsIV            string `json:"credsIV"            validate:"omitempty,len=16"  category:"Security" sensitive:"true"`
	SessionExpiry      string `json:"sessionExpiry"      validate:"required,duration" category:"Security"`
	RefreshTokenExpiry string `json:"refreshTokenExpiry" validate:"required,duration" category:"Security"`
	MinPasswordLength  int    `json:"minPasswordLength"  validate:"min=6,max=128"     category:"Security"`
	BanViolations      bool   `json:"banViolations"                                   category:"Security"`
	BanDuration        string `json:"banDuration"        validate:"required,duration" category:"Security"`
	BanInterval        int    `json:"banInterval"        validate:"min=1,max=1000"    category:"Security"`

	// Database
	MongoURI string `json:"mongoUri" validate:"required,mongo_uri"           category:"Database" sensitive:"true"`
	UseRedis bool   `json:"useRedis"                                         category:"Database"`
	RedisURI string `json:"redisUri" validate:"omitempty,redis_uri"          category:"Database" sensitive:"true"`

	// UI/Visibility
	Interface              InterfaceSettings `json:"interface"              category:"UI/Visibility"`
	AllowSharedLinks       bool              `json:"allowSharedLinks"       category:"UI/Visibility"`
	AllowSharedLinksPublic bool              `json:"allowSharedLinksPublic" category:"UI/Visibility"`

	// Models/Specs
	ModelSpecs ModelSpecsSettings `json:"modelSpecs" category:"Models/Specs"`

	// Endpoints
	EnabledEndpoints  []string          `json:"enabledEndpoints,omitempty"  validate:"dive,oneof=openAI agents assistants azureOpenAI azureAssistants google anthropic bedrock custom" category:"Endpoints"`
	OpenAIAPIKey      string            `json:"openaiApiKey"                category:"Endpoints" sensitive:"true"`
	AnthropicAPIKey   string            `json:"anthropicApiKey"             category:"Endpoints" sensitive:"true"`
	GoogleKey         string            `json:"googleKey"                   category:"Endpoints" sensitive:"true"`
	GroqAPIKey        string            `json:"groqApiKey"                  category:"Endpoints" sensitive:"true"`
	MistralAPIKey     string            `json:"mistralApiKey"               category:"Endpoints" sensitive:"true"`
	OpenRouterKey     string            `json:"openrouterKey"               category:"Endpoints" sensitive:"true"`
	AzureOpenAIAPIKey string            `json:"azureOpenaiApiKey"           category:"Endpoints" sensitive:"true"`
	OpenAIModels      []string          `json:"openaiModels,omitempty"      validate:"dive,required" category:"Endpoints"`
	AnthropicModels   []string          `json:"anthropicModels,omitempty"   validate:"dive,required" category:"Endpoints"`
	GoogleModels      []string          `json:"googleModels,omitempty"      validate:"dive,required" category:"Endpoints"`
	Endpoints         EndpointsSettings `json:"endpoints"                   category:"Endpoints"`
	STT               SpeechToText      `json:"stt"                         category:"Endpoints"`
	TTS               TextToSpeech      `json:"tts"                         category:"Endpoints"`

	// Agents
	AgentsRecursionLimit    int      `json:"agentsRecursionLimit"         validate:"min=1,max=100" category:"Agents"`
	AgentsMaxRecursionLimit int      `json:"agentsMaxRecursionLimit"      validate:"min=1,max=100" category:"Agents"`
	AgentsDisableBuilder    bool     `json:"agentsDisableBuilder"                                  category:"Agents"`
	AgentsCapabilities      []string `json:"agentsCapabilities,omitempty" validate:"dive,oneof=execute_code file_search actions tools web_search ocr artifacts chain" category:"Agents"`

	// Files
	FileStrategy                 FileStrategy       `json:"fileStrategy"                                  category:"Files"`
	FileConfig                   FileConfigSettings `json:"fileConfig"                                    category:"Files"`
	FirebaseAPIKey               string             `json:"firebaseApiKey"                                category:"Files" sensitive:"true"`
	FirebaseAuthDomain           string             `json:"firebaseAuthDomain"                            category:"Files"`
	FirebaseProjectID            string             `json:"firebaseProjectId"                             category:"Files"`
	FirebaseStorageBucket        string             `json:"firebaseStorageBucket"                         category:"Files"`
	FirebaseMessagingSenderID    string             `json:"firebaseMessagingSenderId"                     category:"Files"`
	FirebaseAppID                string             `json:"firebaseAppId"                                 category:"Files"`
	AWSAccessKeyID               string             `json:"awsAccessKeyId"                                category:"Files" sensitive:"true"`
	AWSSecretAccessKey           string             `json:"awsSecretAccessKey"                            category:"Files" sensitive:"true"`
	AWSRegion                    string             `json:"awsRegion"                                     category:"Files"`
	AWSBucketName                string             `json:"awsBucketName"                                 category:"Files"`
	AWSEndpointURL               string             `json:"awsEndpointUrl"      validate:"omitempty,url"  category:"Files"`
	AzureStorageConnectionString string             `json:"azureStorageConnectionString"                  category:"Files" sensitive:"true"`
	AzureContainerName           string             `json:"azureContainerName"  validate:"max=63"         category:"Files"`

	// Rate Limits
	RateLimitsPerIP   int               `json:"rateLimitsPerIP"   validate:"min=1,max=10000" category:"Rate Limits"`
	RateLimitsPerUser int               `json:"rateLimitsPerUser" validate:"min=1,max=10000" category:"Rate Limits"`
	RateLimitsWindow  int               `json:"rateLimitsWindow"  validate:"min=1,max=1440"  category:"Rate Limits"`
	RateLimits        RateLimitSettings `json:"rateLimits"                                   category:"Rate Limits"`

	// Authentication
	AllowRegistration         bool     `json:"allowRegistration"                                   category:"Authentication"`
	AllowEmailLogin           bool     `json:"allowEmailLogin"                                     category:"Authentication"`
	AllowSocialLogin          bool     `json:"allowSocialLogin"                                    category:"Authentication"`
	AllowSocialRegistration   bool     `json:"allowSocialRegistration"                             category:"Authentication"`
	AllowPasswordReset        bool     `json:"allowPasswordReset"                                  category:"Authentication"`
	AllowUnverifiedEmailLogin bool     `json:"allowUnverifiedEmailLogin"                           category:"Authentication"`
	AllowedDomains            []string `json:"allowedDomains,omitempty" validate:"dive,hostname_rfc1123" category:"Authentication"`
	SocialLogins              []string `json:"socialLogins,omitempty"   validate:"dive,oneof=google github discord facebook openid apple saml" category:"Authentication"`
	GoogleClientID            string   `json:"googleClientId"                                      category:"Authentication"`
	GoogleClientSecret        string   `json:"googleClientSecret"                                  category:"Authentication" sensitive:"true"`
	GithubClientID            string   `json:"githubClientId"                                      category:"Authentication"`
	GithubClientSecret        string   `json:"githubClientSecret"                                  category:"Authentication" sensitive:"true"`
	DiscordClientID           string   `json:"discordClientId"                                     category:"Authentication"`
	DiscordClientSecret       string   `json:"discordClientSecret"                                 category:"Authentication" sensitive:"true"`
	OpenIDClientID            string   `json:"openidClientId"                                      category:"Authentication"`
	OpenIDClientSecret        string   `json:"openidClientSecret"                                  category:"Authentication" sensitive:"true"`
	OpenIDIssuer              string   `json:"openidIssuer"        validate:"omitempty,url"        category:"Authentication"`
	OpenIDSessionSecret       string   `json:"openidSessionSecret"                                 category:"Authentication" sensitive:"true"`
	OpenIDScope               string   `json:"openidScope"                                         category:"Authentication"`
	OpenIDButtonLabel         string   `json:"openidButtonLabel"   validate:"max=64"               category:"Authentication"`
	EmailServiceType          string   `json:"emailServiceType"    validate:"omitempty,oneof=smtp mailgun none" category:"Authentication"`
	EmailService              string   `json:"emailService"                                        category:"Authentication"`
	EmailHost                 string   `json:"emailHost"           validate:"omitempty,hostname_rfc1123" category:"Authentication"`
	EmailPort                 int      `json:"emailPort"           validate:"min=1,max=65535"      category:"Authentication"`
	EmailEncryption           string   `json:"emailEncryption"     validate:"omitempty,oneof=tls starttls none" category:"Authentication"`
	EmailUsername             string   `json:"emailUsername"                                       category:"Authentication"`
	EmailPassword             string   `json:"emailPassword"                                       category:"Authentication" sensitive:"true"`
	EmailFrom                 string   `json:"emailFrom"           validate:"omitempty,email"      category:"Authentication"`
	EmailFromName             string   `json:"emailFromName"       validate:"max=100"              category:"Authentication"`
	MailgunAPIKey             string   `json:"mailgunApiKey"                                       category:"Authentication" sensitive:"true"`
	MailgunDomain             string   `json:"mailgunDomain"       validate:"omitempty,hostname_rfc1123" category:"Authentication"`
	MailgunHost               string   `json:"mailgunHost"         validate:"omitempty,url"        category:"Authentication"`

	// Memory
	Memory MemorySettings `json:"memory" category:"Memory"`

	// Search
	Search           bool              `json:"search"                                      category:"Search"`
	MeiliHost        string            `json:"meiliHost"        validate:"omitempty,url"   category:"Search"`
	MeiliMasterKey   string            `json:"meiliMasterKey"                              category:"Search" sensitive:"true"`
	MeiliNoAnalytics bool              `json:"meiliNoAnalytics"                            category:"Search"`
	WebSearch        WebSearchSettings `json:"webSearch"                                   category:"Search"`

	// MCP
	MCPServers MCPServers `json:"mcpServers" category:"MCP"`

	// OCR
	OCR OCRSettings `json:"ocr" category:"OCR"`

	// Actions
	ActionsAllowedDomains []string `json:"actionsAllowedDomains,omitempty" validate:"dive,action_domain" category:"Actions"`

	// Temp Chats
	TemporaryChat          bool `json:"temporaryChat"                                     category:"Temp Chats"`
	TemporaryChatRetention int  `json:"temporaryChatRetention" validate:"min=1,max=8760" category:"Temp Chats"`
}

type InterfaceSettings struct {
	CustomWelcome        string `json:"customWelcome"     validate:"max=2000"`
	EndpointsMenu        bool   `json:"endpointsMenu"`
	ModelSelect          bool   `json:"modelSelect"`
	Parameters           bool   `json:"parameters"`
	SidePanel            bool   `json:"sidePanel"`
	Presets              bool   `json:"presets"`
	Prompts              bool   `json:"prompts"`
	Bookmarks            bool   `json:"bookmarks"`
	MultiConvo           bool   `json:"multiConvo"`
	Agents               bool   `json:"agents"`
	RunCode              bool   `json:"runCode"`
	WebSearch            bool   `json:"webSearch"`
	FileSearch           bool   `json:"fileSearch"`
	PrivacyPolicyURL     string `json:"privacyPolicyUrl"  validate:"omitempty,url"`
	TermsOfServiceURL    string `json:"termsOfServiceUrl" validate:"omitempty,url"`
	TermsModalAcceptance bool   `json:"termsModalAcceptance"`
}

type ModelSpecsSettings struct {
	Enforce    bool        `json:"enforce"`
	Prioritize bool        `json:"prioritize"`
	List       []ModelSpec `json:"list,omitempty" validate:"dive"`
}

type ModelSpec struct {
	Name        string `json:"name"        validate:"required,max=64"`
	Label       string `json:"label"       validate:"max=128"`
	Description string `json:"description" validate:"max=1000"`
	Default     bool   `json:"default"`
	Endpoint    string `json:"endpoint"    validate:"required"`
	Model       string `json:"model"       validate:"required"`
}

type EndpointsSettings struct {
	TitleConvo bool             `json:"titleConvo"`
	TitleModel string           `json:"titleModel"`
	Custom     []CustomEndpoint `json:"custom,omitempty" validate:"dive"`
}

type CustomEndpoint struct {
	Name              string   `json:"name"              validate:"required,max=64"`
	APIKey            string   `json:"apiKey"                                        sensitive:"true"`
	BaseURL           string   `json:"baseURL"           validate:"required,url"`
	Models            []string `json:"models,omitempty"  validate:"dive,required"`
	FetchModels       bool     `json:"fetchModels"`
	TitleConvo        bool     `json:"titleConvo"`
	TitleModel        string   `json:"titleModel"`
	ModelDisplayLabel string   `json:"modelDisplayLabel" validate:"max=64"`
}

type SpeechToText struct {
	Provider string `json:"provider" validate:"oneof=openai azureOpenAI"`
	APIKey   string `json:"apiKey"                                  sensitive:"true"`
	Model    string `json:"model"    validate:"required"`
	URL      string `json:"url"      validate:"omitempty,url"`
}

type TextToSpeech struct {
	Provider string   `json:"provider"         validate:"oneof=openai azureOpenAI elevenlabs localai"`
	APIKey   string   `json:"apiKey"                                                                sensitive:"true"`
	Model    string   `json:"model"            validate:"required"`
	Voices   []string `json:"voices,omitempty" validate:"min=1,dive,required"`
	URL      string   `json:"url"              validate:"omitempty,url"`
}

type FileConfigSettings struct {
	ServerFileSizeLimit int `json:"serverFileSizeLimit" validate:"min=1,max=10000"`
	AvatarSizeLimit     int `json:"avatarSizeLimit"     validate:"min=1,max=100"`
	FileLimit           int `json:"fileLimit"           validate:"min=1,max=100"`
	FileSizeLimit       int `json:"fileSizeLimit"       validate:"min=1,max=10000"`
}

type RateLimitSettings struct {
	LimitConcurrentMessages bool `json:"limitConcurrentMessages"`
	ConcurrentMessageMax    int  `json:"concurrentMessageMax" validate:"min=1,max=100"`
	LimitMessageIP          bool `json:"limitMessageIp"`
	MessageIPMax            int  `json:"messageIpMax"         validate:"min=1,max=10000"`
	MessageIPWindow         int  `json:"messageIpWindow"      validate:"min=1,max=1440"`
	LimitMessageUser        bool `json:"limitMessageUser"`
	MessageUserMax          int  `json:"messageUserMax"       validate:"min=1,max=10000"`
	MessageUserWindow       int  `json:"messageUserWindow"    validate:"min=1,max=1440"`
	LoginMax                int  `json:"loginMax"             validate:"min=1,max=1000"`
	LoginWindow             int  `json:"loginWindow"          validate:"min=1,max=1440"`
	RegisterMax             int  `json:"registerMax"          validate:"min=1,max=1000"`
	RegisterWindow          int  `json:"registerWindow"       validate:"min=1,max=1440"`
}

type MemorySettings struct {
	Disabled          bool     `json:"disabled"`
	Personalize       bool     `json:"personalize"`
	TokenLimit        int      `json:"tokenLimit"          validate:"min=100,max=100000"`
	MessageWindowSize int      `json:"messageWindowSize"   validate:"min=1,max=100"`
	ValidKeys         []string `json:"validKeys,omitempty" validate:"dive,required,max=64"`
	AgentProvider     string   `json:"agentProvider"`
	AgentModel        string   `json:"agentModel"`
}

type WebSearchSettings struct {
	SearchProvider     string `json:"searchProvider"     validate:"oneof=serper searxng"`
	ScraperType        string `json:"scraperType"        validate:"oneof=firecrawl serper"`
	RerankerType       string `json:"rerankerType"       validate:"oneof=jina cohere"`
	SerperAPIKey       string `json:"serperApiKey"                                     sensitive:"true"`
	SearxngInstanceURL string `json:"searxngInstanceUrl" validate:"omitempty,url"`
	SearxngAPIKey      string `json:"searxngApiKey"                                    sensitive:"true"`
	FirecrawlAPIKey    string `json:"firecrawlApiKey"                                  sensitive:"true"`
	FirecrawlAPIURL    string `json:"firecrawlApiUrl"    validate:"omitempty,url"`
	JinaAPIKey         string `json:"jinaApiKey"                                       sensitive:"true"`
	CohereAPIKey       string `json:"cohereApiKey"                                     sensitive:"true"`
	SafeSearch         int    `json:"safeSearch"         validate:"min=0,max=2"`
}

type OCRSettings struct {
	Strategy     string `json:"strategy"     validate:"oneof=mistral_ocr custom_ocr"`
	APIKey       string `json:"apiKey"                                          sensitive:"true"`
	BaseURL      string `json:"baseURL"      validate:"omitempty,url"`
	MistralModel string `json:"mistralModel" validate:"required"`
}
