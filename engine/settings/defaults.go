package settings

const (
	DefaultDockerImage   = "ghcr.io/danny-avila/librechat-dev:latest"
	DefaultConfigVersion = "1.2.8"
	DefaultMongoURI      = "mongodb://mongodb:27017/LibreChat"
	DefaultRedisURI      = "redis://redis:6379"
	DefaultMeiliHost     = "http://meilisearch:7700"
)

// defaults returns the documented per-field defaults without inference applied,
// so Parse can tell which union fields the caller left out.
func defaults() *Configuration {
	return &Configuration{
		Host:          "0.0.0.0",
		Port:          3080,
		DomainClient:  "http://localhost:3080",
		DomainServer:  "http://localhost:3080",
		NoIndex:       true,
		TrustProxy:    1,
		NodeEnv:       "production",
		DebugLogging:  true,
		AppTitle:      "LibreChat",
		DockerImage:   DefaultDockerImage,
		RAGPort:       8000,
		ConfigVersion: DefaultConfigVersion,
		Cache:         true,

		SessionExpiry:      "15m",
		RefreshTokenExpiry: "7d",
		MinPasswordLength:  8,
		BanViolations:      true,
		BanDuration:        "2h",
		BanInterval:        20,

		MongoURI: DefaultMongoURI,
		RedisURI: DefaultRedisURI,

		Interface: InterfaceSettings{
			EndpointsMenu: true,
			ModelSelect:   true,
			Parameters:    true,
			SidePanel:     true,
			Presets:       true,
			Prompts:       true,
			Bookmarks:     true,
			MultiConvo:    true,
			Agents:        true,
			RunCode:       true,
			WebSearch:     true,
			FileSearch:    true,
		},
		AllowSharedLinks:       true,
		AllowSharedLinksPublic: true,

		ModelSpecs: ModelSpecsSettings{Prioritize: true},

		EnabledEndpoints: []string{"openAI", "agents", "assistants", "azureOpenAI", "google", "anthropic", "custom"},
		Endpoints: EndpointsSettings{
			TitleConvo: true,
			TitleModel: "gpt-4o-mini",
		},
		STT: SpeechToText{Provider: "openai", Model: "whisper-1"},
		TTS: TextToSpeech{Provider: "openai", Model: "tts-1", Voices: []string{"alloy"}},

		AgentsRecursionLimit:    25,
		AgentsMaxRecursionLimit: 25,
		AgentsCapabilities:      []string{"execute_code", "file_search", "actions", "tools", "web_search", "ocr"},

		FileConfig: FileConfigSettings{
			ServerFileSizeLimit: 100,
			AvatarSizeLimit:     2,
			FileLimit:           10,
			FileSizeLimit:       20,
		},
		AWSRegion:          "us-east-1",
		AzureContainerName: "files",

		RateLimitsPerIP:   100,
		RateLimitsPerUser: 50,
		RateLimitsWindow:  60,
		RateLimits: RateLimitSettings{
			LimitConcurrentMessages: true,
			ConcurrentMessageMax:    2,
			LimitMessageIP:          true,
			MessageIPMax:            40,
			MessageIPWindow:         1,
			LimitMessageUser:        false,
			MessageUserMax:          40,
			MessageUserWindow:       1,
			LoginMax:                7,
			LoginWindow:             5,
			RegisterMax:             5,
			RegisterWindow:          60,
		},

		AllowRegistration:         true,
		AllowEmailLogin:           true,
		AllowPasswordReset:        false,
		AllowUnverifiedEmailLogin: true,
		OpenIDScope:               "openid profile email",
		EmailPort:                 25,
		EmailEncryption:           "starttls",
		EmailFrom:                 "noreply@librechat.ai",
		EmailFromName:             "LibreChat",

		Memory: MemorySettings{
			Personalize:       true,
			TokenLimit:        10000,
			MessageWindowSize: 5,
		},

		Search:           true,
		MeiliHost:        DefaultMeiliHost,
		MeiliNoAnalytics: true,
		WebSearch: WebSearchSettings{
			SearchProvider: "serper",
			ScraperType:    "firecrawl",
			RerankerType:   "jina",
			SafeSearch:     1,
		},

		OCR: OCRSettings{
			Strategy:     "mistral_ocr",
			MistralModel: "mistral-ocr-latest",
		},

		TemporaryChat:          true,
		TemporaryChatRetention: 720,
	}
}

// Baseline returns the documented defaults with union and discriminator
// fields left unresolved. Callers fill it in and then call Resolve.
func Baseline() *Configuration {
	return defaults()
}

// Resolve finishes a configuration assembled outside Parse: placeholder secrets
// are treated as unset and inferred fields are filled in.
func Resolve(cfg *Configuration) {
	clearPlaceholders(cfg)
	cfg.Normalize()
}

// Default returns a configuration populated with every documented default,
// with file strategy and email service resolved.
func Default() *Configuration {
	cfg := defaults()
	cfg.Normalize()
	return cfg
}
