package config

import (
	"context"
	"time"

	"github.com/chatdeploy/configurator/pkg/config/definition"
)

// Config is the configurator's own runtime configuration. It is unrelated to
// the chat application settings the configurator generates.
type Config struct {
	Server     ServerConfig     `koanf:"server"     validate:"required"`
	Storage    StorageConfig    `koanf:"storage"    validate:"required"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Deploy     DeployConfig     `koanf:"deploy"`
	Runtime    RuntimeConfig    `koanf:"runtime"    validate:"required"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"             validate:"required"        env:"SERVER_HOST"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535" env:"SERVER_PORT"`
	CORSEnabled     bool          `koanf:"cors_enabled"                                env:"SERVER_CORS_ENABLED"`
	CORS            CORSConfig    `koanf:"cors"`
	BodyLimit       int64         `koanf:"body_limit"       validate:"min=1024"        env:"SERVER_BODY_LIMIT"`
	ReadTimeout     time.Duration `koanf:"read_timeout"                                env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `koanf:"write_timeout"                               env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"                            env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"   env:"SERVER_CORS_ALLOWED_ORIGINS"   validate:"dive,http_origin"`
	AllowCredentials bool     `koanf:"allow_credentials" env:"SERVER_CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `koanf:"max_age"           env:"SERVER_CORS_MAX_AGE"`
}

// StorageConfig locates the file-backed stores.
type StorageConfig struct {
	DataDir          string `koanf:"data_dir"          validate:"required" env:"STORAGE_DATA_DIR"`
	HistoryRetention int    `koanf:"history_retention" validate:"min=0"    env:"STORAGE_HISTORY_RETENTION"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled      bool       `koanf:"enabled"       env:"RATELIMIT_ENABLED"`
	GlobalRate   RateConfig `koanf:"global_rate"`
	Prefix       string     `koanf:"prefix"        env:"RATELIMIT_PREFIX"`
	ExcludePaths []string   `koanf:"exclude_paths" env:"RATELIMIT_EXCLUDE_PATHS"`
}

// RateConfig represents a single rate limit configuration.
type RateConfig struct {
	Limit  int64         `koanf:"limit"  env:"RATELIMIT_GLOBAL_LIMIT"`
	Period time.Duration `koanf:"period" env:"RATELIMIT_GLOBAL_PERIOD"`
}

// DeployConfig drives the deployment worker, the health checker and the
// optional webhook platform.
type DeployConfig struct {
	QueueSize   int           `koanf:"queue_size"   validate:"min=1" env:"DEPLOY_QUEUE_SIZE"`
	Concurrency int           `koanf:"concurrency"  validate:"min=1" env:"DEPLOY_CONCURRENCY"`
	TaskTimeout time.Duration `koanf:"task_timeout"                  env:"DEPLOY_TASK_TIMEOUT"`
	HealthSweep string        `koanf:"health_sweep"                  env:"DEPLOY_HEALTH_SWEEP"`
	Health      HealthConfig  `koanf:"health"`
	Webhook     WebhookConfig `koanf:"webhook"`
}

type HealthConfig struct {
	Timeout     time.Duration `koanf:"timeout"     env:"DEPLOY_HEALTH_TIMEOUT"`
	MaxRetries  int           `koanf:"max_retries" validate:"min=0" env:"DEPLOY_HEALTH_MAX_RETRIES"`
	Backoff     time.Duration `koanf:"backoff"     env:"DEPLOY_HEALTH_BACKOFF"`
	Concurrency int           `koanf:"concurrency" validate:"min=1" env:"DEPLOY_HEALTH_CONCURRENCY"`
}

type WebhookConfig struct {
	URL        string          `koanf:"url"         validate:"omitempty,url" env:"DEPLOY_WEBHOOK_URL"`
	Token      SensitiveString `koanf:"token"                                env:"DEPLOY_WEBHOOK_TOKEN" sensitive:"true"`
	Timeout    time.Duration   `koanf:"timeout"                              env:"DEPLOY_WEBHOOK_TIMEOUT"`
	RetryCount int             `koanf:"retry_count" validate:"min=0"         env:"DEPLOY_WEBHOOK_RETRY_COUNT"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error"          env:"RUNTIME_LOG_LEVEL"`
	LogJSON     bool   `koanf:"log_json"                                                    env:"RUNTIME_LOG_JSON"`
	LogSource   bool   `koanf:"log_source"                                                  env:"RUNTIME_LOG_SOURCE"`
}

type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"    validate:"startswith=/"`
}

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource reports which source provided a configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Watch monitors the source for changes.
	Watch(ctx context.Context, callback func()) error
	// Type returns the source type identifier.
	Type() SourceType
	// Close releases any resources held by the source.
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Default returns a Config with default values for development.
func Default() *Config {
	registry := definition.CreateRegistry()
	return &Config{
		Server:     buildServerConfig(registry),
		Storage:    buildStorageConfig(registry),
		RateLimit:  buildRateLimitConfig(registry),
		Deploy:     buildDeployConfig(registry),
		Runtime:    buildRuntimeConfig(registry),
		Monitoring: buildMonitoringConfig(registry),
	}
}

func getString(registry *definition.Registry, path string) string {
	if s, ok := registry.GetDefault(path).(string); ok {
		return s
	}
	return ""
}

func getInt(registry *definition.Registry, path string) int {
	if i, ok := registry.GetDefault(path).(int); ok {
		return i
	}
	return 0
}

func getInt64(registry *definition.Registry, path string) int64 {
	if i, ok := registry.GetDefault(path).(int64); ok {
		return i
	}
	return 0
}

func getBool(registry *definition.Registry, path string) bool {
	if b, ok := registry.GetDefault(path).(bool); ok {
		return b
	}
	return false
}

func getDuration(registry *definition.Registry, path string) time.Duration {
	if d, ok := registry.GetDefault(path).(time.Duration); ok {
		return d
	}
	return 0
}

func getStringSlice(registry *definition.Registry, path string) []string {
	if slice, ok := registry.GetDefault(path).([]string); ok {
		return append([]string(nil), slice...)
	}
	return []string{}
}

func buildServerConfig(registry *definition.Registry) ServerConfig {
	return ServerConfig{
		Host:        getString(registry, "server.host"),
		Port:        getInt(registry, "server.port"),
		CORSEnabled: getBool(registry, "server.cors_enabled"),
		CORS: CORSConfig{
			AllowedOrigins:   getStringSlice(registry, "server.cors.allowed_origins"),
			AllowCredentials: getBool(registry, "server.cors.allow_credentials"),
			MaxAge:           getInt(registry, "server.cors.max_age"),
		},
		BodyLimit:       getInt64(registry, "server.body_limit"),
		ReadTimeout:     getDuration(registry, "server.read_timeout"),
		WriteTimeout:    getDuration(registry, "server.write_timeout"),
		ShutdownTimeout: getDuration(registry, "server.shutdown_timeout"),
	}
}

func buildStorageConfig(registry *definition.Registry) StorageConfig {
	return StorageConfig{
		DataDir:          getString(registry, "storage.data_dir"),
		HistoryRetention: getInt(registry, "storage.history_retention"),
	}
}

func buildRateLimitConfig(registry *definition.Registry) RateLimitConfig {
	return RateLimitConfig{
		Enabled: getBool(registry, "ratelimit.enabled"),
		GlobalRate: RateConfig{
			Limit:  getInt64(registry, "ratelimit.global_rate.limit"),
			Period: getDuration(registry, "ratelimit.global_rate.period"),
		},
		Prefix:       getString(registry, "ratelimit.prefix"),
		ExcludePaths: getStringSlice(registry, "ratelimit.exclude_paths"),
	}
}

func buildDeployConfig(registry *definition.Registry) DeployConfig {
	return DeployConfig{
		QueueSize:   getInt(registry, "deploy.queue_size"),
		Concurrency: getInt(registry, "deploy.concurrency"),
		TaskTimeout: getDuration(registry, "deploy.task_timeout"),
		HealthSweep: getString(registry, "deploy.health_sweep"),
		Health: HealthConfig{
			Timeout:     getDuration(registry, "deploy.health.timeout"),
			MaxRetries:  getInt(registry, "deploy.health.max_retries"),
			Backoff:     getDuration(registry, "deploy.health.backoff"),
			Concurrency: getInt(registry, "deploy.health.concurrency"),
		},
		Webhook: WebhookConfig{
			URL:        getString(registry, "deploy.webhook.url"),
			Token:      SensitiveString(getString(registry, "deploy.webhook.token")),
			Timeout:    getDuration(registry, "deploy.webhook.timeout"),
			RetryCount: getInt(registry, "deploy.webhook.retry_count"),
		},
	}
}

func buildRuntimeConfig(registry *definition.Registry) RuntimeConfig {
	return RuntimeConfig{
		Environment: getString(registry, "runtime.environment"),
		LogLevel:    getString(registry, "runtime.log_level"),
		LogJSON:     getBool(registry, "runtime.log_json"),
		LogSource:   getBool(registry, "runtime.log_source"),
	}
}

func buildMonitoringConfig(registry *definition.Registry) MonitoringConfig {
	return MonitoringConfig{
		Enabled: getBool(registry, "monitoring.enabled"),
		Path:    getString(registry, "monitoring.path"),
	}
}
