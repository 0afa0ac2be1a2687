package definition

import (
	"reflect"
	"time"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	stringType   = reflect.TypeOf("")
	intType      = reflect.TypeOf(0)
	int64Type    = reflect.TypeOf(int64(0))
	boolType     = reflect.TypeOf(true)
	sliceType    = reflect.TypeOf([]string{})
)

// CreateRegistry creates and populates the configuration registry.
// This is the SINGLE SOURCE OF TRUTH for all configuration defaults.
func CreateRegistry() *Registry {
	registry := NewRegistry()
	registerServerFields(registry)
	registerStorageFields(registry)
	registerRateLimitFields(registry)
	registerDeployFields(registry)
	registerRuntimeFields(registry)
	registerMonitoringFields(registry)
	return registry
}

func registerServerFields(registry *Registry) {
	registerServerHostPortCors(registry)
	registerServerHTTPFields(registry)
}

func registerServerHostPortCors(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "server.host",
		Default: "0.0.0.0",
		CLIFlag: "host",
		EnvVar:  "SERVER_HOST",
		Type:    stringType,
		Help:    "Host to bind the API server to",
	})
	registry.Register(&FieldDef{
		Path:      "server.port",
		Default:   5050,
		CLIFlag:   "port",
		Shorthand: "p",
		EnvVar:    "SERVER_PORT",
		Type:      intType,
		Help:      "Port to run the API server on",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors_enabled",
		Default: true,
		CLIFlag: "cors",
		EnvVar:  "SERVER_CORS_ENABLED",
		Type:    boolType,
		Help:    "Enable CORS",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors.allowed_origins",
		Default: []string{"http://localhost:3000", "http://localhost:5173"},
		CLIFlag: "cors-allowed-origins",
		EnvVar:  "SERVER_CORS_ALLOWED_ORIGINS",
		Type:    sliceType,
		Help:    "Allowed CORS origins (comma-separated)",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors.allow_credentials",
		Default: true,
		CLIFlag: "cors-allow-credentials",
		EnvVar:  "SERVER_CORS_ALLOW_CREDENTIALS",
		Type:    boolType,
		Help:    "Allow credentials in CORS requests",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors.max_age",
		Default: 86400,
		CLIFlag: "cors-max-age",
		EnvVar:  "SERVER_CORS_MAX_AGE",
		Type:    intType,
		Help:    "CORS preflight max age in seconds",
	})
}

func registerServerHTTPFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "server.body_limit",
		Default: int64(4 << 20),
		CLIFlag: "body-limit",
		EnvVar:  "SERVER_BODY_LIMIT",
		Type:    int64Type,
		Help:    "Maximum accepted request body in bytes",
	})
	registry.Register(&FieldDef{
		Path:    "server.read_timeout",
		Default: 15 * time.Second,
		EnvVar:  "SERVER_READ_TIMEOUT",
		Type:    durationType,
		Help:    "HTTP server read timeout",
	})
	registry.Register(&FieldDef{
		Path:    "server.write_timeout",
		Default: 60 * time.Second,
		EnvVar:  "SERVER_WRITE_TIMEOUT",
		Type:    durationType,
		Help:    "HTTP server write timeout",
	})
	registry.Register(&FieldDef{
		Path:    "server.shutdown_timeout",
		Default: 30 * time.Second,
		EnvVar:  "SERVER_SHUTDOWN_TIMEOUT",
		Type:    durationType,
		Help:    "Grace period for in-flight requests and deployment tasks on shutdown",
	})
}

func registerStorageFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:      "storage.data_dir",
		Default:   "./data",
		CLIFlag:   "data-dir",
		Shorthand: "d",
		EnvVar:    "STORAGE_DATA_DIR",
		Type:      stringType,
		Help:      "Directory holding profiles, history, deployments and local secrets",
	})
	registry.Register(&FieldDef{
		Path:    "storage.history_retention",
		Default: 50,
		CLIFlag: "history-retention",
		EnvVar:  "STORAGE_HISTORY_RETENTION",
		Type:    intType,
		Help:    "Generation history entries to keep (0 keeps all)",
	})
}

func registerRateLimitFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "ratelimit.enabled",
		Default: true,
		CLIFlag: "rate-limit",
		EnvVar:  "RATELIMIT_ENABLED",
		Type:    boolType,
		Help:    "Enable per-client API rate limiting",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.global_rate.limit",
		Default: int64(300),
		EnvVar:  "RATELIMIT_GLOBAL_LIMIT",
		Type:    int64Type,
		Help:    "Requests allowed per client within one period",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.global_rate.period",
		Default: time.Minute,
		EnvVar:  "RATELIMIT_GLOBAL_PERIOD",
		Type:    durationType,
		Help:    "Rate limit window",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.prefix",
		Default: "configurator:ratelimit:",
		EnvVar:  "RATELIMIT_PREFIX",
		Type:    stringType,
		Help:    "Key prefix for limiter buckets",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.exclude_paths",
		Default: []string{"/health", "/metrics"},
		EnvVar:  "RATELIMIT_EXCLUDE_PATHS",
		Type:    sliceType,
		Help:    "Paths never rate limited (comma-separated)",
	})
}

func registerDeployFields(registry *Registry) {
	registerDeployWorkerFields(registry)
	registerDeployHealthFields(registry)
	registerDeployWebhookFields(registry)
}

func registerDeployWorkerFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "deploy.queue_size",
		Default: 64,
		EnvVar:  "DEPLOY_QUEUE_SIZE",
		Type:    intType,
		Help:    "Pending deployment tasks accepted before requests are refused",
	})
	registry.Register(&FieldDef{
		Path:    "deploy.concurrency",
		Default: 2,
		CLIFlag: "deploy-concurrency",
		EnvVar:  "DEPLOY_CONCURRENCY",
		Type:    intType,
		Help:    "Deployment tasks processed in parallel",
	})
	registry.Register(&FieldDef{
		Path:    "deploy.task_timeout",
		Default: 2 * time.Minute,
		EnvVar:  "DEPLOY_TASK_TIMEOUT",
		Type:    durationType,
		Help:    "Upper bound for a single deployment task",
	})
	registry.Register(&FieldDef{
		Path:    "deploy.health_sweep",
		Default: "@every 5m",
		CLIFlag: "health-sweep",
		EnvVar:  "DEPLOY_HEALTH_SWEEP",
		Type:    stringType,
		Help:    "Cron schedule for health checks of running deployments (empty disables)",
	})
}

func registerDeployHealthFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "deploy.health.timeout",
		Default: 5 * time.Second,
		EnvVar:  "DEPLOY_HEALTH_TIMEOUT",
		Type:    durationType,
		Help:    "Timeout of one health check",
	})
	registry.Register(&FieldDef{
		Path:    "deploy.health.max_retries",
		Default: 2,
		EnvVar:  "DEPLOY_HEALTH_MAX_RETRIES",
		Type:    intType,
		Help:    "Retries after a failed health check",
	})
	registry.Register(&FieldDef{
		Path:    "deploy.health.backoff",
		Default: 250 * time.Millisecond,
		EnvVar:  "DEPLOY_HEALTH_BACKOFF",
		Type:    durationType,
		Help:    "Initial backoff between health check retries",
	})
	registry.Register(&FieldDef{
		Path:    "deploy.health.concurrency",
		Default: 4,
		EnvVar:  "DEPLOY_HEALTH_CONCURRENCY",
		Type:    intType,
		Help:    "URLs checked in parallel for one deployment",
	})
}

func registerDeployWebhookFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "deploy.webhook.url",
		Default: "",
		CLIFlag: "webhook-url",
		EnvVar:  "DEPLOY_WEBHOOK_URL",
		Type:    stringType,
		Help:    "Endpoint receiving generated packages; enables the webhook platform",
	})
	registry.Register(&FieldDef{
		Path:      "deploy.webhook.token",
		Default:   "",
		EnvVar:    "DEPLOY_WEBHOOK_TOKEN",
		Type:      stringType,
		Help:      "Bearer token sent to the webhook platform",
		Sensitive: true,
	})
	registry.Register(&FieldDef{
		Path:    "deploy.webhook.timeout",
		Default: 30 * time.Second,
		EnvVar:  "DEPLOY_WEBHOOK_TIMEOUT",
		Type:    durationType,
		Help:    "Webhook request timeout",
	})
	registry.Register(&FieldDef{
		Path:    "deploy.webhook.retry_count",
		Default: 3,
		EnvVar:  "DEPLOY_WEBHOOK_RETRY_COUNT",
		Type:    intType,
		Help:    "Webhook retries on 5xx, 408 and 429 responses",
	})
}

func registerRuntimeFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "runtime.environment",
		Default: "development",
		EnvVar:  "RUNTIME_ENVIRONMENT",
		Type:    stringType,
		Help:    "Runtime environment: development|staging|production",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_level",
		Default: "info",
		CLIFlag: "log-level",
		EnvVar:  "RUNTIME_LOG_LEVEL",
		Type:    stringType,
		Help:    "Log level: debug|info|warn|error",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_json",
		Default: false,
		CLIFlag: "log-json",
		EnvVar:  "RUNTIME_LOG_JSON",
		Type:    boolType,
		Help:    "Emit logs as JSON",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_source",
		Default: false,
		CLIFlag: "log-source",
		EnvVar:  "RUNTIME_LOG_SOURCE",
		Type:    boolType,
		Help:    "Include source locations in log lines",
	})
}

func registerMonitoringFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "monitoring.enabled",
		Default: true,
		CLIFlag: "metrics",
		EnvVar:  "MONITORING_ENABLED",
		Type:    boolType,
		Help:    "Expose Prometheus metrics",
	})
	registry.Register(&FieldDef{
		Path:    "monitoring.path",
		Default: "/metrics",
		EnvVar:  "MONITORING_PATH",
		Type:    stringType,
		Help:    "HTTP path for the metrics endpoint",
	})
}
