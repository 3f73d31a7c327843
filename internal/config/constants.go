package config

import "time"

// Application constants
const (
	AppName    = "Retention Pulse"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. RETENTION_SERVER_PORT.
	EnvPrefix = "RETENTION"
	// ConfigFileEnv points at an optional YAML configuration file.
	ConfigFileEnv = "RETENTION_CONFIG_FILE"

	// Source kinds
	SourceKindLocal = "local"
	SourceKindS3    = "s3"

	// Assistant providers
	AssistantAzure   = "azure"
	AssistantBedrock = "bedrock"

	// Cache Settings
	DatasetCacheTTL    = 5 * time.Minute
	DatasetLoadTimeout = 2 * time.Minute

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second
	AssistantTimeout   = 10 * time.Second

	// Assistant defaults
	DefaultDeployment     = "gpt-4o-mini"
	DefaultAPIVersion     = "2024-02-15-preview"
	DefaultBedrockModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	DefaultMaxTokens      = 150
	DefaultTemperature    = 0.3
	DefaultTopP           = 0.95
	DefaultSystemPrompt   = "Eres asistente de análisis de retención. Responde en español, máximo 2-3 líneas, directo."

	// Dashboard defaults
	DefaultStartDate     = "2024-11-24"
	DefaultMaxUploadSize = 32 << 20 // 32MB

	// Storage defaults
	DefaultDataDir   = "data"
	DefaultAWSRegion = "us-east-1"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/app.log"

	// API Endpoints
	APIBasePath     = "/api"
	HealthEndpoint  = "/api/health"
	MetricsEndpoint = "/metrics"
)
