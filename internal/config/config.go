package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Assistant AssistantConfig `yaml:"assistant" envconfig:"ASSISTANT"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// RequestTimeout bounds every /api request, including a cold dataset load.
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SourceConfig selects where survey spreadsheets are read from. The AWS
// keys are optional; without them the default credential chain is used.
type SourceConfig struct {
	Kind            string `yaml:"kind" envconfig:"KIND"`
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR"`
	Bucket          string `yaml:"bucket" envconfig:"S3_BUCKET"`
	Prefix          string `yaml:"prefix" envconfig:"S3_PREFIX"`
	Region          string `yaml:"region" envconfig:"AWS_REGION"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"AWS_SECRET_ACCESS_KEY"`
	// Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack.
	Endpoint     string `yaml:"endpoint" envconfig:"S3_ENDPOINT"`
	UsePathStyle bool   `yaml:"use_path_style" envconfig:"S3_USE_PATH_STYLE"`
}

// CacheConfig controls the dataset cache
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"TTL"`
	// LoadTimeout bounds one source load once every waiting request has gone.
	LoadTimeout time.Duration `yaml:"load_timeout" envconfig:"LOAD_TIMEOUT"`
}

// AssistantConfig configures the Q&A provider
type AssistantConfig struct {
	Provider       string        `yaml:"provider" envconfig:"PROVIDER"`
	AzureEndpoint  string        `yaml:"azure_endpoint" envconfig:"AZURE_OPENAI_ENDPOINT"`
	AzureAPIKey    string        `yaml:"azure_api_key" envconfig:"AZURE_OPENAI_API_KEY"`
	Deployment     string        `yaml:"deployment" envconfig:"DEPLOYMENT_NAME"`
	APIVersion     string        `yaml:"api_version" envconfig:"API_VERSION"`
	BedrockModelID string        `yaml:"bedrock_model_id" envconfig:"BEDROCK_MODEL_ID"`
	BedrockRegion  string        `yaml:"bedrock_region" envconfig:"BEDROCK_REGION"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	MaxTokens      int           `yaml:"max_tokens" envconfig:"MAX_TOKENS"`
	Temperature    float64       `yaml:"temperature" envconfig:"TEMPERATURE"`
	TopP           float64       `yaml:"top_p" envconfig:"TOP_P"`
	SystemPrompt   string        `yaml:"system_prompt" envconfig:"SYSTEM_PROMPT"`
}

// AzureConfigured reports whether the Azure OpenAI endpoint and key are set.
func (a AssistantConfig) AzureConfigured() bool {
	return a.AzureEndpoint != "" && a.AzureAPIKey != ""
}

// DashboardConfig holds presentation defaults
type DashboardConfig struct {
	// DefaultStartDate is the first cutoff date shown unless the caller asks otherwise.
	DefaultStartDate string `yaml:"default_start_date" envconfig:"DEFAULT_START_DATE"`
	MaxUploadSize    int64  `yaml:"max_upload_size" envconfig:"MAX_UPLOAD_SIZE"`
	EnableUpload     bool   `yaml:"enable_upload" envconfig:"ENABLE_UPLOAD"`
}

// StartDate parses DefaultStartDate, returning the zero time when unset.
func (d DashboardConfig) StartDate() time.Time {
	t, err := time.Parse("2006-01-02", d.DefaultStartDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TelemetryConfig controls OpenTelemetry export
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TracesToStdout bool   `yaml:"traces_to_stdout" envconfig:"TRACES_TO_STDOUT"`
}

// Load builds the configuration from defaults, then the optional YAML
// file, then environment variables. Later layers win.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Nested fields read RETENTION_<SECTION>_<NAME> first and fall back to the
	// bare tag, so AZURE_OPENAI_ENDPOINT or AWS_REGION work unprefixed.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	switch c.Source.Kind {
	case SourceKindLocal:
		if c.Source.DataDir == "" {
			return fmt.Errorf("data directory is required for the local source")
		}
	case SourceKindS3:
		if c.Source.Bucket == "" {
			return fmt.Errorf("bucket is required for the s3 source")
		}
		if c.Source.Region == "" {
			c.Source.Region = DefaultAWSRegion
		}
	default:
		return fmt.Errorf("invalid source kind %q: must be %s or %s", c.Source.Kind, SourceKindLocal, SourceKindS3)
	}

	if (c.Source.AccessKeyID == "") != (c.Source.SecretAccessKey == "") {
		return fmt.Errorf("aws access key id and secret access key must be set together")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.Cache.LoadTimeout <= 0 {
		return fmt.Errorf("cache load timeout must be positive")
	}

	c.Assistant.Provider = strings.ToLower(strings.TrimSpace(c.Assistant.Provider))
	if c.Assistant.Provider != AssistantAzure && c.Assistant.Provider != AssistantBedrock {
		return fmt.Errorf("invalid assistant provider %q", c.Assistant.Provider)
	}
	if c.Assistant.Timeout <= 0 {
		return fmt.Errorf("assistant timeout must be positive")
	}
	// the endpoint is joined with a relative path
	if c.Assistant.AzureEndpoint != "" && !strings.HasSuffix(c.Assistant.AzureEndpoint, "/") {
		c.Assistant.AzureEndpoint += "/"
	}

	if c.Dashboard.DefaultStartDate != "" {
		if _, err := time.Parse("2006-01-02", c.Dashboard.DefaultStartDate); err != nil {
			return fmt.Errorf("invalid dashboard default start date %q: %w", c.Dashboard.DefaultStartDate, err)
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		c.Logging.Format = DefaultLogFormat
	}
	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// SourceDescriptor identifies the configured source for cache keys and logs.
func (c *Config) SourceDescriptor() string {
	if c.Source.Kind == SourceKindS3 {
		return fmt.Sprintf("s3://%s/%s", c.Source.Bucket, c.Source.Prefix)
	}
	return "local:" + c.Source.DataDir
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultHTTPTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Source: SourceConfig{
			Kind:    SourceKindLocal,
			DataDir: DefaultDataDir,
			Region:  DefaultAWSRegion,
		},
		Cache: CacheConfig{
			TTL:         DatasetCacheTTL,
			LoadTimeout: DatasetLoadTimeout,
		},
		Assistant: AssistantConfig{
			Provider:       AssistantAzure,
			Deployment:     DefaultDeployment,
			APIVersion:     DefaultAPIVersion,
			BedrockModelID: DefaultBedrockModelID,
			Timeout:        AssistantTimeout,
			MaxTokens:      DefaultMaxTokens,
			Temperature:    DefaultTemperature,
			TopP:           DefaultTopP,
			SystemPrompt:   DefaultSystemPrompt,
		},
		Dashboard: DashboardConfig{
			DefaultStartDate: DefaultStartDate,
			MaxUploadSize:    DefaultMaxUploadSize,
			EnableUpload:     true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "retentionpulse",
			MetricsEnabled: true,
		},
	}
}
