package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileEnv names an optional YAML file whose keys mirror the
// environment variable names in lower case.
const ConfigFileEnv = "SELFSPEAK_CONFIG"

// Config holds application configuration
type Config struct {
	DatabaseURL     string        `mapstructure:"database_url"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	ServerPort      string        `mapstructure:"server_port"`
	FrontendURL     string        `mapstructure:"frontend_url"`
	EnableHSTS      bool          `mapstructure:"enable_hsts"`
	ServerDebugMode bool          `mapstructure:"server_debug_mode"`
	LogFormat       string        `mapstructure:"log_format"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`

	OpenAIKey      string        `mapstructure:"openai_api_key"`
	AIModel        string        `mapstructure:"ai_model"`
	AIBaseURL      string        `mapstructure:"ai_base_url"`
	AITemperature  float64       `mapstructure:"ai_temperature"`
	AIMaxRetries   int           `mapstructure:"ai_max_retries"`
	AIRetryBackoff time.Duration `mapstructure:"ai_retry_backoff"`
	AITimeout      time.Duration `mapstructure:"ai_timeout"`

	WeeklyAnalysisLimit int `mapstructure:"weekly_analysis_limit"`

	JWTSecret     string        `mapstructure:"supabase_jwt_secret"`
	JWKSURL       string        `mapstructure:"jwks_url"`
	JWTIssuer     string        `mapstructure:"jwt_issuer"`
	JWTAudience   string        `mapstructure:"jwt_audience"`
	AuthCacheSize int           `mapstructure:"auth_cache_size"`
	AuthCacheTTL  time.Duration `mapstructure:"auth_cache_ttl"`

	RedisURL  string `mapstructure:"redis_url"`
	RateLimit string `mapstructure:"rate_limit"`

	RabbitMQURL           string        `mapstructure:"rabbitmq_url"`
	RabbitMQExchange      string        `mapstructure:"rabbitmq_exchange"`
	RabbitMQWarmerQueue   string        `mapstructure:"rabbitmq_warmer_queue"`
	RabbitMQPrefetch      int           `mapstructure:"rabbitmq_prefetch"`
	RabbitMQDeadLetterTTL time.Duration `mapstructure:"rabbitmq_dead_letter_ttl"`
	WorkerDebugMode       bool          `mapstructure:"worker_debug_mode"`

	OTELEnabled     bool    `mapstructure:"otel_enabled"`
	OTELEndpoint    string  `mapstructure:"otel_exporter_otlp_endpoint"`
	OTELInsecure    bool    `mapstructure:"otel_insecure"`
	OTELSampleRatio float64 `mapstructure:"otel_sample_ratio"`
	MetricsEnabled  bool    `mapstructure:"metrics_enabled"`
}

var defaults = map[string]any{
	"database_url":                "",
	"auto_migrate":                false,
	"server_port":                 "8080",
	"frontend_url":                "http://localhost:3000",
	"enable_hsts":                 false,
	"server_debug_mode":           false,
	"log_format":                  "json",
	"request_timeout":             "30s",
	"openai_api_key":              "",
	"ai_model":                    "gpt-4o-mini",
	"ai_base_url":                 "",
	"ai_temperature":              0.4,
	"ai_max_retries":              1,
	"ai_retry_backoff":            "500ms",
	"ai_timeout":                  "30s",
	"weekly_analysis_limit":       2,
	"supabase_jwt_secret":         "",
	"jwks_url":                    "",
	"jwt_issuer":                  "",
	"jwt_audience":                "",
	"auth_cache_size":             1024,
	"auth_cache_ttl":              "5m",
	"redis_url":                   "",
	"rate_limit":                  "5-S",
	"rabbitmq_url":                "",
	"rabbitmq_exchange":           "selfspeak_events",
	"rabbitmq_warmer_queue":       "selfspeak_insight_warmer",
	"rabbitmq_prefetch":           1,
	"rabbitmq_dead_letter_ttl":    "24h",
	"worker_debug_mode":           false,
	"otel_enabled":                false,
	"otel_exporter_otlp_endpoint": "",
	"otel_insecure":               true,
	"otel_sample_ratio":           1.0,
	"metrics_enabled":             true,
}

// Load loads configuration from environment variables and, if present,
// a config file. Environment variables win over the file.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase loads configuration for tools that only touch the store,
// requiring DATABASE_URL but none of the serving settings.
func LoadDatabase() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// LoadWorker loads configuration for the event worker, which needs the
// store and the broker but does not verify tokens.
func LoadWorker() (*Config, error) {
	cfg, err := LoadDatabase()
	if err != nil {
		return nil, err
	}
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required")
	}
	if cfg.RabbitMQPrefetch < 1 {
		return nil, fmt.Errorf("RABBITMQ_PREFETCH must be at least 1, got %d", cfg.RabbitMQPrefetch)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

func read() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("selfspeak")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that all required configuration values are present
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" && c.JWKSURL == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET or JWKS_URL is required to verify bearer tokens")
	}
	if c.WeeklyAnalysisLimit < 1 {
		return fmt.Errorf("WEEKLY_ANALYSIS_LIMIT must be at least 1, got %d", c.WeeklyAnalysisLimit)
	}
	if c.AIMaxRetries < 0 {
		return fmt.Errorf("AI_MAX_RETRIES must not be negative, got %d", c.AIMaxRetries)
	}
	if c.AITemperature < 0 || c.AITemperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be between 0 and 2, got %v", c.AITemperature)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	if c.OTELEnabled && c.OTELEndpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set")
	}
	if c.AuthCacheSize < 1 {
		return fmt.Errorf("AUTH_CACHE_SIZE must be at least 1, got %d", c.AuthCacheSize)
	}
	return nil
}

// FrontendOrigins splits FrontendURL into the allowed CORS origins.
func (c *Config) FrontendOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Redacted returns a copy safe to print, with secrets and credentials masked.
func (c *Config) Redacted() Config {
	out := *c
	out.DatabaseURL = redactURL(c.DatabaseURL)
	out.RedisURL = redactURL(c.RedisURL)
	out.RabbitMQURL = redactURL(c.RabbitMQURL)
	out.OpenAIKey = mask(c.OpenAIKey)
	out.JWTSecret = mask(c.JWTSecret)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

// redactURL hides the userinfo part of a connection URL.
func redactURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return raw
	}
	return scheme + "://****@" + rest[at+1:]
}
