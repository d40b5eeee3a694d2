package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server             ServerConfig             `mapstructure:"server"`
	Auth               AuthConfig               `mapstructure:"auth"`
	CORS               CORSConfig               `mapstructure:"cors"`
	RateLimit          RateLimitConfig          `mapstructure:"rate_limit"`
	Redis              RedisConfig              `mapstructure:"redis"`
	Supabase           SupabaseConfig           `mapstructure:"supabase"`
	Queue              QueueConfig              `mapstructure:"queue"`
	RecipientRateLimit RecipientRateLimitConfig `mapstructure:"recipient_rate_limit"`
	Dispatch           DispatchConfig           `mapstructure:"dispatch"`
	Providers          ProvidersConfig          `mapstructure:"providers"`
	Sweeper            SweeperConfig            `mapstructure:"sweeper"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// RateLimitConfig holds per-IP API rate limiting settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SupabaseConfig holds Supabase project settings.
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

// QueueConfig holds async queue settings for deferred dispatches.
type QueueConfig struct {
	Concurrency   int `mapstructure:"concurrency"`
	MaxRetry      int `mapstructure:"max_retry"`
	RetryDelaySec int `mapstructure:"retry_delay_sec"`
}

// RecipientRateLimitConfig holds per-recipient rate limiting settings.
type RecipientRateLimitConfig struct {
	MaxPerHour int `mapstructure:"max_per_hour"`
}

// DispatchConfig holds orchestrator settings.
type DispatchConfig struct {
	// ProviderTimeoutSec bounds a single provider call; a slow channel must
	// not delay status collection for the others.
	ProviderTimeoutSec int `mapstructure:"provider_timeout_sec"`

	// Locale drives digit grouping for currency and number variables when
	// the recipient carries no language of their own.
	Locale string `mapstructure:"locale"`

	// CurrencyUnit is the suffix appended to currency-formatted variables.
	CurrencyUnit string `mapstructure:"currency_unit"`
}

// ProvidersConfig selects one active vendor per channel. A channel left
// unconfigured is absent from the registry and attempts on it fail with a
// configuration error status.
type ProvidersConfig struct {
	Email    EmailProviderConfig    `mapstructure:"email"`
	SMS      SMSProviderConfig      `mapstructure:"sms"`
	Push     PushProviderConfig     `mapstructure:"push"`
	WhatsApp WhatsAppProviderConfig `mapstructure:"whatsapp"`
	Telegram TelegramProviderConfig `mapstructure:"telegram"`
	Webhook  WebhookProviderConfig  `mapstructure:"webhook"`
}

// EmailProviderConfig holds email vendor settings.
type EmailProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// SMSProviderConfig holds SMS vendor settings. Vendors are interchangeable;
// exactly one is active per deployment.
type SMSProviderConfig struct {
	Provider   string `mapstructure:"provider"`
	APIKey     string `mapstructure:"api_key"`     // kavenegar
	AccountSID string `mapstructure:"account_sid"` // twilio
	AuthToken  string `mapstructure:"auth_token"`  // twilio
	FromNumber string `mapstructure:"from_number"`
	AWSRegion  string `mapstructure:"aws_region"` // sns
}

// PushProviderConfig holds push vendor settings.
type PushProviderConfig struct {
	Provider  string `mapstructure:"provider"`
	ServerKey string `mapstructure:"server_key"`
}

// WhatsAppProviderConfig holds WhatsApp Cloud API settings.
type WhatsAppProviderConfig struct {
	Provider      string `mapstructure:"provider"`
	AccessToken   string `mapstructure:"access_token"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
}

// TelegramProviderConfig holds Telegram bot settings.
type TelegramProviderConfig struct {
	Provider string `mapstructure:"provider"`
	BotToken string `mapstructure:"bot_token"`
}

// WebhookProviderConfig holds generic webhook settings.
type WebhookProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	SharedSecret string `mapstructure:"shared_secret"`
}

// SweeperConfig holds expiry sweeper settings (durations as seconds for YAML/env compat).
type SweeperConfig struct {
	IntervalSec int `mapstructure:"interval_sec"`
	BatchSize   int `mapstructure:"batch_size"`
}

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the DINENOTIFY_ prefix and underscore separators.
// Example: DINENOTIFY_SERVER_PORT overrides server.port in config.yaml.
func Load() (*Config, error) {
	v := viper.New()

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Load .env file if it exists
	_ = godotenv.Load()

	// Environment variable settings
	v.SetEnvPrefix("DINENOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.max_retry", 5)
	v.SetDefault("queue.retry_delay_sec", 30)
	v.SetDefault("recipient_rate_limit.max_per_hour", 30)
	v.SetDefault("dispatch.provider_timeout_sec", 10)
	v.SetDefault("dispatch.locale", "fa")
	v.SetDefault("dispatch.currency_unit", "تومان")
	v.SetDefault("providers.email.provider", "resend")
	v.SetDefault("providers.sms.provider", "kavenegar")
	v.SetDefault("providers.push.provider", "fcm")
	v.SetDefault("providers.whatsapp.provider", "meta")
	v.SetDefault("providers.telegram.provider", "telegram")
	v.SetDefault("providers.webhook.provider", "webhook")
	v.SetDefault("sweeper.interval_sec", 300)
	v.SetDefault("sweeper.batch_size", 100)

	// Read config file (optional — env vars can provide everything)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Handle comma-separated API keys from env var
	if apiKeysStr := v.GetString("auth.api_keys"); apiKeysStr != "" && len(cfg.Auth.APIKeys) == 0 {
		keys := strings.Split(apiKeysStr, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
		cfg.Auth.APIKeys = keys
	}

	return &cfg, nil
}
