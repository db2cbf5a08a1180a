package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Payments PaymentsConfig `mapstructure:"payments"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Journal  JournalConfig  `mapstructure:"journal"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type PaymentsConfig struct {
	URL              string        `mapstructure:"url"`
	APIKey           string        `mapstructure:"api_key"`
	WebhookSecret    string        `mapstructure:"webhook_secret"`
	WebhookTolerance time.Duration `mapstructure:"webhook_tolerance"`
	Timeout          time.Duration `mapstructure:"timeout"`
	SuccessURL       string        `mapstructure:"success_url"`
	CancelURL        string        `mapstructure:"cancel_url"`
}

type VoiceConfig struct {
	URL         string        `mapstructure:"url"`
	APIKey      string        `mapstructure:"api_key"`
	AgentID     string        `mapstructure:"agent_id"`
	PhoneNumber string        `mapstructure:"phone_number"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	SeenTTL time.Duration `mapstructure:"seen_ttl"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	NatsURL string `mapstructure:"nats_url"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file and the environment.
// Environment variables use the RELAY_ prefix (RELAY_PAYMENTS_WEBHOOK_SECRET,
// RELAY_SERVER_PORT, ...) and override file values. The returned Config is
// never mutated after Load.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("payments.url", "https://api.payments.example.com")
	// Secrets and identifiers default to empty so viper registers the keys;
	// without registration env-only values never reach Unmarshal.
	v.SetDefault("payments.api_key", "")
	v.SetDefault("payments.webhook_secret", "")
	v.SetDefault("payments.webhook_tolerance", "5m")
	v.SetDefault("payments.timeout", "10s")
	v.SetDefault("payments.success_url", "https://app.voicebridge.io/billing/success")
	v.SetDefault("payments.cancel_url", "https://app.voicebridge.io/billing/cancel")
	v.SetDefault("voice.url", "https://api.voice.example.com")
	v.SetDefault("voice.api_key", "")
	v.SetDefault("voice.agent_id", "")
	v.SetDefault("voice.phone_number", "")
	v.SetDefault("voice.timeout", "15s")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.seen_ttl", "72h")
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.nats_url", "nats://localhost:4222")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/voicebridge/relay")
	}

	v.SetEnvPrefix("RELAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file; defaults plus environment apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the fields the relay cannot run without. Secrets are
// checked for presence only and never included in the error text.
func (c *Config) Validate() error {
	if c.Payments.WebhookSecret == "" {
		return fmt.Errorf("payments.webhook_secret is required")
	}
	if c.Payments.APIKey == "" {
		return fmt.Errorf("payments.api_key is required")
	}
	if c.Voice.APIKey == "" {
		return fmt.Errorf("voice.api_key is required")
	}
	return nil
}
