package config

import "time"

// Config represents the complete cakeday configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service" json:"service"`
	Webhook   WebhookConfig   `yaml:"webhook" json:"webhook"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Reminders RemindersConfig `yaml:"reminders" json:"reminders"`

	// SourceFile is the absolute path the config was read from, or "" when
	// running from the environment alone.
	SourceFile string `yaml:"-" json:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name" json:"name" env:"CAKEDAY_SERVICE_NAME"`
	LogLevel  string `yaml:"log_level" json:"log_level" env:"CAKEDAY_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" json:"log_format" env:"CAKEDAY_LOG_FORMAT"`
}

// WebhookConfig defines the interactions endpoint.
type WebhookConfig struct {
	Listen string `yaml:"listen" json:"listen" env:"CAKEDAY_LISTEN"`
	Path   string `yaml:"path" json:"path" env:"CAKEDAY_WEBHOOK_PATH"`

	// PublicKey is the application's hex-encoded Ed25519 public key.
	PublicKey string `yaml:"public_key" json:"public_key" env:"DISCORD_PUBLIC_KEY"`

	MaxBodySize   string        `yaml:"max_body_size" json:"max_body_size" env:"CAKEDAY_MAX_BODY_SIZE"`
	SignatureSkew time.Duration `yaml:"signature_skew" json:"signature_skew" env:"CAKEDAY_SIGNATURE_SKEW"`
}

// StoreConfig defines the PostgREST birthday store.
type StoreConfig struct {
	URL          string        `yaml:"url" json:"url" env:"SUPABASE_URL"`
	ServiceKey   string        `yaml:"service_key" json:"service_key" env:"SUPABASE_SERVICE_ROLE_KEY"`
	Table        string        `yaml:"table" json:"table" env:"CAKEDAY_STORE_TABLE"`
	SentLogTable string        `yaml:"sent_log_table" json:"sent_log_table" env:"CAKEDAY_SENT_LOG_TABLE"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" env:"CAKEDAY_STORE_TIMEOUT"`
}

// RemindersConfig defines the daily birthday reminder job.
type RemindersConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled" env:"CAKEDAY_REMINDERS_ENABLED"`
	Schedule string `yaml:"schedule" json:"schedule" env:"CAKEDAY_REMINDER_SCHEDULE"`
	Timezone string `yaml:"timezone" json:"timezone" env:"CAKEDAY_TIMEZONE"`
	BotToken string `yaml:"bot_token" json:"bot_token" env:"DISCORD_BOT_TOKEN"`
	APIBase  string `yaml:"api_base" json:"api_base" env:"DISCORD_API_BASE"`

	// LockFile serializes runs on this host. Empty selects a file in the
	// system temp directory.
	LockFile string `yaml:"lock_file" json:"lock_file" env:"CAKEDAY_REMINDER_LOCK"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "cakeday",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Webhook: WebhookConfig{
			Listen:        "127.0.0.1:8787",
			Path:          "/interactions",
			MaxBodySize:   "1MB",
			SignatureSkew: 300 * time.Second,
		},
		Store: StoreConfig{
			Table:        "birthdays",
			SentLogTable: "sent_log",
			Timeout:      2500 * time.Millisecond,
		},
		Reminders: RemindersConfig{
			Enabled:  false,
			Schedule: "0 9 * * *",
			Timezone: "America/Chicago",
			APIBase:  "https://discord.com/api/v10",
		},
	}
}
