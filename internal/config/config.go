// Package config loads, defaults, and validates relaychat configuration.
// A single Config is built at process start and passed to every component;
// nothing below cmd/ reads the process environment.
package config

import "time"

// Config is the complete application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credential, default destination and API settings.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"       validate:"required_if=Mode polling"`
	ChatID         string        `mapstructure:"chat_id"`
	WebhookSecret  string        `mapstructure:"webhook_secret"  validate:"omitempty,max=256"`
	APIURL         string        `mapstructure:"api_url"         validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=2m"`
	Mode           string        `mapstructure:"mode"            validate:"oneof=webhook polling none"`
	Greeting       string        `mapstructure:"greeting"        validate:"required"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	BaseURL         string        `mapstructure:"base_url"         validate:"omitempty,url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=5m"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  validate:"min=1s,max=10m"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// StoreConfig selects and sizes the message store.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"      validate:"oneof=memory sqlite"`
	Capacity   int    `mapstructure:"capacity"    validate:"min=1,max=10000"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
}

// NotifyConfig controls notifications for locally posted messages.
type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Template string `mapstructure:"template" validate:"required"`
	Workers  int    `mapstructure:"workers"  validate:"min=1,max=64"`
}

// SchedulerConfig lists the periodic tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig is a single scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// HasCredential reports whether a bot token is configured.
func (c *Config) HasCredential() bool {
	return c.Telegram.BotToken != ""
}
