package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration.
const (
	DefaultLogLevel = "info"

	DefaultTelegramAPIURL         = "https://api.telegram.org"
	DefaultTelegramRequestTimeout = 10 * time.Second
	DefaultTelegramMode           = "webhook"
	DefaultTelegramGreeting       = "Hello %s! Your message has been received in the chat app. 👋"

	DefaultServerAddr            = ":3000"
	DefaultServerShutdownTimeout = 10 * time.Second
	DefaultServerRequestTimeout  = 30 * time.Second

	DefaultStoreDriver     = "memory"
	DefaultStoreCapacity   = 100
	DefaultStoreSQLitePath = "relaychat.db"

	DefaultNotifyTemplate = "New message from %s: %s"
	DefaultNotifyWorkers  = 4

	// Scheduler task names, matched against the task registry.
	TaskWebhookStatus  = "webhook_status"
	TaskSQLMaintenance = "sql_maintenance"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.api_url", DefaultTelegramAPIURL)
	v.SetDefault("telegram.request_timeout", DefaultTelegramRequestTimeout)
	v.SetDefault("telegram.mode", DefaultTelegramMode)
	v.SetDefault("telegram.greeting", DefaultTelegramGreeting)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.request_timeout", DefaultServerRequestTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("store.driver", DefaultStoreDriver)
	v.SetDefault("store.capacity", DefaultStoreCapacity)
	v.SetDefault("store.sqlite_path", DefaultStoreSQLitePath)

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.template", DefaultNotifyTemplate)
	v.SetDefault("notify.workers", DefaultNotifyWorkers)

	v.SetDefault("scheduler.tasks", map[string]any{
		TaskWebhookStatus:  map[string]any{"enabled": false, "schedule": "0 */15 * * * *"},
		TaskSQLMaintenance: map[string]any{"enabled": false, "schedule": "0 0 4 * * *"},
	})
}

// legacyEnv maps config keys to the environment names the original deployment used.
var legacyEnv = map[string]string{
	"telegram.bot_token":      "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":        "TELEGRAM_CHAT_ID",
	"telegram.webhook_secret": "WEBHOOK_SECRET",
	"server.base_url":         "BASE_URL",
	"log.level":               "LOG_LEVEL",
}
