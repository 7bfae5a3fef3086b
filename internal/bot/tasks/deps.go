// Package tasks implements the relay's scheduled tasks.
package tasks

import (
	"log/slog"

	"github.com/edgard/relaychat/internal/config"
	"github.com/edgard/relaychat/internal/database"
	"github.com/edgard/relaychat/internal/telegram"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Webhooks *telegram.WebhookManager
	Config   *config.Config
}
