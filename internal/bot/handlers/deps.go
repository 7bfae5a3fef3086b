// Package handlers implements the Telegram handlers used in polling mode.
package handlers

import (
	"log/slog"

	"github.com/edgard/relaychat/internal/config"
	"github.com/edgard/relaychat/internal/relay"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Relay  *relay.Service
}
