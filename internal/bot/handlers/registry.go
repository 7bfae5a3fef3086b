package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/relaychat/internal/telegram"
)

// RegisterAllCommands returns the bot commands keyed by name. Plain text is
// handled by NewRelayHandler, installed as the default handler.
func RegisterAllCommands(deps HandlerDeps) map[string]telegram.RegisteredHandler {
	handlers := make(map[string]telegram.RegisteredHandler)

	handlers["/start"] = telegram.RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/chatid"] = telegram.RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "chatid",
		Handler:     NewChatIDHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	return handlers
}
