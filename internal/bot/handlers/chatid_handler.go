package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewChatIDHandler returns a handler for the /chatid command, which replies
// with the id to configure as the notification destination.
func NewChatIDHandler(deps HandlerDeps) bot.HandlerFunc {
	return chatIDHandler{deps}.Handle
}

type chatIDHandler struct {
	deps HandlerDeps
}

func (h chatIDHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "chatid")

	if update.Message == nil {
		log.WarnContext(ctx, "Chat id handler received update with nil message", "update_id", update.ID)
		return
	}
	chat := update.Message.Chat

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chat.ID,
		Text:   chatIDMessage(chat),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send chat id", "error", err, "chat_id", chat.ID)
	}
}

func chatIDMessage(chat models.Chat) string {
	return fmt.Sprintf("This chat's id is %d (%s). Set it as TELEGRAM_CHAT_ID to receive web chat notifications here.",
		chat.ID, chat.Type)
}
