package telegram

import (
	"fmt"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaychat/internal/database"
)

// SenderMarker is appended to the display name of Telegram senders.
const SenderMarker = "(Telegram)"

// TranslateUpdate converts an inbound update into a chat message. The second
// return is false when the update has no text message to relay, e.g. photos,
// edits and channel posts. now stamps the generated id.
func TranslateUpdate(update *models.Update, now time.Time) (database.ChatMessage, bool) {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return database.ChatMessage{}, false
	}
	msg := update.Message

	out := database.ChatMessage{
		ID:        fmt.Sprintf("telegram_%d_%d", msg.ID, now.UnixMilli()),
		Text:      msg.Text,
		Sender:    SenderName(msg) + " " + SenderMarker,
		Timestamp: time.Unix(int64(msg.Date), 0).UTC(),
		Source:    database.SourceTelegram,
	}
	if msg.From != nil {
		out.TelegramUserID = msg.From.ID
		out.TelegramUsername = msg.From.Username
	}
	return out, true
}

// SenderName is "First Last" of the sender, falling back to the username and
// then the chat title when the sender is anonymous.
func SenderName(msg *models.Message) string {
	if msg.From != nil {
		name := msg.From.FirstName
		if msg.From.LastName != "" {
			name += " " + msg.From.LastName
		}
		if name != "" {
			return name
		}
		if msg.From.Username != "" {
			return msg.From.Username
		}
	}
	if msg.Chat.Title != "" {
		return msg.Chat.Title
	}
	return "Unknown"
}

// FirstName is the greeting name for the sender of msg.
func FirstName(msg *models.Message) string {
	if msg.From != nil && msg.From.FirstName != "" {
		return msg.From.FirstName
	}
	return SenderName(msg)
}
