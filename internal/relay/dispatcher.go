// Package relay moves messages between the web chat and Telegram: it sends
// notifications, handles inbound updates, and runs background deliveries.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	apperrors "github.com/edgard/relaychat/internal/errors"
	"github.com/edgard/relaychat/internal/logger"
	"github.com/edgard/relaychat/internal/telegram"
)

// DispatchResult is the outcome of one notification. Exactly one of Data and
// Err is meaningful, selected by Success.
type DispatchResult struct {
	Success bool
	// Data is the raw result of a successful sendMessage call.
	Data json.RawMessage
	// Response is the Telegram envelope when one was received.
	Response *telegram.Response
	Err      error
}

// Error returns the failure text shown to callers, or "" on success.
func (r DispatchResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Dispatcher sends text messages to a Telegram chat.
type Dispatcher struct {
	client *telegram.Client
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. client carries the default bot token.
func NewDispatcher(client *telegram.Client, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		client: client,
		logger: log.With("component", "dispatcher"),
	}
}

// Send delivers text to rawChatID with HTML formatting. botToken overrides the
// client's token when non-empty. Credential and identifier problems are
// reported before any network call; the call itself is made once.
func (d *Dispatcher) Send(ctx context.Context, botToken string, rawChatID any, text string) DispatchResult {
	client := d.client.WithToken(botToken)
	if !client.HasToken() {
		return DispatchResult{Err: apperrors.ErrMissingCredential}
	}

	if isBlank(rawChatID) {
		return DispatchResult{Err: apperrors.MissingIdentifier(
			"chat id is missing; supply it in the request body or set TELEGRAM_CHAT_ID")}
	}
	chatID, err := telegram.Normalize(rawChatID)
	if err != nil {
		return DispatchResult{Err: err}
	}

	resp, err := client.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:    chatID.Value(),
		Text:      text,
		ParseMode: telegram.ParseModeHTML,
	})
	if err != nil {
		d.logger.WarnContext(ctx, "Failed to send Telegram message",
			"chat_id", chatID.String(),
			"error_code", apperrors.Code(err),
			"error", err)
		return DispatchResult{Response: resp, Err: err}
	}

	d.logger.DebugContext(ctx, "Sent Telegram message", "chat_id", chatID.String(), "text", logger.TruncateString(text, 50))
	return DispatchResult{Success: true, Data: resp.Result, Response: resp}
}

// isBlank reports whether a chat id value is absent.
func isBlank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case json.Number:
		return strings.TrimSpace(v.String()) == ""
	default:
		return false
	}
}
