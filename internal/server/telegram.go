package server

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-telegram/bot/models"
)

// secretHeader carries the webhook secret_token on Telegram deliveries.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// recentTelegramLimit is how many messages GET /telegram-webhook returns.
const recentTelegramLimit = 10

type notifyRequest struct {
	Message  string `json:"message"  validate:"required"`
	BotToken string `json:"botToken"`
	ChatID   any    `json:"chatId"`
}

// handleTelegramWebhook acknowledges every well-formed delivery with
// {"ok": true}; failures of the store or the greeting are only logged so
// Telegram does not retry.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if secret := s.cfg.Telegram.WebhookSecret; secret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			s.errorResponse(w, r, http.StatusUnauthorized, "Invalid webhook secret", nil)
			return
		}
	}

	var update models.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&update); err != nil {
		s.errorResponse(w, r, http.StatusInternalServerError, "Webhook processing failed", err)
		return
	}

	if !s.deps.Client.HasToken() {
		s.errorResponse(w, r, http.StatusBadRequest, "Bot token not configured", nil)
		return
	}

	s.deps.Relay.ReceiveUpdate(r.Context(), &update)
	s.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRecentTelegram(w http.ResponseWriter, r *http.Request) {
	messages, count, err := s.deps.Relay.RecentTelegram(r.Context(), recentTelegramLimit)
	if err != nil {
		s.errorResponse(w, r, http.StatusInternalServerError, "Failed to load messages", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"messages": messages, "count": count})
}

func (s *Server) handleTelegramNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.failureResponse(w, r, err, nil)
		return
	}

	result := s.deps.Relay.Notify(r.Context(), req.BotToken, req.ChatID, req.Message)
	if !result.Success {
		s.failureResponse(w, r, result.Err, nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "data": result.Data})
}
