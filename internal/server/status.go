package server

import (
	"net/http"

	apperrors "github.com/edgard/relaychat/internal/errors"
)

// debugUpdatesLimit is how many updates GET /debug/updates fetches.
const debugUpdatesLimit = 5

type testSendRequest struct {
	Message string `json:"message" validate:"required"`
	ChatID  any    `json:"chatId"`
}

func (s *Server) handleBotStatus(w http.ResponseWriter, r *http.Request) {
	me, err := s.deps.Client.GetMe(r.Context())
	if err != nil {
		s.failureResponse(w, r, err, nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "botInfo": me})
}

func (s *Server) handleWebhookStatus(w http.ResponseWriter, r *http.Request) {
	info, err := s.deps.Webhooks.Info(r.Context())
	if err != nil {
		s.failureResponse(w, r, err, map[string]any{"hasWebhook": false})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"hasWebhook":     info.URL != "",
		"webhookUrl":     info.URL,
		"pendingUpdates": info.PendingUpdateCount,
		"lastError":      info.LastErrorMessage,
	})
}

// handleEnvStatus reports which settings are present, never their values.
func (s *Server) handleEnvStatus(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]bool{
		"botToken":      s.cfg.Telegram.BotToken != "",
		"chatId":        s.cfg.Telegram.ChatID != "",
		"webhookSecret": s.cfg.Telegram.WebhookSecret != "",
		"baseUrl":       s.cfg.Server.BaseURL != "",
	})
}

func (s *Server) handleDebugEnv(w http.ResponseWriter, _ *http.Request) {
	var chatID any
	if s.cfg.Telegram.ChatID != "" {
		chatID = s.cfg.Telegram.ChatID
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"botToken":       s.cfg.Telegram.BotToken != "",
		"botTokenLength": len(s.cfg.Telegram.BotToken),
		"chatId":         chatID,
		"webhookSecret":  s.cfg.Telegram.WebhookSecret != "",
		"mode":           s.cfg.Telegram.Mode,
		"storeDriver":    s.cfg.Store.Driver,
	})
}

func (s *Server) handleDebugUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := s.deps.Client.GetUpdates(r.Context(), debugUpdatesLimit)
	if err != nil {
		s.failureResponse(w, r, err, nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"updates": updates,
		"count":   len(updates),
	})
}

// handleDebugTestSend sends a message to an explicit chat id with the
// configured token, echoing Telegram's response.
func (s *Server) handleDebugTestSend(w http.ResponseWriter, r *http.Request) {
	var req testSendRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.failureResponse(w, r, err, nil)
		return
	}
	if !s.deps.Client.HasToken() {
		s.failureResponse(w, r, apperrors.ErrMissingCredential, nil)
		return
	}

	result := s.deps.Dispatcher.Send(r.Context(), "", req.ChatID, req.Message)
	if !result.Success {
		s.failureResponse(w, r, result.Err, map[string]any{"telegramResponse": result.Response})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":          true,
		"message":          "Test message sent successfully!",
		"telegramResponse": result.Response,
	})
}
