package server

import (
	"net/http"
	"strings"

	apperrors "github.com/edgard/relaychat/internal/errors"
	"github.com/edgard/relaychat/internal/telegram"
)

// Webhook setup actions.
const (
	actionSet    = "set"
	actionDelete = "delete"
	actionInfo   = "info"
)

type webhookSetupRequest struct {
	Action     string `json:"action"     validate:"required,oneof=set delete info"`
	WebhookURL string `json:"webhookUrl" validate:"required_if=Action set"`
}

type chatDiscoveryRequest struct {
	BotToken string `json:"botToken"`
}

func (s *Server) handleWebhookSetup(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Client.HasToken() {
		s.errorResponse(w, r, http.StatusBadRequest, "Bot token not configured", nil)
		return
	}

	var req webhookSetupRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.errorResponse(w, r, http.StatusBadRequest, "Invalid action: "+err.Error(), err)
		return
	}

	ctx := r.Context()
	switch req.Action {
	case actionSet:
		resp, err := s.deps.Webhooks.Set(ctx, req.WebhookURL)
		s.webhookActionResponse(w, r, resp, err, "Webhook set successfully")
	case actionDelete:
		resp, err := s.deps.Webhooks.Delete(ctx)
		s.webhookActionResponse(w, r, resp, err, "Webhook deleted successfully")
	case actionInfo:
		info, err := s.deps.Webhooks.Info(ctx)
		if err != nil {
			s.failureResponse(w, r, err, nil)
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "webhookInfo": info})
	}
}

func (s *Server) webhookActionResponse(w http.ResponseWriter, r *http.Request, resp *telegram.Response, err error, message string) {
	if err != nil {
		s.failureResponse(w, r, err, map[string]any{"data": resp})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "message": message, "data": resp})
}

// handleDiscoverChats lists chats that recently messaged the bot so an
// operator can pick the destination chat id.
func (s *Server) handleDiscoverChats(w http.ResponseWriter, r *http.Request) {
	var req chatDiscoveryRequest
	if r.ContentLength != 0 {
		if err := s.decodeJSON(r, &req); err != nil {
			s.failureResponse(w, r, err, nil)
			return
		}
	}

	client := s.deps.Client.WithToken(strings.TrimSpace(req.BotToken))
	if !client.HasToken() {
		s.failureResponse(w, r, apperrors.ErrMissingCredential, nil)
		return
	}

	discovery, err := telegram.DiscoverChats(r.Context(), client)
	if err != nil {
		s.failureResponse(w, r, err, nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":     true,
		"chatIds":     discovery.Chats,
		"hasMessages": discovery.HasMessages,
	})
}
