package server

import (
	"net/http"
	"time"

	"github.com/edgard/relaychat/internal/database"
)

// postMessageRequest is the web chat's message shape.
type postMessageRequest struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Notified  *bool     `json:"notified"`
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.deps.Relay.Store().List(r.Context())
	if err != nil {
		s.errorResponse(w, r, http.StatusInternalServerError, "Failed to load messages", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.errorResponse(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	saved, err := s.deps.Relay.PostMessage(r.Context(), database.ChatMessage{
		ID:        req.ID,
		Text:      req.Text,
		Sender:    req.Sender,
		Timestamp: req.Timestamp,
		Notified:  req.Notified,
	})
	if err != nil {
		s.errorResponse(w, r, http.StatusInternalServerError, "Failed to save message", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "message": saved})
}

func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Relay.Store().Clear(r.Context()); err != nil {
		s.errorResponse(w, r, http.StatusInternalServerError, "Failed to clear messages", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}
