package telegram

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	apperrors "github.com/edgard/relaychat/internal/errors"
	"github.com/edgard/relaychat/internal/logger"
)

// WebhookManager registers, removes and inspects the bot's webhook. Set and
// Delete drop pending updates, so repeating either is harmless.
type WebhookManager struct {
	client *Client
	secret string
	logger *slog.Logger
}

// NewWebhookManager creates a WebhookManager. secret, when set, is registered
// as the webhook's secret_token.
func NewWebhookManager(client *Client, secret string, log *slog.Logger) *WebhookManager {
	if log == nil {
		log = logger.Discard()
	}
	return &WebhookManager{
		client: client,
		secret: secret,
		logger: log.With("component", "webhook_manager"),
	}
}

// Set registers webhookURL as the receiver for message updates.
func (m *WebhookManager) Set(ctx context.Context, webhookURL string) (*Response, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if err := validateWebhookURL(webhookURL); err != nil {
		return nil, err
	}

	resp, err := m.client.SetWebhook(ctx, SetWebhookParams{
		URL:                webhookURL,
		AllowedUpdates:     []string{"message"},
		DropPendingUpdates: true,
		SecretToken:        m.secret,
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to set webhook", "url", webhookURL, "error", err)
		return resp, err
	}
	m.logger.InfoContext(ctx, "Webhook set", "url", webhookURL, "secret", m.secret != "")
	return resp, nil
}

// Delete removes the webhook registration.
func (m *WebhookManager) Delete(ctx context.Context) (*Response, error) {
	resp, err := m.client.DeleteWebhook(ctx, true)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to delete webhook", "error", err)
		return resp, err
	}
	m.logger.InfoContext(ctx, "Webhook deleted")
	return resp, nil
}

// Info returns the current registration.
func (m *WebhookManager) Info(ctx context.Context) (*WebhookInfo, error) {
	return m.client.GetWebhookInfo(ctx)
}

func validateWebhookURL(raw string) error {
	if raw == "" {
		return apperrors.Validation("webhook url is required", nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return apperrors.Validation("webhook url is invalid", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" || u.Host == "" {
		return apperrors.Validation("webhook url must be an absolute http(s) url", nil)
	}
	return nil
}
