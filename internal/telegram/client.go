// Package telegram talks to the Telegram Bot API and holds the rules that turn
// Telegram payloads into chat messages and user-supplied chat ids into the form
// the API expects.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	apperrors "github.com/edgard/relaychat/internal/errors"
	"github.com/edgard/relaychat/internal/logger"
)

// ParseModeHTML selects Telegram's HTML text formatting.
const ParseModeHTML = "HTML"

// maxResponseBytes bounds how much of an API response is read.
const maxResponseBytes = 4 << 20

// Response is the Bot API JSON envelope.
type Response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// SendMessageParams are the sendMessage fields the relay uses. ChatID is an
// int64 or a string, as produced by ChatID.Value.
type SendMessageParams struct {
	ChatID    any    `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SetWebhookParams are the setWebhook fields the relay uses.
type SetWebhookParams struct {
	URL                string   `json:"url"`
	AllowedUpdates     []string `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool     `json:"drop_pending_updates,omitempty"`
	SecretToken        string   `json:"secret_token,omitempty"`
}

type deleteWebhookParams struct {
	DropPendingUpdates bool `json:"drop_pending_updates"`
}

// WebhookInfo is the getWebhookInfo result.
type WebhookInfo struct {
	URL                string   `json:"url"`
	PendingUpdateCount int      `json:"pending_update_count"`
	LastErrorDate      int64    `json:"last_error_date,omitempty"`
	LastErrorMessage   string   `json:"last_error_message,omitempty"`
	MaxConnections     int      `json:"max_connections,omitempty"`
	AllowedUpdates     []string `json:"allowed_updates,omitempty"`
}

// Client is a minimal Bot API client. Every call is a single attempt bounded
// by the http.Client timeout.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

// NewClient creates a Client. A nil httpClient gets a 10 second timeout.
func NewClient(httpClient *http.Client, baseURL, token string, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		logger:  log.With("component", "telegram_client"),
	}
}

// WithToken returns a copy of c that authenticates with token. An empty
// token keeps the current one.
func (c *Client) WithToken(token string) *Client {
	token = strings.TrimSpace(token)
	if token == "" {
		return c
	}
	clone := *c
	clone.token = token
	return &clone
}

// HasToken reports whether a bot token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*models.User, error) {
	var user models.User
	if _, err := c.call(ctx, "getMe", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUpdates returns up to limit pending updates without acknowledging them.
func (c *Client) GetUpdates(ctx context.Context, limit int) ([]models.Update, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var updates []models.Update
	if _, err := c.call(ctx, "getUpdates", query, nil, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends a text message and returns the raw envelope.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (*Response, error) {
	return c.call(ctx, "sendMessage", nil, params, nil)
}

// SetWebhook registers the webhook URL.
func (c *Client) SetWebhook(ctx context.Context, params SetWebhookParams) (*Response, error) {
	return c.call(ctx, "setWebhook", nil, params, nil)
}

// DeleteWebhook removes the webhook registration.
func (c *Client) DeleteWebhook(ctx context.Context, dropPendingUpdates bool) (*Response, error) {
	return c.call(ctx, "deleteWebhook", nil, deleteWebhookParams{DropPendingUpdates: dropPendingUpdates}, nil)
}

// GetWebhookInfo returns the current webhook registration.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if _, err := c.call(ctx, "getWebhookInfo", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// call performs one Bot API request. A nil body issues a GET. Transport and
// decoding problems become *TransportError; a non-2xx status or ok=false
// becomes *UpstreamError.
func (c *Client) call(ctx context.Context, method string, query url.Values, body any, dest any) (*Response, error) {
	if c.token == "" {
		return nil, apperrors.ErrMissingCredential
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	httpMethod := http.MethodGet
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s params: %w", method, err)
		}
		httpMethod = http.MethodPost
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint, reader)
	if err != nil {
		return nil, &apperrors.TransportError{Method: method, Err: redact(err, c.token)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	startTime := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Telegram API request failed", "method", method, "error", redact(err, c.token))
		return nil, &apperrors.TransportError{Method: method, Err: redact(err, c.token)}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &apperrors.TransportError{Method: method, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var envelope Response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.WarnContext(ctx, "Telegram API returned malformed JSON", "method", method, "status", resp.StatusCode)
		return nil, &apperrors.TransportError{Method: method, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.DebugContext(ctx, "Telegram API call finished",
		"method", method,
		"status", resp.StatusCode,
		"ok", envelope.OK,
		"duration", time.Since(startTime))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.OK {
		return &envelope, &apperrors.UpstreamError{
			Method:      method,
			Status:      resp.StatusCode,
			StatusText:  statusText(resp),
			Description: strings.TrimSpace(envelope.Description),
			ErrorCode:   envelope.ErrorCode,
		}
	}

	if dest != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, dest); err != nil {
			return &envelope, &apperrors.TransportError{Method: method, Err: fmt.Errorf("failed to decode %s result: %w", method, err)}
		}
	}
	return &envelope, nil
}

// statusText returns the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// redact removes the bot token from errors that embed the request URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }
