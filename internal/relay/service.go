package relay

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/edgard/relaychat/internal/database"
	apperrors "github.com/edgard/relaychat/internal/errors"
	"github.com/edgard/relaychat/internal/logger"
	"github.com/edgard/relaychat/internal/telegram"
)

// Options configures a Service.
type Options struct {
	// ChatID is the default notification destination.
	ChatID string
	// Greeting has one %s for the sender's first name.
	Greeting string
	// NotifyEnabled sends a notification for every locally posted message.
	NotifyEnabled bool
	// NotifyTemplate has two %s: sender, then text.
	NotifyTemplate string
}

// Service implements the local post path and the inbound Telegram path on
// top of a shared Store.
type Service struct {
	store      database.Store
	dispatcher *Dispatcher
	runner     *Runner
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a Service.
func NewService(store database.Store, dispatcher *Dispatcher, runner *Runner, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		runner:     runner,
		opts:       opts,
		logger:     log.With("component", "relay"),
		now:        time.Now,
	}
}

// Store returns the underlying message store.
func (s *Service) Store() database.Store {
	return s.store
}

// PostMessage appends a locally posted message and, when notifications are
// enabled, schedules one after the append has succeeded. A missing id is
// assigned; a zero timestamp is set to now.
func (s *Service) PostMessage(ctx context.Context, msg database.ChatMessage) (database.ChatMessage, error) {
	if strings.TrimSpace(msg.ID) == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}

	if err := s.store.Append(ctx, msg); err != nil {
		return database.ChatMessage{}, fmt.Errorf("failed to save message: %w", err)
	}
	s.logger.DebugContext(ctx, "Saved local message", "message_id", msg.ID, "sender", msg.Sender)

	if s.opts.NotifyEnabled && !msg.FromTelegram() {
		text := fmt.Sprintf(s.opts.NotifyTemplate, html.EscapeString(msg.Sender), html.EscapeString(msg.Text))
		messageID := msg.ID
		s.runner.Go("notify", func(ctx context.Context) error {
			result := s.dispatcher.Send(ctx, "", s.opts.ChatID, text)
			if !result.Success {
				return fmt.Errorf("failed to notify for message %s: %w", messageID, result.Err)
			}
			return nil
		})
	}
	return msg, nil
}

// Notify sends text through the dispatcher, falling back to the configured
// destination when chatID is absent.
func (s *Service) Notify(ctx context.Context, botToken string, chatID any, text string) DispatchResult {
	if isBlank(chatID) {
		chatID = s.opts.ChatID
	}
	return s.dispatcher.Send(ctx, botToken, chatID, text)
}

// ReceiveUpdate handles an inbound update: text messages are translated and
// appended, and greetings are answered in the background. The bool is false
// for updates that carry nothing to relay. A failed append is logged and
// does not fail the update.
func (s *Service) ReceiveUpdate(ctx context.Context, update *models.Update) (database.ChatMessage, bool) {
	msg, ok := telegram.TranslateUpdate(update, s.now())
	if !ok {
		if update != nil {
			s.logger.DebugContext(ctx, "Skipping update without text message", "update_id", update.ID)
		}
		return database.ChatMessage{}, false
	}

	if err := s.store.Append(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store Telegram message",
			"message_id", msg.ID,
			"error_code", apperrors.Code(err),
			"error", err)
	} else {
		s.logger.InfoContext(ctx, "Stored Telegram message",
			"message_id", msg.ID,
			"chat_id", update.Message.Chat.ID,
			"text", logger.TruncateString(msg.Text, 50))
	}

	if WantsGreeting(msg.Text) {
		chatID := update.Message.Chat.ID
		text := fmt.Sprintf(s.opts.Greeting, html.EscapeString(telegram.FirstName(update.Message)))
		s.runner.Go("greeting", func(ctx context.Context) error {
			result := s.dispatcher.Send(ctx, "", chatID, text)
			if !result.Success {
				return fmt.Errorf("failed to send greeting to chat %d: %w", chatID, result.Err)
			}
			return nil
		})
	}
	return msg, true
}

// RecentTelegram returns the last n Telegram-sourced messages and how many
// the store holds in total.
func (s *Service) RecentTelegram(ctx context.Context, n int) ([]database.ChatMessage, int, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	var fromTelegram []database.ChatMessage
	for _, m := range all {
		if m.FromTelegram() {
			fromTelegram = append(fromTelegram, m)
		}
	}
	total := len(fromTelegram)
	if n > 0 && total > n {
		fromTelegram = fromTelegram[total-n:]
	}
	if fromTelegram == nil {
		fromTelegram = []database.ChatMessage{}
	}
	return fromTelegram, total, nil
}

// WantsGreeting reports whether text earns a greeting reply.
func WantsGreeting(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "hello") || strings.Contains(lower, "hi")
}
