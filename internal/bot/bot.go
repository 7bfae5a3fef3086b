// Package bot wires the relay's long-running components together and manages
// their lifecycle: the HTTP server, the optional Telegram poller, the
// scheduler, and the background task runner.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/relaychat/internal/config"
	"github.com/edgard/relaychat/internal/relay"
	"github.com/edgard/relaychat/internal/server"
)

// Bot represents the running application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	server    *server.Server
	tgBot     *tgbot.Bot
	scheduler *Scheduler
	runner    *relay.Runner
}

// NewBot creates the orchestrator. tgBot is nil unless Telegram updates are
// polled instead of delivered by webhook.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	srv *server.Server,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
	runner *relay.Runner,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		server:    srv,
		tgBot:     tgBot,
		scheduler: scheduler,
		runner:    runner,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails. Background deliveries are drained before it returns.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...", "mode", b.cfg.Telegram.Mode)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.server.Run(gCtx)
	})

	if b.tgBot != nil {
		g.Go(func() error {
			// getUpdates is rejected while a webhook is registered.
			if _, err := b.tgBot.DeleteWebhook(gCtx, &tgbot.DeleteWebhookParams{}); err != nil {
				b.logger.Warn("Failed to delete webhook before polling", "error", err)
			}

			b.logger.Info("Starting Telegram bot listener...")
			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram bot listener stopped.")

			if gCtx.Err() == nil {
				b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	b.logger.Info("Waiting for background deliveries to finish...")
	b.runner.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
