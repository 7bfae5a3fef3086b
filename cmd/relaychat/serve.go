package main

import (
	"context"
	"errors"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/edgard/relaychat/internal/bot"
	"github.com/edgard/relaychat/internal/bot/handlers"
	"github.com/edgard/relaychat/internal/bot/tasks"
	"github.com/edgard/relaychat/internal/logger"
	"github.com/edgard/relaychat/internal/server"
	"github.com/edgard/relaychat/internal/telegram"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, the scheduler and, in polling mode, the Telegram poller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

// serve runs every long-lived component until ctx is cancelled.
func (c *cli) serve(ctx context.Context) error {
	cfg, log := c.cfg, c.log

	comps, err := c.buildComponents()
	if err != nil {
		return err
	}
	defer comps.Close()

	if !cfg.HasCredential() {
		log.Warn("Telegram bot token not configured; Telegram features will answer with errors")
	}

	srv := server.NewServer(server.Deps{
		Logger:     log,
		Config:     cfg,
		Relay:      comps.service,
		Dispatcher: comps.dispatcher,
		Client:     comps.client,
		Webhooks:   comps.webhooks,
	})

	var tg *tgbot.Bot
	if cfg.Telegram.Mode == "polling" {
		hDeps := handlers.HandlerDeps{
			Logger: log,
			Config: cfg,
			Relay:  comps.service,
		}
		tg, err = telegram.NewTelegramBot(cfg.Telegram.BotToken, cfg.Telegram.APIURL, log,
			tgbot.WithMiddlewares(logger.Middleware(log)),
			tgbot.WithDefaultHandler(handlers.NewRelayHandler(hDeps)),
		)
		if err != nil {
			log.Error("Failed to create Telegram bot", "error", err)
			return err
		}
		if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
			log.Error("Failed to register Telegram handlers", "error", err)
			return err
		}
	}

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    comps.store,
		Webhooks: comps.webhooks,
		Config:   cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		return err
	}

	app := bot.NewBot(log, cfg, srv, tg, sched, comps.runner)

	log.Info("Starting relaychat...", "addr", cfg.Server.Addr, "mode", cfg.Telegram.Mode, "store", cfg.Store.Driver)
	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Relaychat stopped due to error", "error", runErr)
		return fmt.Errorf("relaychat stopped: %w", runErr)
	}

	log.Info("Relaychat stopped gracefully.")
	return nil
}
