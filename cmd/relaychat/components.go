package main

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/relaychat/internal/config"
	"github.com/edgard/relaychat/internal/database"
	"github.com/edgard/relaychat/internal/relay"
	"github.com/edgard/relaychat/internal/telegram"
)

// components are the shared building blocks of every subcommand.
type components struct {
	client     *telegram.Client
	webhooks   *telegram.WebhookManager
	dispatcher *relay.Dispatcher
	runner     *relay.Runner
	store      database.Store
	service    *relay.Service
	db         *sqlx.DB
}

// Close releases the database, if one was opened.
func (c *components) Close() {
	if c.db != nil {
		database.CloseSQLite(c.db, c.log)
	}
}

// buildComponents wires the Telegram client, the store, and the relay
// service from cfg.
func (c *cli) buildComponents() (*components, error) {
	cfg := c.cfg

	client := telegram.NewClient(
		&http.Client{Timeout: cfg.Telegram.RequestTimeout},
		cfg.Telegram.APIURL,
		cfg.Telegram.BotToken,
		c.log,
	)

	comps := &components{
		client:     client,
		webhooks:   telegram.NewWebhookManager(client, cfg.Telegram.WebhookSecret, c.log),
		dispatcher: relay.NewDispatcher(client, c.log),
		runner:     relay.NewRunner(cfg.Notify.Workers, cfg.Telegram.RequestTimeout, c.log),
	}

	switch cfg.Store.Driver {
	case "sqlite":
		db, err := database.OpenSQLite(cfg.Store.SQLitePath, c.log)
		if err != nil {
			c.log.Error("Failed to connect to database", "path", cfg.Store.SQLitePath, "error", err)
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		comps.db = db
		comps.store = database.NewSQLStore(db, cfg.Store.Capacity, c.log)
	default:
		comps.store = database.NewMemoryStore(cfg.Store.Capacity, c.log)
	}

	comps.service = relay.NewService(comps.store, comps.dispatcher, comps.runner, serviceOptions(cfg), c.log)
	return comps, nil
}

func serviceOptions(cfg *config.Config) relay.Options {
	return relay.Options{
		ChatID:         cfg.Telegram.ChatID,
		Greeting:       cfg.Telegram.Greeting,
		NotifyEnabled:  cfg.Notify.Enabled,
		NotifyTemplate: cfg.Notify.Template,
	}
}
