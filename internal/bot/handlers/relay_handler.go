package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewRelayHandler returns the default handler: every polled update takes the
// same path as a webhook delivery.
func NewRelayHandler(deps HandlerDeps) bot.HandlerFunc {
	return relayHandler{deps}.Handle
}

type relayHandler struct {
	deps HandlerDeps
}

func (h relayHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	h.deps.Relay.ReceiveUpdate(ctx, update)
}
