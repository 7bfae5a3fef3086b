package tasks

import (
	"context"
	"fmt"
	"time"
)

// newWebhookStatusTask creates the task that reports the webhook's backlog
// and last delivery error, so a broken registration shows up in the logs.
func newWebhookStatusTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "webhook_status")

	return func(ctx context.Context) error {
		info, err := deps.Webhooks.Info(ctx)
		if err != nil {
			return fmt.Errorf("failed to get webhook info: %w", err)
		}

		if info.URL == "" {
			log.WarnContext(ctx, "No webhook registered; Telegram messages will not arrive", "mode", deps.Config.Telegram.Mode)
			return nil
		}

		attrs := []any{"url", info.URL, "pending_updates", info.PendingUpdateCount}
		if info.LastErrorMessage != "" {
			attrs = append(attrs,
				"last_error", info.LastErrorMessage,
				"last_error_at", time.Unix(info.LastErrorDate, 0).UTC())
			log.WarnContext(ctx, "Webhook reports delivery errors", attrs...)
			return nil
		}
		log.InfoContext(ctx, "Webhook healthy", attrs...)
		return nil
	}
}
