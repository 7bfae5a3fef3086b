package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/relaychat/internal/database"
)

// newSQLMaintenanceTask creates the task that compacts the SQLite store.
// It is a no-op for stores without maintenance.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		maintainer, ok := deps.Store.(database.Maintainer)
		if !ok {
			log.DebugContext(ctx, "Store has no maintenance, skipping")
			return nil
		}

		log.InfoContext(ctx, "Starting scheduled SQL maintenance task...")
		startTime := time.Now()

		err := maintainer.RunSQLMaintenance(ctx)
		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", duration)
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled SQL maintenance task completed successfully", "duration", duration)
		return nil
	}
}
