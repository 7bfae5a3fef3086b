package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/edgard/relaychat/internal/errors"
	"github.com/edgard/relaychat/internal/logger"
)

// Store is an append-only, capacity-bounded log of chat messages shared by the
// web and Telegram paths. Implementations serialize Append, List and Clear.
type Store interface {
	// Append adds a message at the end of the log, evicting the oldest
	// entries so at most Capacity remain.
	Append(ctx context.Context, message ChatMessage) error

	// List returns the messages in insertion order. The returned slice is a
	// snapshot owned by the caller.
	List(ctx context.Context) ([]ChatMessage, error)

	// Clear removes every message.
	Clear(ctx context.Context) error

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Capacity is the maximum number of retained messages.
	Capacity() int
}

// Maintainer is implemented by stores that need periodic maintenance.
type Maintainer interface {
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore keeps the log in SQLite.
type sqlxStore struct {
	db       *sqlx.DB
	capacity int
	logger   *slog.Logger
	now      func() time.Time
}

// NewSQLStore creates a Store backed by a migrated SQLite database.
func NewSQLStore(db *sqlx.DB, capacity int, log *slog.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	return &sqlxStore{
		db:       db,
		capacity: capacity,
		logger:   log.With("component", "store", "driver", "sqlite"),
		now:      time.Now,
	}
}

func (s *sqlxStore) Capacity() int {
	return s.capacity
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append inserts the message and trims the table to capacity in one transaction.
func (s *sqlxStore) Append(ctx context.Context, message ChatMessage) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for append", "message_id", message.ID, "error", err)
		return apperrors.Store("failed to begin transaction", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	query := `
        INSERT INTO messages (id, text, sender, timestamp_ms, source, notified, telegram_user_id, telegram_username, created_at)
        VALUES (:id, :text, :sender, :timestamp_ms, :source, :notified, :telegram_user_id, :telegram_username, :created_at);
    `
	if _, err := tx.NamedExecContext(ctx, query, rowFromMessage(message, s.now())); err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "message_id", message.ID, "error", err)
		return apperrors.Store(fmt.Sprintf("failed to save message %s", message.ID), err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE seq NOT IN (SELECT seq FROM messages ORDER BY seq DESC LIMIT ?);`,
		s.capacity)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error evicting old messages", "error", err)
		return apperrors.Store("failed to evict old messages", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "message_id", message.ID, "error", err)
		return apperrors.Store("failed to commit transaction", err)
	}
	tx = nil

	if evicted, err := result.RowsAffected(); err == nil && evicted > 0 {
		s.logger.DebugContext(ctx, "Evicted oldest messages", "count", evicted)
	}
	s.logger.DebugContext(ctx, "Message saved", "message_id", message.ID, "source", message.Source)
	return nil
}

func (s *sqlxStore) List(ctx context.Context) ([]ChatMessage, error) {
	var rows []messageRow
	query := `
        SELECT seq, id, text, sender, timestamp_ms, source, notified, telegram_user_id, telegram_username, created_at
        FROM messages
        ORDER BY seq ASC;
    `
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing messages", "error", err)
		return nil, apperrors.Store("failed to list messages", err)
	}

	messages := make([]ChatMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.toMessage())
	}
	return messages, nil
}

func (s *sqlxStore) Clear(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error clearing messages", "error", err)
		return apperrors.Store("failed to clear messages", err)
	}
	affected, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Cleared messages", "count", affected)
	return nil
}

// RunSQLMaintenance executes VACUUM on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	startTime := time.Now()

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Failed to run VACUUM", "error", err)
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(startTime))
	return nil
}
