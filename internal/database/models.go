package database

import (
	"database/sql"
	"time"
)

// Source tags where a message originated.
type Source string

// SourceTelegram marks messages received from Telegram. Local messages leave
// Source empty.
const SourceTelegram Source = "telegram"

// ChatMessage is the canonical stored record shared by the web chat and the
// Telegram side. Messages are never mutated after they are appended.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source,omitempty"`
	Notified  *bool     `json:"notified,omitempty"`

	// Diagnostic passthrough for Telegram-sourced messages.
	TelegramUserID   int64  `json:"telegramUserId,omitempty"`
	TelegramUsername string `json:"telegramUsername,omitempty"`
}

// FromTelegram reports whether the message was received from Telegram.
func (m ChatMessage) FromTelegram() bool {
	return m.Source == SourceTelegram
}

// messageRow is the SQLite representation of a ChatMessage.
type messageRow struct {
	Seq              int64         `db:"seq"`
	ID               string        `db:"id"`
	Text             string        `db:"text"`
	Sender           string        `db:"sender"`
	TimestampMS      int64         `db:"timestamp_ms"`
	Source           string        `db:"source"`
	Notified         sql.NullBool  `db:"notified"`
	TelegramUserID   sql.NullInt64 `db:"telegram_user_id"`
	TelegramUsername string        `db:"telegram_username"`
	CreatedAt        int64         `db:"created_at"`
}

func rowFromMessage(m ChatMessage, now time.Time) messageRow {
	row := messageRow{
		ID:               m.ID,
		Text:             m.Text,
		Sender:           m.Sender,
		TimestampMS:      m.Timestamp.UnixMilli(),
		Source:           string(m.Source),
		TelegramUsername: m.TelegramUsername,
		CreatedAt:        now.UnixMilli(),
	}
	if m.Notified != nil {
		row.Notified = sql.NullBool{Bool: *m.Notified, Valid: true}
	}
	if m.TelegramUserID != 0 {
		row.TelegramUserID = sql.NullInt64{Int64: m.TelegramUserID, Valid: true}
	}
	return row
}

func (r messageRow) toMessage() ChatMessage {
	m := ChatMessage{
		ID:               r.ID,
		Text:             r.Text,
		Sender:           r.Sender,
		Timestamp:        time.UnixMilli(r.TimestampMS).UTC(),
		Source:           Source(r.Source),
		TelegramUsername: r.TelegramUsername,
	}
	if r.Notified.Valid {
		notified := r.Notified.Bool
		m.Notified = &notified
	}
	if r.TelegramUserID.Valid {
		m.TelegramUserID = r.TelegramUserID.Int64
	}
	return m
}
