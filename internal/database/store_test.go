package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newSQLiteTestStore(t *testing.T, capacity int) Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "relay.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { CloseSQLite(db, nil) })
	return NewSQLStore(db, capacity, nil)
}

// storeFactories runs every test against both implementations.
func storeFactories() map[string]func(t *testing.T, capacity int) Store {
	return map[string]func(t *testing.T, capacity int) Store{
		"memory": func(_ *testing.T, capacity int) Store { return NewMemoryStore(capacity, nil) },
		"sqlite": newSQLiteTestStore,
	}
}

func testMessage(i int) ChatMessage {
	return ChatMessage{
		ID:        fmt.Sprintf("msg-%d", i),
		Text:      fmt.Sprintf("text %d", i),
		Sender:    "ann",
		Timestamp: time.UnixMilli(1700000000000 + int64(i)).UTC(),
	}
}

func TestStoreAppendList(t *testing.T) {
	t.Parallel()

	for name, newStore := range storeFactories() {
		newStore := newStore
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := newStore(t, 100)

			notified := true
			want := ChatMessage{
				ID:        "1700000000000",
				Text:      "hello <b>world</b>",
				Sender:    "Ann",
				Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
				Notified:  &notified,
			}
			if err := store.Append(ctx, testMessage(0)); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if err := store.Append(ctx, want); err != nil {
				t.Fatalf("Append() error = %v", err)
			}

			got, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("List() len = %d, want 2", len(got))
			}
			last := got[len(got)-1]
			if last.ID != want.ID || last.Text != want.Text || last.Sender != want.Sender {
				t.Errorf("last message = %+v, want %+v", last, want)
			}
			if !last.Timestamp.Equal(want.Timestamp) {
				t.Errorf("timestamp = %v, want %v", last.Timestamp, want.Timestamp)
			}
			if last.Notified == nil || !*last.Notified {
				t.Errorf("notified = %v, want true", last.Notified)
			}
		})
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	t.Parallel()

	for name, newStore := range storeFactories() {
		newStore := newStore
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := newStore(t, 100)

			for i := 0; i < 101; i++ {
				if err := store.Append(ctx, testMessage(i)); err != nil {
					t.Fatalf("Append(%d) error = %v", i, err)
				}
			}

			got, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != 100 {
				t.Fatalf("List() len = %d, want 100", len(got))
			}
			if got[0].ID != "msg-1" {
				t.Errorf("first message = %q, want msg-1", got[0].ID)
			}
			if got[99].ID != "msg-100" {
				t.Errorf("last message = %q, want msg-100", got[99].ID)
			}
		})
	}
}

func TestStoreClear(t *testing.T) {
	t.Parallel()

	for name, newStore := range storeFactories() {
		newStore := newStore
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := newStore(t, 10)

			for i := 0; i < 3; i++ {
				if err := store.Append(ctx, testMessage(i)); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}

			got, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("List() after Clear = %v, want empty non-nil slice", got)
			}

			if err := store.Append(ctx, testMessage(7)); err != nil {
				t.Fatalf("Append() after Clear error = %v", err)
			}
			got, _ = store.List(ctx)
			if len(got) != 1 || got[0].ID != "msg-7" {
				t.Errorf("List() = %v, want only msg-7", got)
			}
		})
	}
}

func TestMemoryStoreListIsSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore(2, nil)

	_ = store.Append(ctx, testMessage(0))
	snapshot, _ := store.List(ctx)

	_ = store.Append(ctx, testMessage(1))
	_ = store.Append(ctx, testMessage(2))
	snapshot[0].Text = "mutated"

	if len(snapshot) != 1 || snapshot[0].ID != "msg-0" {
		t.Errorf("snapshot changed after appends: %v", snapshot)
	}
	current, _ := store.List(ctx)
	if current[0].ID != "msg-1" || current[0].Text != "text 1" {
		t.Errorf("store affected by snapshot mutation: %v", current)
	}
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore(1000, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = store.Append(ctx, testMessage(w*1000+i))
				_, _ = store.List(ctx)
			}
		}(w)
	}
	wg.Wait()

	got, _ := store.List(ctx)
	if len(got) != 400 {
		t.Errorf("List() len = %d, want 400 with no lost updates", len(got))
	}
}

func TestSQLStoreTelegramFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newSQLiteTestStore(t, 10)

	msg := testMessage(1)
	msg.Source = SourceTelegram
	msg.TelegramUserID = 42
	msg.TelegramUsername = "ann"
	if err := store.Append(ctx, msg); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() len = %d, want 1", len(got))
	}
	if !got[0].FromTelegram() || got[0].TelegramUserID != 42 || got[0].TelegramUsername != "ann" {
		t.Errorf("telegram fields not preserved: %+v", got[0])
	}
	if got[0].Notified != nil {
		t.Errorf("notified = %v, want nil", *got[0].Notified)
	}

	maintainer, ok := store.(Maintainer)
	if !ok {
		t.Fatal("sqlite store does not implement Maintainer")
	}
	if err := maintainer.RunSQLMaintenance(ctx); err != nil {
		t.Errorf("RunSQLMaintenance() error = %v", err)
	}
}

func TestSQLiteDSNHelpers(t *testing.T) {
	t.Parallel()

	names := map[string]string{
		"relay.db":                     "relay.db",
		"file:relay.db?mode=rwc":       "relay.db",
		"file:/tmp/my%20relay.db?mode": "/tmp/my relay.db",
		":memory:":                     "memory",
	}
	for dsn, want := range names {
		if got := sqliteFileName(dsn); got != want {
			t.Errorf("sqliteFileName(%q) = %q, want %q", dsn, got, want)
		}
	}

	timeouts := map[string]string{
		"relay.db":                           "relay.db?" + busyTimeoutPragma,
		"file:relay.db?mode=rwc":             "file:relay.db?mode=rwc&" + busyTimeoutPragma,
		"relay.db?_pragma=busy_timeout(100)": "relay.db?_pragma=busy_timeout(100)",
	}
	for dsn, want := range timeouts {
		if got := withBusyTimeout(dsn); got != want {
			t.Errorf("withBusyTimeout(%q) = %q, want %q", dsn, got, want)
		}
	}
}
