package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaychat/internal/database"
	apperrors "github.com/edgard/relaychat/internal/errors"
	"github.com/edgard/relaychat/internal/relay"
	"github.com/edgard/relaychat/internal/telegram"
)

// fakeTelegram records sendMessage payloads.
type fakeTelegram struct {
	calls atomic.Int32
	mu    sync.Mutex
	sent  []map[string]any
}

func (f *fakeTelegram) payloads() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.sent...)
}

func newFakeTelegram(t *testing.T, status int, body string) (*fakeTelegram, *httptest.Server) {
	t.Helper()
	fake := &fakeTelegram{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(raw, &payload)
		fake.mu.Lock()
		fake.sent = append(fake.sent, payload)
		fake.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return fake, srv
}

// recordingStore wraps a memory store and records the order of events.
type recordingStore struct {
	database.Store
	failAppend bool
	events     *eventLog
}

func (s *recordingStore) Append(ctx context.Context, m database.ChatMessage) error {
	if s.failAppend {
		return apperrors.Store("disk full", nil)
	}
	s.events.add("append:" + m.ID)
	return s.Store.Append(ctx, m)
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

const okBody = `{"ok":true,"result":{"message_id":1}}`

func TestDispatcherMissingCredentialMakesNoCall(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeTelegram(t, http.StatusOK, okBody)
	dispatcher := relay.NewDispatcher(telegram.NewClient(srv.Client(), srv.URL, "", nil), nil)

	result := dispatcher.Send(context.Background(), "", "123456789", "hello")
	if result.Success || !errors.Is(result.Err, apperrors.ErrMissingCredential) {
		t.Fatalf("Send() = %+v, want missing credential", result)
	}
	if got := fake.calls.Load(); got != 0 {
		t.Errorf("calls = %d, want 0", got)
	}
}

func TestDispatcherSend(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		status    int
		body      string
		token     string
		chatID    any
		wantOK    bool
		wantErrIs error
		wantError string
		wantCalls int32
	}{
		{
			name:      "numeric chat id",
			status:    http.StatusOK,
			body:      okBody,
			chatID:    "123456789",
			wantOK:    true,
			wantCalls: 1,
		},
		{
			name:      "token override",
			status:    http.StatusOK,
			body:      okBody,
			token:     "override",
			chatID:    int64(123456789),
			wantOK:    true,
			wantCalls: 1,
		},
		{
			name:      "missing chat id",
			chatID:    "  ",
			wantErrIs: apperrors.ErrMissingIdentifier,
		},
		{
			name:      "invalid chat id",
			chatID:    "12",
			wantErrIs: apperrors.ErrInvalidIdentifier,
		},
		{
			name:      "upstream description",
			status:    http.StatusBadRequest,
			body:      `{"ok":false,"description":"Bad Request: chat not found"}`,
			chatID:    "123456789",
			wantErrIs: apperrors.ErrUpstreamRejected,
			wantError: "Bad Request: chat not found",
			wantCalls: 1,
		},
		{
			name:      "upstream without description",
			status:    http.StatusForbidden,
			body:      `{"ok":false}`,
			chatID:    "123456789",
			wantErrIs: apperrors.ErrUpstreamRejected,
			wantError: "HTTP 403: Forbidden",
			wantCalls: 1,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fake, srv := newFakeTelegram(t, tc.status, tc.body)
			dispatcher := relay.NewDispatcher(telegram.NewClient(srv.Client(), srv.URL, "123:abc", nil), nil)

			result := dispatcher.Send(context.Background(), tc.token, tc.chatID, "<b>hi</b>")
			if result.Success != tc.wantOK {
				t.Fatalf("Send().Success = %v, want %v (err %v)", result.Success, tc.wantOK, result.Err)
			}
			if tc.wantErrIs != nil && !errors.Is(result.Err, tc.wantErrIs) {
				t.Errorf("Send().Err = %v, want %v", result.Err, tc.wantErrIs)
			}
			if tc.wantError != "" && result.Error() != tc.wantError {
				t.Errorf("Send().Error() = %q, want %q", result.Error(), tc.wantError)
			}
			if got := fake.calls.Load(); got != tc.wantCalls {
				t.Errorf("calls = %d, want %d", got, tc.wantCalls)
			}
			if tc.wantOK {
				if string(result.Data) != `{"message_id":1}` {
					t.Errorf("Send().Data = %s", result.Data)
				}
				payload := fake.payloads()[0]
				if payload["chat_id"] != float64(123456789) || payload["parse_mode"] != "HTML" {
					t.Errorf("payload = %v", payload)
				}
			}
		})
	}
}

func TestRunnerQueuesBeyondLimit(t *testing.T) {
	t.Parallel()

	const limit, total = 2, 20
	runner := relay.NewRunner(limit, time.Second, nil)
	release := make(chan struct{})
	var ran, running, peak atomic.Int32
	for i := 0; i < total; i++ {
		runner.Go("task", func(ctx context.Context) error {
			n := running.Add(1)
			defer running.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			ran.Add(1)
			if i%2 == 0 {
				return errors.New("logged only")
			}
			return nil
		})
	}
	close(release)
	runner.Wait()

	if got := ran.Load(); got != total {
		t.Errorf("tasks run = %d, want %d", got, total)
	}
	if got := peak.Load(); got > limit {
		t.Errorf("peak concurrency = %d, want <= %d", got, limit)
	}

	var after atomic.Bool
	runner.Go("after", func(context.Context) error {
		after.Store(true)
		return nil
	})
	runner.Wait()
	if !after.Load() {
		t.Error("task scheduled after Wait did not run")
	}
}

func newService(t *testing.T, store database.Store, srvURL string, client *http.Client, opts relay.Options) (*relay.Service, *relay.Runner) {
	t.Helper()
	runner := relay.NewRunner(4, time.Second, nil)
	dispatcher := relay.NewDispatcher(telegram.NewClient(client, srvURL, "123:abc", nil), nil)
	if opts.Greeting == "" {
		opts.Greeting = "Hello %s! Your message has been received in the chat app. 👋"
	}
	if opts.NotifyTemplate == "" {
		opts.NotifyTemplate = "New message from %s: %s"
	}
	return relay.NewService(store, dispatcher, runner, opts, nil), runner
}

func TestPostMessageNotifiesAfterAppend(t *testing.T) {
	t.Parallel()

	events := &eventLog{}
	fake, srv := newFakeTelegram(t, http.StatusOK, okBody)
	store := &recordingStore{Store: database.NewMemoryStore(100, nil), events: events}
	service, runner := newService(t, store, srv.URL, srv.Client(), relay.Options{
		ChatID:        "123456789",
		NotifyEnabled: true,
	})

	saved, err := service.PostMessage(context.Background(), database.ChatMessage{
		ID:     "m1",
		Text:   "a < b",
		Sender: "Ann",
	})
	if err != nil {
		t.Fatalf("PostMessage() error = %v", err)
	}
	if saved.Timestamp.IsZero() {
		t.Error("PostMessage() left timestamp zero")
	}
	runner.Wait()

	if got := events.list(); len(got) != 1 || got[0] != "append:m1" {
		t.Errorf("events = %v", got)
	}
	if got := fake.calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1 notification", got)
	}
	if text := fake.payloads()[0]["text"]; text != "New message from Ann: a &lt; b" {
		t.Errorf("notification text = %q", text)
	}
}

func TestPostMessageAssignsIDAndSkipsNotifyOnFailure(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeTelegram(t, http.StatusOK, okBody)
	store := &recordingStore{Store: database.NewMemoryStore(100, nil), events: &eventLog{}, failAppend: true}
	service, runner := newService(t, store, srv.URL, srv.Client(), relay.Options{ChatID: "123456789", NotifyEnabled: true})

	_, err := service.PostMessage(context.Background(), database.ChatMessage{Text: "x", Sender: "Ann"})
	if apperrors.Code(err) != apperrors.CodeStore {
		t.Fatalf("PostMessage() error = %v, want store error", err)
	}
	runner.Wait()
	if got := fake.calls.Load(); got != 0 {
		t.Errorf("calls = %d, want no notification for a message that was not saved", got)
	}

	okService, _ := newService(t, database.NewMemoryStore(100, nil), srv.URL, srv.Client(), relay.Options{})
	saved, err := okService.PostMessage(context.Background(), database.ChatMessage{Text: "x", Sender: "Ann"})
	if err != nil {
		t.Fatalf("PostMessage() error = %v", err)
	}
	if saved.ID == "" {
		t.Error("PostMessage() did not assign an id")
	}
}

func textUpdate(text string) *models.Update {
	return &models.Update{
		ID: 10,
		Message: &models.Message{
			ID:   42,
			Date: 1700000000,
			Text: text,
			From: &models.User{ID: 7, FirstName: "Ann"},
			Chat: models.Chat{ID: 123456789, Type: "private"},
		},
	}
}

func TestReceiveUpdate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		update       *models.Update
		wantStored   bool
		wantGreeting bool
	}{
		{name: "greeting", update: textUpdate("Hi there"), wantStored: true, wantGreeting: true},
		{name: "hello uppercase", update: textUpdate("HELLO"), wantStored: true, wantGreeting: true},
		{name: "plain text", update: textUpdate("good morning"), wantStored: true},
		{name: "no message", update: &models.Update{ID: 11}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fake, srv := newFakeTelegram(t, http.StatusOK, okBody)
			store := database.NewMemoryStore(100, nil)
			service, runner := newService(t, store, srv.URL, srv.Client(), relay.Options{})

			_, ok := service.ReceiveUpdate(context.Background(), tc.update)
			runner.Wait()

			if ok != tc.wantStored {
				t.Errorf("ReceiveUpdate() ok = %v, want %v", ok, tc.wantStored)
			}
			messages, _ := store.List(context.Background())
			if tc.wantStored != (len(messages) == 1) {
				t.Errorf("stored %d messages, want stored=%v", len(messages), tc.wantStored)
			}
			wantCalls := int32(0)
			if tc.wantGreeting {
				wantCalls = 1
			}
			if got := fake.calls.Load(); got != wantCalls {
				t.Fatalf("calls = %d, want %d", got, wantCalls)
			}
			if tc.wantGreeting {
				payload := fake.payloads()[0]
				if payload["chat_id"] != float64(123456789) {
					t.Errorf("greeting chat_id = %v", payload["chat_id"])
				}
				if text, _ := payload["text"].(string); !strings.HasPrefix(text, "Hello Ann!") {
					t.Errorf("greeting text = %q", text)
				}
			}
		})
	}
}

func TestReceiveUpdateSurvivesFailures(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeTelegram(t, http.StatusBadRequest, `{"ok":false,"description":"Bad Request: chat not found"}`)
	store := &recordingStore{Store: database.NewMemoryStore(100, nil), events: &eventLog{}, failAppend: true}
	service, runner := newService(t, store, srv.URL, srv.Client(), relay.Options{})

	msg, ok := service.ReceiveUpdate(context.Background(), textUpdate("hi"))
	runner.Wait()
	if !ok || msg.Sender != "Ann (Telegram)" {
		t.Errorf("ReceiveUpdate() = %+v, %v", msg, ok)
	}
	if got := fake.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want the greeting attempt", got)
	}
}

func TestRecentTelegram(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := database.NewMemoryStore(100, nil)
	service, _ := newService(t, store, "http://127.0.0.1:0", nil, relay.Options{})

	for i := 0; i < 15; i++ {
		source := database.Source("")
		if i%2 == 0 {
			source = database.SourceTelegram
		}
		_ = store.Append(ctx, database.ChatMessage{ID: string(rune('a' + i)), Text: "x", Sender: "s", Source: source})
	}

	recent, total, err := service.RecentTelegram(ctx, 5)
	if err != nil {
		t.Fatalf("RecentTelegram() error = %v", err)
	}
	if total != 8 || len(recent) != 5 {
		t.Fatalf("RecentTelegram() = %d messages of %d, want 5 of 8", len(recent), total)
	}
	if recent[4].ID != "o" {
		t.Errorf("last message = %q, want o", recent[4].ID)
	}
}

func TestNotifyFallsBackToConfiguredChat(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeTelegram(t, http.StatusOK, okBody)
	service, _ := newService(t, database.NewMemoryStore(100, nil), srv.URL, srv.Client(), relay.Options{ChatID: "-1001234567890"})

	result := service.Notify(context.Background(), "", nil, "ping")
	if !result.Success {
		t.Fatalf("Notify() = %+v", result)
	}
	if got := fake.payloads()[0]["chat_id"]; got != "-1001234567890" {
		t.Errorf("chat_id = %v, want supergroup string", got)
	}
}

func TestWantsGreeting(t *testing.T) {
	t.Parallel()

	for text, want := range map[string]bool{
		"hi":           true,
		"Hello world":  true,
		"this is fine": true,
		"good morning": false,
		"":             false,
	} {
		if got := relay.WantsGreeting(text); got != want {
			t.Errorf("WantsGreeting(%q) = %v, want %v", text, got, want)
		}
	}
}
