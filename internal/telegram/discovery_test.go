package telegram_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaychat/internal/telegram"
)

func TestCollectChats(t *testing.T) {
	t.Parallel()

	updates := []models.Update{
		{ID: 1, Message: &models.Message{Chat: models.Chat{ID: 222, Type: "private", FirstName: "Ann", LastName: "Lee"}}},
		{ID: 2, Message: &models.Message{Chat: models.Chat{ID: 222, Type: "private", FirstName: "Ann"}}},
		{ID: 3, ChannelPost: &models.Message{Chat: models.Chat{ID: -1001234567890, Type: "channel", Title: "News", Username: "news"}}},
		{ID: 4, EditedMessage: &models.Message{Chat: models.Chat{ID: -555, Type: "group", Title: "Team"}}},
		{ID: 5},
	}

	got := telegram.CollectChats(updates)
	want := []telegram.ChatCandidate{
		{ID: -1001234567890, Type: "channel", Title: "News", Username: "news"},
		{ID: -555, Type: "group", Title: "Team"},
		{ID: 222, Type: "private", Title: "Ann Lee"},
	}
	if len(got) != len(want) {
		t.Fatalf("CollectChats() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CollectChats()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDiscoverChats(t *testing.T) {
	t.Parallel()

	_, srv := newFakeAPI(t, http.StatusOK, `{"ok":true,"result":[`+
		`{"update_id":1,"message":{"message_id":1,"date":1,"chat":{"id":123456789,"type":"private","first_name":"Ann"},"text":"hi"}}]}`)
	client := telegram.NewClient(srv.Client(), srv.URL, "123:abc", nil)

	got, err := telegram.DiscoverChats(context.Background(), client)
	if err != nil {
		t.Fatalf("DiscoverChats() error = %v", err)
	}
	if !got.HasMessages || len(got.Chats) != 1 || got.Chats[0].ID != 123456789 {
		t.Errorf("DiscoverChats() = %+v", got)
	}

	_, empty := newFakeAPI(t, http.StatusOK, `{"ok":true,"result":[]}`)
	got, err = telegram.DiscoverChats(context.Background(), telegram.NewClient(empty.Client(), empty.URL, "123:abc", nil))
	if err != nil {
		t.Fatalf("DiscoverChats() error = %v", err)
	}
	if got.HasMessages || len(got.Chats) != 0 {
		t.Errorf("DiscoverChats() on no updates = %+v", got)
	}
}
