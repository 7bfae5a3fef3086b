package handlers

import (
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaychat/internal/logger"
)

func TestRegisterAllCommands(t *testing.T) {
	t.Parallel()

	registered := RegisterAllCommands(HandlerDeps{Logger: logger.Discard()})
	for _, name := range []string{"/start", "/chatid"} {
		h, ok := registered[name]
		if !ok {
			t.Fatalf("command %s not registered", name)
		}
		if h.Handler == nil || "/"+h.Pattern != name {
			t.Errorf("command %s = %+v", name, h)
		}
	}
}

func TestWelcomeMessage(t *testing.T) {
	t.Parallel()

	if got := welcomeMessage(""); got != welcomeText {
		t.Errorf("welcomeMessage(\"\") = %q", got)
	}
	if got := welcomeMessage("https://chat.example.com/"); !strings.HasSuffix(got, "https://chat.example.com/") {
		t.Errorf("welcomeMessage() = %q, want base url", got)
	}
}

func TestChatIDMessage(t *testing.T) {
	t.Parallel()

	got := chatIDMessage(models.Chat{ID: -1001234567890, Type: "supergroup"})
	if !strings.Contains(got, "-1001234567890") || !strings.Contains(got, "supergroup") {
		t.Errorf("chatIDMessage() = %q", got)
	}
}
