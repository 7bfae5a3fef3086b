package telegram

import (
	"context"
	"sort"
	"strings"

	"github.com/go-telegram/bot/models"
)

// discoveryLimit is how many recent updates chat discovery inspects.
const discoveryLimit = 100

// ChatCandidate is a chat seen in recent updates.
type ChatCandidate struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Username string `json:"username,omitempty"`
}

// Discovery is the result of scanning recent updates for chats.
type Discovery struct {
	Chats       []ChatCandidate `json:"chatIds"`
	HasMessages bool            `json:"hasMessages"`
}

// DiscoverChats fetches recent updates and lists the chats they came from.
// It fails while a webhook is registered, since Telegram rejects getUpdates then.
func DiscoverChats(ctx context.Context, client *Client) (*Discovery, error) {
	updates, err := client.GetUpdates(ctx, discoveryLimit)
	if err != nil {
		return nil, err
	}
	return &Discovery{
		Chats:       CollectChats(updates),
		HasMessages: len(updates) > 0,
	}, nil
}

// CollectChats returns the distinct chats in updates, deduplicated by chat id
// and sorted by id.
func CollectChats(updates []models.Update) []ChatCandidate {
	byID := make(map[int64]ChatCandidate)
	for _, update := range updates {
		for _, msg := range []*models.Message{update.Message, update.EditedMessage, update.ChannelPost, update.EditedChannelPost} {
			if msg == nil || msg.Chat.ID == 0 {
				continue
			}
			if _, seen := byID[msg.Chat.ID]; seen {
				continue
			}
			byID[msg.Chat.ID] = candidateFromChat(msg.Chat)
		}
	}

	chats := make([]ChatCandidate, 0, len(byID))
	for _, candidate := range byID {
		chats = append(chats, candidate)
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].ID < chats[j].ID
	})
	return chats
}

func candidateFromChat(chat models.Chat) ChatCandidate {
	title := chat.Title
	if title == "" {
		title = strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	}
	return ChatCandidate{
		ID:       chat.ID,
		Type:     string(chat.Type),
		Title:    title,
		Username: chat.Username,
	}
}
