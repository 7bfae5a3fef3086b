package database

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/edgard/relaychat/internal/logger"
)

// memoryStore keeps the log in process memory behind a single mutex.
type memoryStore struct {
	mu       sync.RWMutex
	messages []ChatMessage
	capacity int
	logger   *slog.Logger
}

// NewMemoryStore creates an in-memory Store retaining at most capacity messages.
func NewMemoryStore(capacity int, log *slog.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	if capacity <= 0 {
		capacity = 100
	}
	return &memoryStore{
		messages: make([]ChatMessage, 0, capacity),
		capacity: capacity,
		logger:   log.With("component", "store", "driver", "memory"),
	}
}

func (s *memoryStore) Capacity() int {
	return s.capacity
}

func (s *memoryStore) Ping(context.Context) error {
	return nil
}

func (s *memoryStore) Append(ctx context.Context, message ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, message)
	if overflow := len(s.messages) - s.capacity; overflow > 0 {
		n := copy(s.messages, s.messages[overflow:])
		clear(s.messages[n:])
		s.messages = s.messages[:n]
		s.logger.DebugContext(ctx, "Evicted oldest messages", "count", overflow)
	}
	return nil
}

func (s *memoryStore) List(context.Context) ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.messages), nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.messages)
	clear(s.messages)
	s.messages = s.messages[:0]
	s.logger.InfoContext(ctx, "Cleared messages", "count", count)
	return nil
}
