// Package history persists the append-only conversation log keyed by the
// opaque session token.
package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	chatmodel "github.com/yeyunwen/ai-full-stack/internal/model/chat"
)

var ErrTokenRequired = errors.New("session token is required")

// Store is the append-only history log. One row per message, ordered by
// creation time.
type Store interface {
	SaveMessage(ctx context.Context, message chatmodel.Message) error
	RecentMessages(ctx context.Context, token string, limit int) ([]chatmodel.Message, error)
	RecentEntries(ctx context.Context, token string, limit int) ([]chatmodel.ConversationEntry, error)
}

// MemoryStore implements Store with in-memory slices, suitable for tests
// and for running without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]chatmodel.Message
}

// NewMemoryStore bootstraps the in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[string][]chatmodel.Message)}
}

// SaveMessage appends a message to the token's log.
func (s *MemoryStore) SaveMessage(_ context.Context, message chatmodel.Message) error {
	if message.Token == "" {
		return ErrTokenRequired
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.messages[message.Token] = append(s.messages[message.Token], message)
	s.mu.Unlock()
	return nil
}

// RecentMessages returns the newest limit messages for the token, oldest
// first.
func (s *MemoryStore) RecentMessages(_ context.Context, token string, limit int) ([]chatmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[token]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}

	copied := make([]chatmodel.Message, len(all)-start)
	copy(copied, all[start:])
	return copied, nil
}

// RecentEntries returns up to limit user/assistant pairs, oldest first.
func (s *MemoryStore) RecentEntries(ctx context.Context, token string, limit int) ([]chatmodel.ConversationEntry, error) {
	// Two rows per pair, read a little extra to survive unpaired rows.
	messages, err := s.RecentMessages(ctx, token, limit*2)
	if err != nil {
		return nil, err
	}
	return chatmodel.PairEntries(messages), nil
}
