package chat

import (
	"encoding/json"
	"log"
	"time"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

// Roles stored in the history log.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one row of the append-only conversation history, keyed by the
// opaque session token. Assistant rows may carry the serialized item list of
// the turn's structured payload.
type Message struct {
	ID        string       `json:"id"`
	Token     string       `json:"token"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	ItemsJSON string       `json:"itemsJson,omitempty"`
	Kind      catalog.Kind `json:"kind,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ConversationEntry pairs a user message with the assistant reply that
// followed it, used as model context for general-answer turns.
type ConversationEntry struct {
	User      string
	Assistant string
	Payload   *catalog.Payload
}

// PairEntries folds messages (oldest first) into user/assistant pairs.
// Pairing is positional: an unpaired trailing user row is tolerated and
// excluded from the result.
func PairEntries(messages []Message) []ConversationEntry {
	entries := make([]ConversationEntry, 0, len(messages)/2)
	for i := 0; i < len(messages); i++ {
		if messages[i].Role != RoleUser {
			continue
		}
		if i+1 >= len(messages) || messages[i+1].Role != RoleAssistant {
			continue
		}

		assistant := messages[i+1]
		entry := ConversationEntry{
			User:      messages[i].Content,
			Assistant: assistant.Content,
		}
		if assistant.ItemsJSON != "" && assistant.Kind.Valid() {
			entry.Payload = decodeStoredItems(assistant.Kind, assistant.ItemsJSON)
		}
		entries = append(entries, entry)
		i++
	}
	return entries
}

func decodeStoredItems(kind catalog.Kind, itemsJSON string) *catalog.Payload {
	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(itemsJSON), &raws); err != nil {
		log.Printf("[history] stored items unreadable, skipping: %v", err)
		return nil
	}
	items, err := catalog.DecodeItems(kind, raws)
	if err != nil {
		log.Printf("[history] stored items unreadable, skipping: %v", err)
		return nil
	}
	return &catalog.Payload{Kind: kind, Items: items}
}

// Reply is the outcome of a non-streaming turn: either plain text or a
// recommendation document, never both.
type Reply struct {
	Text     string
	Document *catalog.Document
}
