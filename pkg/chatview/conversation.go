// Package chatview reconstructs logical messages from the stream events a
// chat session receives, and keeps a display-safe projection of each
// message's text while it is still arriving.
package chatview

import (
	"github.com/google/uuid"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
	"github.com/yeyunwen/ai-full-stack/internal/stream"
)

// Role 标识消息的来源。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// Message is one reconstructed conversation entry. RawText accumulates the
// fragments exactly as they arrived; RenderableText is the display-safe
// projection and may carry a synthetic fence closer RawText does not.
type Message struct {
	ID             string
	Role           Role
	RawText        string
	RenderableText string
	Payload        *catalog.Payload
	Streaming      bool
}

// Conversation correlates inbound stream events with logical messages. One
// message is open at a time; events are applied by id lookup so a stale
// pointer can never route a fragment to the wrong message.
type Conversation struct {
	messages []Message
	openID   string
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// AddUserMessage appends the user's own message and returns its id.
func (c *Conversation) AddUserMessage(text string) string {
	id := uuid.NewString()
	c.messages = append(c.messages, Message{
		ID:             id,
		Role:           RoleUser,
		RawText:        text,
		RenderableText: text,
	})
	return id
}

// ApplyEvent feeds one stream event into the conversation.
func (c *Conversation) ApplyEvent(ev stream.Event) {
	if c.openID != "" {
		if m := c.messageByID(c.openID); m != nil {
			applyTo(m, ev)
			if ev.Done {
				m.Streaming = false
				c.openID = ""
			}
			return
		}
		c.openID = ""
	}

	// Nothing open. A bare terminator carries no content and is dropped.
	if ev.Text == "" && ev.Payload == nil {
		return
	}

	// A payload with no text arriving after its message already closed
	// belongs to that message, not to a new one.
	if ev.Text == "" {
		if m := c.lastAssistantMessage(); m != nil && m.Payload == nil && !m.Streaming {
			m.Payload = ev.Payload
			return
		}
	}

	c.messages = append(c.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Streaming: true,
	})
	m := &c.messages[len(c.messages)-1]
	applyTo(m, ev)
	if ev.Done {
		m.Streaming = false
		return
	}
	if m.Streaming {
		c.openID = m.ID
	}
}

// ApplyError records a turn error. Whatever message is open is closed first:
// the error frame doubles as a stream terminator.
func (c *Conversation) ApplyError(message string) {
	if c.openID != "" {
		if m := c.messageByID(c.openID); m != nil {
			m.Streaming = false
		}
		c.openID = ""
	}
	c.messages = append(c.messages, Message{
		ID:             uuid.NewString(),
		Role:           RoleError,
		RawText:        message,
		RenderableText: message,
	})
}

// Messages returns a snapshot of the conversation in arrival order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Open reports whether a message is still receiving fragments.
func (c *Conversation) Open() bool { return c.openID != "" }

func (c *Conversation) messageByID(id string) *Message {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return &c.messages[i]
		}
	}
	return nil
}

func (c *Conversation) lastAssistantMessage() *Message {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			return &c.messages[i]
		}
	}
	return nil
}
