// Package chatclient is a websocket client for the chat gateway. It drives
// one turn at a time and folds the inbound frames into a chatview
// conversation.
package chatclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/yeyunwen/ai-full-stack/internal/handler/gateway"
	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
	chatmodel "github.com/yeyunwen/ai-full-stack/internal/model/chat"
	"github.com/yeyunwen/ai-full-stack/internal/stream"
	"github.com/yeyunwen/ai-full-stack/pkg/chatview"
)

// Client holds one gateway connection. Not safe for concurrent turns; the
// protocol itself is one turn at a time per connection.
type Client struct {
	conn  *websocket.Conn
	token string
}

// Dial connects to the gateway websocket endpoint, e.g.
// ws://localhost:3001/api/chat/ws. The token identifies the history thread
// and may be empty, in which case the server assigns a per-connection one.
func Dial(ctx context.Context, url, token string) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return &Client{conn: conn, token: token}, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

type turnRequest struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Token string `json:"token,omitempty"`
}

// serverFrame is the union of every frame the gateway sends. Stream event
// fields sit at the top level next to the type tag.
type serverFrame struct {
	Type    string           `json:"type"`
	Data    json.RawMessage  `json:"data"`
	Message string           `json:"message"`
	Text    string           `json:"text"`
	Done    bool             `json:"done"`
	Payload *catalog.Payload `json:"structuredPayload"`
}

// SubmitTurnStream sends one user message and applies every resulting
// stream event to conv until the turn terminates. A turn error is recorded
// in the conversation, not returned; the error return covers transport and
// protocol failures only.
func (c *Client) SubmitTurnStream(ctx context.Context, text string, conv *chatview.Conversation) error {
	conv.AddUserMessage(text)

	if err := c.writeRequest(ctx, gateway.TypeSubmitTurnStream, text); err != nil {
		return err
	}

	for {
		frame, err := c.readFrame(ctx)
		if err != nil {
			return err
		}

		switch frame.Type {
		case gateway.TypeStreamEvent:
			ev := stream.Event{Text: frame.Text, Done: frame.Done, Payload: frame.Payload}
			conv.ApplyEvent(ev)
			if frame.Done {
				return nil
			}
		case gateway.TypeTurnError:
			conv.ApplyError(frame.Message)
			return nil
		default:
			return fmt.Errorf("unexpected frame type %q during stream turn", frame.Type)
		}
	}
}

// SubmitTurn sends one user message over the non-streaming path and returns
// the single terminal reply.
func (c *Client) SubmitTurn(ctx context.Context, text string) (chatmodel.Reply, error) {
	if err := c.writeRequest(ctx, gateway.TypeSubmitTurn, text); err != nil {
		return chatmodel.Reply{}, err
	}

	frame, err := c.readFrame(ctx)
	if err != nil {
		return chatmodel.Reply{}, err
	}

	switch frame.Type {
	case gateway.TypeReply:
		return decodeReply(frame.Data)
	case gateway.TypeTurnError:
		return chatmodel.Reply{}, fmt.Errorf("turn failed: %s", frame.Message)
	default:
		return chatmodel.Reply{}, fmt.Errorf("unexpected frame type %q for turn reply", frame.Type)
	}
}

func (c *Client) writeRequest(ctx context.Context, msgType, text string) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	if err := c.conn.WriteJSON(turnRequest{Type: msgType, Text: text, Token: c.token}); err != nil {
		return fmt.Errorf("write turn request: %w", err)
	}
	return nil
}

func (c *Client) readFrame(ctx context.Context) (serverFrame, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return serverFrame{}, err
		}
	}

	var frame serverFrame
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return serverFrame{}, fmt.Errorf("read frame: %w", err)
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return serverFrame{}, fmt.Errorf("decode frame: %w", err)
	}
	return frame, nil
}

// decodeReply handles the two reply shapes: a plain string or an inline
// recommendation document.
func decodeReply(data json.RawMessage) (chatmodel.Reply, error) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return chatmodel.Reply{Text: text}, nil
	}

	var doc catalog.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return chatmodel.Reply{}, fmt.Errorf("decode reply document: %w", err)
	}
	return chatmodel.Reply{Document: &doc}, nil
}
