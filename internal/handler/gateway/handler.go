// Package gateway exposes the chat pipeline over a bidirectional websocket
// channel, one channel per session.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	chatmodel "github.com/yeyunwen/ai-full-stack/internal/model/chat"
	"github.com/yeyunwen/ai-full-stack/internal/stream"
)

// Wire message types.
const (
	TypeSubmitTurn       = "submit_turn"
	TypeSubmitTurnStream = "submit_turn_stream"
	TypeReply            = "reply"
	TypeStreamEvent      = "stream_event"
	TypeTurnError        = "turn_error"
)

// TurnProcessor runs one user turn against the pipeline.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, userText, token string) (chatmodel.Reply, error)
	ProcessTurnStream(ctx context.Context, userText, token string, emit stream.Emitter) error
}

// Handler upgrades connections and relays turns. The read loop processes
// one turn at a time, so writes for a connection never interleave.
type Handler struct {
	turns    TurnProcessor
	upgrader websocket.Upgrader
}

// New creates the websocket gateway.
func New(turns TurnProcessor) *Handler {
	return &Handler{
		turns: turns,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册聊天网关路由。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleWebSocket)
}

type clientEnvelope struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Token string `json:"token,omitempty"`
}

type replyMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type streamEventMessage struct {
	Type string `json:"type"`
	stream.Event
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Fallback identity when the client carries no token of its own. Stable
	// for the lifetime of the connection.
	connToken := uuid.NewString()
	log.Printf("[gateway] client connected: %s", connToken)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[gateway] client disconnected: %s", connToken)
			return
		}

		var envelope clientEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			h.writeTurnError(conn, "无法解析请求")
			continue
		}

		token := envelope.Token
		if token == "" {
			token = connToken
		}

		switch envelope.Type {
		case TypeSubmitTurn:
			h.handleSubmitTurn(r.Context(), conn, envelope.Text, token)
		case TypeSubmitTurnStream:
			h.handleSubmitTurnStream(r.Context(), conn, envelope.Text, token)
		default:
			h.writeTurnError(conn, "未知的消息类型")
		}
	}
}

func (h *Handler) handleSubmitTurn(ctx context.Context, conn *websocket.Conn, text, token string) {
	reply, err := h.turns.ProcessTurn(ctx, text, token)
	if err != nil {
		log.Printf("[gateway] turn failed for token=%s: %v", token, err)
		h.writeTurnError(conn, "处理消息时发生错误")
		return
	}

	var data any = reply.Text
	if reply.Document != nil {
		data = reply.Document
	}
	if err := conn.WriteJSON(replyMessage{Type: TypeReply, Data: data}); err != nil {
		log.Printf("[gateway] reply write failed for token=%s: %v", token, err)
	}
}

func (h *Handler) handleSubmitTurnStream(ctx context.Context, conn *websocket.Conn, text, token string) {
	emitter := &connEmitter{conn: conn}
	if err := h.turns.ProcessTurnStream(ctx, text, token, emitter); err != nil {
		// The error frame doubles as an implicit terminator for whatever
		// message the client currently has open.
		log.Printf("[gateway] stream turn failed for token=%s: %v", token, err)
		h.writeTurnError(conn, "处理消息时发生错误")
	}
}

func (h *Handler) writeTurnError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(errorMessage{Type: TypeTurnError, Message: message}); err != nil {
		log.Printf("[gateway] error write failed: %v", err)
	}
}

// connEmitter adapts a websocket connection to the stream emitter contract.
// Once a write fails the connection is gone; further events are dropped so
// the turn can finish its side work (persistence) undisturbed.
type connEmitter struct {
	conn   *websocket.Conn
	failed bool
}

func (e *connEmitter) Emit(ev stream.Event) error {
	if e.failed {
		return nil
	}
	if err := e.conn.WriteJSON(streamEventMessage{Type: TypeStreamEvent, Event: ev}); err != nil {
		e.failed = true
		log.Printf("[gateway] stream write failed, muting turn output: %v", err)
	}
	return nil
}
