// Package message serves conversation history readback over REST.
package message

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
	"github.com/yeyunwen/ai-full-stack/internal/service/history"
)

const defaultEntryLimit = 10

// Handler 消息历史的HTTP处理器。
type Handler struct {
	store history.Store
}

// New 创建消息处理器。
func New(store history.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册消息相关的路由。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/messages", h.handleGetMessages)
}

type entryResponse struct {
	User      string           `json:"user"`
	Assistant string           `json:"assistant"`
	Payload   *catalog.Payload `json:"structuredPayload,omitempty"`
}

// handleGetMessages 返回按对组织的对话历史。
func (h *Handler) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "token query parameter is required")
		return
	}

	limit := defaultEntryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.store.RecentEntries(r.Context(), token, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	response := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, entryResponse{
			User:      entry.User,
			Assistant: entry.Assistant,
			Payload:   entry.Payload,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"entries": response})
}

// respondJSON 发送JSON响应。
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError 发送错误响应。
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
