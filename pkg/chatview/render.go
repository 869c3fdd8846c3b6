package chatview

import (
	"encoding/json"
	"strings"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
	"github.com/yeyunwen/ai-full-stack/internal/stream"
)

const fenceDelimiter = "```"

// applyTo folds one event into a message. Payload-only events close the
// text portion; a fragment that is itself a complete recommendation
// document is unwrapped instead of being shown as raw JSON; everything
// else appends.
func applyTo(m *Message, ev stream.Event) {
	if ev.Payload != nil && ev.Text == "" {
		m.Payload = ev.Payload
		m.Streaming = false
		return
	}

	if doc := parseInlineDocument(ev.Text); doc != nil {
		m.RawText = doc.Text
		m.RenderableText = doc.Text
		m.Payload = doc.Payload()
		m.Streaming = false
		return
	}

	m.RawText += ev.Text
	m.RenderableText = balanceFences(m.RawText)
	if ev.Payload != nil {
		m.Payload = ev.Payload
	}
	m.Streaming = !ev.Done
}

// balanceFences appends a synthetic closing fence when the accumulated text
// holds an unterminated code block. Markdown renderers otherwise treat
// everything after the dangling fence as code. Display only; the raw text
// keeps the odd count.
func balanceFences(raw string) string {
	if strings.Count(raw, fenceDelimiter)%2 == 1 {
		return raw + "\n" + fenceDelimiter
	}
	return raw
}

// parseInlineDocument recognizes a fragment that is a complete JSON
// recommendation document. The fragment must be a single object carrying
// the text, items and type keys; anything else renders as plain text.
func parseInlineDocument(fragment string) *catalog.Document {
	trimmed := strings.TrimSpace(fragment)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return nil
	}
	for _, key := range []string{"text", "items", "type"} {
		if _, ok := probe[key]; !ok {
			return nil
		}
	}

	var doc catalog.Document
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil
	}
	return &doc
}
