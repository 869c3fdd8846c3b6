// Package stream defines the chunked output contract every pipeline stage
// writes to. One turn produces a totally ordered event sequence terminated
// by exactly one event with Done=true; the structured payload appears on at
// most one event and may or may not coincide with the terminal one.
package stream

import "github.com/yeyunwen/ai-full-stack/internal/model/catalog"

// Event is the atomic unit crossing the transport boundary.
type Event struct {
	Text    string           `json:"text"`
	Done    bool             `json:"done"`
	Payload *catalog.Payload `json:"structuredPayload,omitempty"`
}

// Emitter pushes events toward the transport. Implementations decide what a
// delivery failure means; a sink that has lost its client should swallow
// writes rather than fail the turn.
type Emitter interface {
	Emit(ev Event) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ev Event) error

// Emit calls f.
func (f EmitterFunc) Emit(ev Event) error { return f(ev) }

// Discard is an Emitter that drops every event.
var Discard Emitter = EmitterFunc(func(Event) error { return nil })
