package stream

import (
	"strings"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

// Recorder forwards events to an inner emitter while capturing the
// concatenated reply text and the last structured payload seen. It is a side
// observation for persistence: recording never blocks or reorders delivery.
type Recorder struct {
	inner   Emitter
	text    strings.Builder
	payload *catalog.Payload
	done    bool
}

// NewRecorder wraps inner.
func NewRecorder(inner Emitter) *Recorder {
	return &Recorder{inner: inner}
}

// Emit records the event, then forwards it.
func (r *Recorder) Emit(ev Event) error {
	r.text.WriteString(ev.Text)
	if ev.Payload != nil {
		r.payload = ev.Payload
	}
	if ev.Done {
		r.done = true
	}
	return r.inner.Emit(ev)
}

// Text returns the ordered concatenation of every fragment emitted so far.
func (r *Recorder) Text() string { return r.text.String() }

// Payload returns the last structured payload emitted, if any.
func (r *Recorder) Payload() *catalog.Payload { return r.payload }

// Terminated reports whether a Done event has passed through.
func (r *Recorder) Terminated() bool { return r.done }
