package stream

import (
	"testing"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

func TestRecorderCapturesTextAndPayload(t *testing.T) {
	var forwarded []Event
	rec := NewRecorder(EmitterFunc(func(ev Event) error {
		forwarded = append(forwarded, ev)
		return nil
	}))

	payload := &catalog.Payload{Kind: catalog.KindProduct, IsExactMatch: true}
	events := []Event{
		{Text: "正在分析您的需求...\n\n"},
		{Text: "为您推荐："},
		{Done: true, Payload: payload},
	}
	for _, ev := range events {
		if err := rec.Emit(ev); err != nil {
			t.Fatalf("emit failed: %v", err)
		}
	}

	if got := rec.Text(); got != "正在分析您的需求...\n\n为您推荐：" {
		t.Errorf("unexpected recorded text: %q", got)
	}
	if rec.Payload() != payload {
		t.Errorf("last payload not captured: %+v", rec.Payload())
	}
	if !rec.Terminated() {
		t.Error("recorder should observe the done event")
	}
	if len(forwarded) != len(events) {
		t.Errorf("recording must not swallow events: forwarded %d of %d", len(forwarded), len(events))
	}
}

func TestRecorderForwardsBeforeIntercepting(t *testing.T) {
	rec := NewRecorder(Discard)
	if err := rec.Emit(Event{Text: "a"}); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if rec.Terminated() {
		t.Error("no done event was emitted")
	}
}
