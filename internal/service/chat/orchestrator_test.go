package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
	chatmodel "github.com/yeyunwen/ai-full-stack/internal/model/chat"
	"github.com/yeyunwen/ai-full-stack/internal/service/ai"
	"github.com/yeyunwen/ai-full-stack/internal/service/history"
	"github.com/yeyunwen/ai-full-stack/internal/stream"
)

type fakeAssistant struct {
	intent    chatmodel.IntentResult
	intentErr error

	refined   catalog.RefinedQuery
	refineErr error

	answer       string
	answerChunks []string
	answerErr    error

	rationales   map[string][]string
	rationaleErr error

	lastRefineKeywords []string
	lastProductQuery   catalog.RefinedQuery
	lastAnswerHistory  []chatmodel.ConversationEntry
}

func (f *fakeAssistant) ClassifyIntent(context.Context, string) (chatmodel.IntentResult, error) {
	return f.intent, f.intentErr
}

func (f *fakeAssistant) RefineQuery(_ context.Context, _ string, _ chatmodel.Intent, keywords []string) (catalog.RefinedQuery, error) {
	f.lastRefineKeywords = keywords
	if f.refineErr != nil {
		return catalog.RefinedQuery{}, f.refineErr
	}
	return f.refined, nil
}

func (f *fakeAssistant) ProductParams(_ context.Context, _ string, query catalog.RefinedQuery) catalog.ProductParams {
	f.lastProductQuery = query
	return catalog.ProductParams{Keywords: query.Keywords}
}

func (f *fakeAssistant) ActivityParams(_ context.Context, _ string, query catalog.RefinedQuery) catalog.ActivityParams {
	return catalog.ActivityParams{Keywords: query.Keywords}
}

func (f *fakeAssistant) GenerateAnswer(_ context.Context, entries []chatmodel.ConversationEntry, _ string) (string, error) {
	f.lastAnswerHistory = entries
	return f.answer, f.answerErr
}

func (f *fakeAssistant) StreamAnswer(_ context.Context, entries []chatmodel.ConversationEntry, _ string) (*schema.StreamReader[*schema.Message], error) {
	f.lastAnswerHistory = entries
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	return textStream(f.answerChunks...), nil
}

func (f *fakeAssistant) StreamRationale(_ context.Context, _ catalog.RefinedQuery, item catalog.Item) (*schema.StreamReader[*schema.Message], error) {
	if f.rationaleErr != nil {
		return nil, f.rationaleErr
	}
	return textStream(f.rationales[catalog.ItemID(item)]...), nil
}

func textStream(chunks ...string) *schema.StreamReader[*schema.Message] {
	messages := make([]*schema.Message, 0, len(chunks))
	for _, chunk := range chunks {
		messages = append(messages, schema.AssistantMessage(chunk, nil))
	}
	return schema.StreamReaderFromArray(messages)
}

type fakeFinder struct {
	products   catalog.Result
	activities catalog.Result
	journeys   catalog.Result
	coupons    catalog.Result

	lastProductParams catalog.ProductParams
}

func (f *fakeFinder) SearchProducts(_ context.Context, params catalog.ProductParams) catalog.Result {
	f.lastProductParams = params
	return f.products
}

func (f *fakeFinder) SearchActivities(context.Context, catalog.ActivityParams) catalog.Result {
	return f.activities
}

func (f *fakeFinder) SearchJourneys(context.Context, catalog.JourneyParams) catalog.Result {
	return f.journeys
}

func (f *fakeFinder) SearchCoupons(context.Context, catalog.CouponParams) catalog.Result {
	return f.coupons
}

type eventSink struct {
	events []stream.Event
}

func (s *eventSink) Emit(ev stream.Event) error {
	s.events = append(s.events, ev)
	return nil
}

func (s *eventSink) allText() string {
	var b strings.Builder
	for _, ev := range s.events {
		b.WriteString(ev.Text)
	}
	return b.String()
}

func (s *eventSink) terminal() (stream.Event, bool) {
	for _, ev := range s.events {
		if ev.Done {
			return ev, true
		}
	}
	return stream.Event{}, false
}

func TestProductTurnStreamsAndPersists(t *testing.T) {
	assistant := &fakeAssistant{
		intent:  chatmodel.IntentResult{Intent: chatmodel.IntentProduct, Keywords: []string{"手机"}},
		refined: catalog.RefinedQuery{Keywords: []string{"手机"}, UserIntent: "找一款手机"},
		rationales: map[string][]string{
			"p1": {"轻薄", "长续航"},
			"p2": {"性价比高"},
		},
	}
	finder := &fakeFinder{products: catalog.Result{
		Items: []catalog.Item{
			catalog.Product{ID: "p1", Name: "星辰手机", Price: 999, Sales: 100},
			catalog.Product{ID: "p2", Name: "青云手机", Price: 899, Sales: 50},
		},
		IsExactMatch: true,
	}}
	store := history.NewMemoryStore()
	svc := NewService(assistant, finder, store)

	sink := &eventSink{}
	if err := svc.ProcessTurnStream(context.Background(), "推荐一款千元以下的手机", "t1", sink); err != nil {
		t.Fatalf("stream turn failed: %v", err)
	}

	if len(sink.events) < 4 {
		t.Fatalf("expected status/search/text/terminal events, got %d", len(sink.events))
	}
	if sink.events[0].Text != statusAnalyzing {
		t.Errorf("first event should announce analysis, got %q", sink.events[0].Text)
	}
	if sink.events[1].Text != statusRefining {
		t.Errorf("second event should announce refinement, got %q", sink.events[1].Text)
	}

	text := sink.allText()
	if !strings.Contains(text, "根据您的需求“手机”") {
		t.Errorf("expected exact-match phrasing in %q", text)
	}
	if !strings.Contains(text, "1. **星辰手机**：轻薄长续航") {
		t.Errorf("rationale fragments not forwarded verbatim: %q", text)
	}

	terminal, ok := sink.terminal()
	if !ok {
		t.Fatal("no terminal event emitted")
	}
	if last := sink.events[len(sink.events)-1]; !last.Done {
		t.Error("terminal event must come last")
	}
	if terminal.Payload == nil {
		t.Fatal("terminal event missing structured payload")
	}
	if terminal.Payload.Kind != catalog.KindProduct || !terminal.Payload.IsExactMatch {
		t.Errorf("unexpected payload header: %+v", terminal.Payload)
	}
	if len(terminal.Payload.Items) != 2 {
		t.Fatalf("expected 2 payload items, got %d", len(terminal.Payload.Items))
	}
	first, ok := terminal.Payload.Items[0].(catalog.Product)
	if !ok {
		t.Fatalf("payload item has wrong type %T", terminal.Payload.Items[0])
	}
	if first.RecommendReason != "轻薄长续航" {
		t.Errorf("payload item should carry the narrated rationale, got %q", first.RecommendReason)
	}

	saved, err := store.RecentMessages(context.Background(), "t1", 0)
	if err != nil {
		t.Fatalf("reading history: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected user+assistant rows, got %d", len(saved))
	}
	if saved[0].Role != chatmodel.RoleUser || saved[1].Role != chatmodel.RoleAssistant {
		t.Errorf("unexpected row roles: %s / %s", saved[0].Role, saved[1].Role)
	}
	if saved[1].Kind != catalog.KindProduct || saved[1].ItemsJSON == "" {
		t.Errorf("assistant row should carry serialized items, got kind=%q itemsJSON=%q", saved[1].Kind, saved[1].ItemsJSON)
	}
}

func TestFallbackResultStillTerminates(t *testing.T) {
	assistant := &fakeAssistant{
		intent:     chatmodel.IntentResult{Intent: chatmodel.IntentProduct, Keywords: []string{"滑雪板"}},
		refined:    catalog.RefinedQuery{Keywords: []string{"滑雪板"}},
		rationales: map[string][]string{},
	}
	finder := &fakeFinder{products: catalog.Result{
		Items: []catalog.Item{
			catalog.Product{ID: "s1", Name: "样例商品A", Sales: 10},
			catalog.Product{ID: "s2", Name: "样例商品B", Sales: 20},
		},
		IsExactMatch: false,
	}}
	svc := NewService(assistant, finder, history.NewMemoryStore())

	sink := &eventSink{}
	if err := svc.ProcessTurnStream(context.Background(), "有滑雪板吗", "t1", sink); err != nil {
		t.Fatalf("degraded turn should not error: %v", err)
	}

	if !strings.Contains(sink.allText(), "很抱歉，没有找到与“滑雪板”完全匹配的商品") {
		t.Errorf("expected fallback phrasing in %q", sink.allText())
	}
	terminal, ok := sink.terminal()
	if !ok {
		t.Fatal("fallback turn must still terminate")
	}
	if terminal.Payload == nil || terminal.Payload.IsExactMatch {
		t.Errorf("payload should flag the inexact match: %+v", terminal.Payload)
	}
}

func TestClassificationFailureIsFatal(t *testing.T) {
	assistant := &fakeAssistant{intentErr: errors.New("model unavailable")}
	store := history.NewMemoryStore()
	svc := NewService(assistant, &fakeFinder{}, store)

	sink := &eventSink{}
	err := svc.ProcessTurnStream(context.Background(), "推荐个手机", "t1", sink)
	if err == nil {
		t.Fatal("classification failure must surface as a turn error")
	}

	if _, ok := sink.terminal(); ok {
		t.Error("no done event should be emitted for a fatal turn")
	}

	saved, _ := store.RecentMessages(context.Background(), "t1", 0)
	if len(saved) != 1 || saved[0].Role != chatmodel.RoleUser {
		t.Errorf("only the user row should persist on a fatal turn, got %d rows", len(saved))
	}
}

func TestRefinementFailureFallsBackToKeywords(t *testing.T) {
	assistant := &fakeAssistant{
		intent:     chatmodel.IntentResult{Intent: chatmodel.IntentProduct, Keywords: []string{"耳机"}},
		refineErr:  errors.New("model timeout"),
		rationales: map[string][]string{},
	}
	finder := &fakeFinder{products: catalog.Result{IsExactMatch: true}}
	svc := NewService(assistant, finder, history.NewMemoryStore())

	sink := &eventSink{}
	if err := svc.ProcessTurnStream(context.Background(), "有降噪耳机吗", "t1", sink); err != nil {
		t.Fatalf("refinement failure must not abort the turn: %v", err)
	}

	if got := assistant.lastProductQuery.Keywords; len(got) != 1 || got[0] != "耳机" {
		t.Errorf("stage should run on the raw keywords, got %v", got)
	}
	if assistant.lastProductQuery.UserIntent == "" {
		t.Error("fallback query should synthesize a user intent")
	}
	if _, ok := sink.terminal(); !ok {
		t.Error("turn must still terminate")
	}
}

func TestItemListCappedAtFive(t *testing.T) {
	items := make([]catalog.Item, 0, 7)
	for i := 0; i < 7; i++ {
		items = append(items, catalog.Product{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("商品%d", i)})
	}
	assistant := &fakeAssistant{
		intent:     chatmodel.IntentResult{Intent: chatmodel.IntentProduct, Keywords: []string{"商品"}},
		refined:    catalog.RefinedQuery{Keywords: []string{"商品"}},
		rationales: map[string][]string{},
	}
	finder := &fakeFinder{products: catalog.Result{Items: items, IsExactMatch: true}}
	svc := NewService(assistant, finder, history.NewMemoryStore())

	sink := &eventSink{}
	if err := svc.ProcessTurnStream(context.Background(), "看看商品", "t1", sink); err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	terminal, _ := sink.terminal()
	if terminal.Payload == nil || len(terminal.Payload.Items) != 5 {
		t.Fatalf("expected payload capped at 5 items, got %+v", terminal.Payload)
	}
}

func TestRationaleFailureSubstitutesDefault(t *testing.T) {
	item := catalog.Product{ID: "p1", Name: "星辰手机", Sales: 100}
	assistant := &fakeAssistant{
		intent:       chatmodel.IntentResult{Intent: chatmodel.IntentProduct, Keywords: []string{"手机"}},
		refined:      catalog.RefinedQuery{Keywords: []string{"手机"}},
		rationaleErr: errors.New("model overloaded"),
	}
	finder := &fakeFinder{products: catalog.Result{Items: []catalog.Item{item}, IsExactMatch: true}}
	svc := NewService(assistant, finder, history.NewMemoryStore())

	sink := &eventSink{}
	if err := svc.ProcessTurnStream(context.Background(), "推荐个手机", "t1", sink); err != nil {
		t.Fatalf("rationale failure must not abort the turn: %v", err)
	}

	want := ai.DefaultReason(item)
	if !strings.Contains(sink.allText(), want) {
		t.Errorf("expected default reason %q in %q", want, sink.allText())
	}

	terminal, _ := sink.terminal()
	got, ok := terminal.Payload.Items[0].(catalog.Product)
	if !ok || got.RecommendReason != want {
		t.Errorf("payload item should carry the default reason, got %+v", terminal.Payload.Items[0])
	}
}

func TestGeneralTurnStreamsAnswerWithHistory(t *testing.T) {
	store := history.NewMemoryStore()
	ctx := context.Background()
	if err := store.SaveMessage(ctx, chatmodel.Message{Token: "t1", Role: chatmodel.RoleUser, Content: "你好"}); err != nil {
		t.Fatalf("seeding history: %v", err)
	}
	if err := store.SaveMessage(ctx, chatmodel.Message{Token: "t1", Role: chatmodel.RoleAssistant, Content: "你好，有什么可以帮您？"}); err != nil {
		t.Fatalf("seeding history: %v", err)
	}

	assistant := &fakeAssistant{
		intent:       chatmodel.IntentResult{Intent: chatmodel.IntentGeneral},
		answerChunks: []string{"今天", "天气不错。"},
	}
	svc := NewService(assistant, &fakeFinder{}, store)

	sink := &eventSink{}
	if err := svc.ProcessTurnStream(ctx, "今天天气怎么样", "t1", sink); err != nil {
		t.Fatalf("general turn failed: %v", err)
	}

	if len(assistant.lastAnswerHistory) != 1 || assistant.lastAnswerHistory[0].User != "你好" {
		t.Errorf("answer should see the prior pair, got %+v", assistant.lastAnswerHistory)
	}
	if !strings.Contains(sink.allText(), "今天天气不错。") {
		t.Errorf("answer fragments not forwarded: %q", sink.allText())
	}

	terminal, ok := sink.terminal()
	if !ok {
		t.Fatal("general turn must terminate")
	}
	if terminal.Payload != nil {
		t.Error("general answers carry no structured payload")
	}
}

func TestGeneralAnswerFailureApologizes(t *testing.T) {
	assistant := &fakeAssistant{
		intent:    chatmodel.IntentResult{Intent: chatmodel.IntentGeneral},
		answerErr: errors.New("model unavailable"),
	}
	svc := NewService(assistant, &fakeFinder{}, history.NewMemoryStore())

	sink := &eventSink{}
	if err := svc.ProcessTurnStream(context.Background(), "随便聊聊", "t1", sink); err != nil {
		t.Fatalf("answer failure stays inside the stage: %v", err)
	}

	terminal, ok := sink.terminal()
	if !ok {
		t.Fatal("stage must emit a terminal event even on failure")
	}
	if terminal.Text != apologyText {
		t.Errorf("expected apology fragment, got %q", terminal.Text)
	}
}

func TestProcessTurnReturnsDocument(t *testing.T) {
	assistant := &fakeAssistant{
		intent:     chatmodel.IntentResult{Intent: chatmodel.IntentProduct, Keywords: []string{"手机"}},
		refined:    catalog.RefinedQuery{Keywords: []string{"手机"}},
		rationales: map[string][]string{"p1": {"口碑好"}},
	}
	finder := &fakeFinder{products: catalog.Result{
		Items:        []catalog.Item{catalog.Product{ID: "p1", Name: "星辰手机"}},
		IsExactMatch: true,
	}}
	store := history.NewMemoryStore()
	svc := NewService(assistant, finder, store)

	reply, err := svc.ProcessTurn(context.Background(), "推荐个手机", "t1")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if reply.Document == nil {
		t.Fatal("product turn should return a document")
	}
	if reply.Document.Kind != catalog.KindProduct || len(reply.Document.Items) != 1 {
		t.Errorf("unexpected document: %+v", reply.Document)
	}

	saved, _ := store.RecentMessages(context.Background(), "t1", 0)
	if len(saved) != 2 {
		t.Fatalf("expected user+assistant rows, got %d", len(saved))
	}
}

func TestProcessTurnGeneralReturnsText(t *testing.T) {
	assistant := &fakeAssistant{
		intent: chatmodel.IntentResult{Intent: chatmodel.IntentGeneral},
		answer: "好的，我来帮您。",
	}
	svc := NewService(assistant, &fakeFinder{}, history.NewMemoryStore())

	reply, err := svc.ProcessTurn(context.Background(), "帮我个忙", "t1")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if reply.Document != nil || reply.Text != "好的，我来帮您。" {
		t.Errorf("unexpected reply: %+v", reply)
	}
}
