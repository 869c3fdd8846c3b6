// Package chat orchestrates one user turn: classify intent, refine the
// query, dispatch to the matching stage, and hand the recorded reply to the
// history log once the stream ends.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cloudwego/eino/schema"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
	chatmodel "github.com/yeyunwen/ai-full-stack/internal/model/chat"
	"github.com/yeyunwen/ai-full-stack/internal/service/history"
	"github.com/yeyunwen/ai-full-stack/internal/stream"
)

// Assistant is the text-completion collaborator used by every stage.
type Assistant interface {
	ClassifyIntent(ctx context.Context, text string) (chatmodel.IntentResult, error)
	RefineQuery(ctx context.Context, text string, intent chatmodel.Intent, keywords []string) (catalog.RefinedQuery, error)
	ProductParams(ctx context.Context, text string, query catalog.RefinedQuery) catalog.ProductParams
	ActivityParams(ctx context.Context, text string, query catalog.RefinedQuery) catalog.ActivityParams
	GenerateAnswer(ctx context.Context, history []chatmodel.ConversationEntry, text string) (string, error)
	StreamAnswer(ctx context.Context, history []chatmodel.ConversationEntry, text string) (*schema.StreamReader[*schema.Message], error)
	StreamRationale(ctx context.Context, query catalog.RefinedQuery, item catalog.Item) (*schema.StreamReader[*schema.Message], error)
}

// Finder resolves item searches. Implementations absorb provider failure
// and always return a usable result.
type Finder interface {
	SearchProducts(ctx context.Context, params catalog.ProductParams) catalog.Result
	SearchActivities(ctx context.Context, params catalog.ActivityParams) catalog.Result
	SearchJourneys(ctx context.Context, params catalog.JourneyParams) catalog.Result
	SearchCoupons(ctx context.Context, params catalog.CouponParams) catalog.Result
}

// How many history pairs feed a general-answer turn.
const historyContextLimit = 5

// Service runs turns. One instance serves all connections; per-turn state
// lives on the stack so concurrent turns for different tokens stay
// independent.
type Service struct {
	assistant Assistant
	finder    Finder
	history   history.Store
}

// NewService wires the orchestrator with its collaborators.
func NewService(assistant Assistant, finder Finder, store history.Store) *Service {
	return &Service{assistant: assistant, finder: finder, history: store}
}

// Turn status fragments.
const (
	statusAnalyzing = "正在分析您的需求...\n\n"
	statusRefining  = "正在提炼查询参数...\n\n"
	apologyText     = "抱歉，AI服务暂时不可用，请稍后再试。"
)

// ProcessTurnStream runs the staged streaming pipeline for one user
// message. All output goes through emit; the returned error is non-nil only
// for failures before stage dispatch, which the transport reports as a turn
// error. The recorded reply is persisted either way.
func (s *Service) ProcessTurnStream(ctx context.Context, userText, token string, emit stream.Emitter) error {
	rec := stream.NewRecorder(emit)
	turnErr := s.runTurn(ctx, userText, token, rec)

	replyText, payload := rec.Text(), rec.Payload()
	if turnErr != nil {
		// The turn died before stage dispatch; status fragments are not a
		// reply worth keeping.
		replyText, payload = "", nil
	}
	s.persistTurn(ctx, token, userText, replyText, payload)
	return turnErr
}

func (s *Service) runTurn(ctx context.Context, userText, token string, emit stream.Emitter) error {
	s.emit(emit, stream.Event{Text: statusAnalyzing})

	intentRes, err := s.assistant.ClassifyIntent(ctx, userText)
	if err != nil {
		return fmt.Errorf("intent classification failed: %w", err)
	}

	s.emit(emit, stream.Event{Text: statusRefining})

	query, err := s.assistant.RefineQuery(ctx, userText, intentRes.Intent, intentRes.Keywords)
	if err != nil {
		// Refinement is best effort, the raw keywords remain usable.
		log.Printf("[chat] query refinement degraded to keywords: %v", err)
		query = catalog.RefinedQuery{
			Keywords:   intentRes.Keywords,
			UserIntent: "查找与“" + userText + "”相关的内容",
		}
	}

	if stage, ok := s.stageFor(intentRes.Intent, userText, query); ok {
		s.runItemStage(ctx, stage, query, emit)
	} else {
		s.runGeneralStage(ctx, token, userText, emit)
	}
	return nil
}

// ProcessTurn is the non-streaming path: the whole reply is returned as one
// value, either plain text or a recommendation document.
func (s *Service) ProcessTurn(ctx context.Context, userText, token string) (chatmodel.Reply, error) {
	intentRes, err := s.assistant.ClassifyIntent(ctx, userText)
	if err != nil {
		return chatmodel.Reply{}, fmt.Errorf("intent classification failed: %w", err)
	}

	kind, isItemIntent := intentRes.Intent.Kind()
	if !isItemIntent {
		entries := s.loadHistory(ctx, token)
		answer, err := s.assistant.GenerateAnswer(ctx, entries, userText)
		if err != nil {
			return chatmodel.Reply{}, fmt.Errorf("answer generation failed: %w", err)
		}
		s.persistTurn(ctx, token, userText, answer, nil)
		return chatmodel.Reply{Text: answer}, nil
	}

	query, err := s.assistant.RefineQuery(ctx, userText, intentRes.Intent, intentRes.Keywords)
	if err != nil {
		log.Printf("[chat] query refinement degraded to keywords: %v", err)
		query = catalog.RefinedQuery{
			Keywords:   intentRes.Keywords,
			UserIntent: "查找与“" + userText + "”相关的内容",
		}
	}

	stage, _ := s.stageFor(intentRes.Intent, userText, query)
	result := stage.fetch(ctx)
	result.Items = capItems(result.Items)

	items := s.narrateItems(ctx, query, result.Items, stream.Discard)
	doc := &catalog.Document{
		Text:         responseText(kind, query, result.IsExactMatch),
		Items:        items,
		Kind:         kind,
		IsExactMatch: result.IsExactMatch,
	}

	s.persistTurn(ctx, token, userText, doc.Text, doc.Payload())
	return chatmodel.Reply{Document: doc}, nil
}

// History returns the underlying history store.
func (s *Service) History() history.Store { return s.history }

func (s *Service) loadHistory(ctx context.Context, token string) []chatmodel.ConversationEntry {
	if token == "" {
		return nil
	}
	entries, err := s.history.RecentEntries(ctx, token, historyContextLimit)
	if err != nil {
		log.Printf("[chat] failed to load history for token=%s: %v", token, err)
		return nil
	}
	return entries
}

// persistTurn hands the turn to the history log. Write failures are logged
// and never surfaced: the events were already delivered.
func (s *Service) persistTurn(ctx context.Context, token, userText, replyText string, payload *catalog.Payload) {
	if token == "" {
		return
	}

	userMsg := chatmodel.Message{Token: token, Role: chatmodel.RoleUser, Content: userText}
	if err := s.history.SaveMessage(ctx, userMsg); err != nil {
		log.Printf("[chat] failed to save user message: %v", err)
	}

	if replyText == "" && payload == nil {
		return
	}

	assistantMsg := chatmodel.Message{Token: token, Role: chatmodel.RoleAssistant, Content: replyText}
	if payload != nil {
		assistantMsg.Kind = payload.Kind
		if data, err := json.Marshal(payload.Items); err == nil {
			assistantMsg.ItemsJSON = string(data)
		} else {
			log.Printf("[chat] failed to serialize payload items: %v", err)
		}
	}
	if err := s.history.SaveMessage(ctx, assistantMsg); err != nil {
		log.Printf("[chat] failed to save assistant message: %v", err)
	}
}

func (s *Service) emit(emit stream.Emitter, ev stream.Event) {
	if err := emit.Emit(ev); err != nil {
		log.Printf("[chat] emit failed: %v", err)
	}
}
