package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/yeyunwen/ai-full-stack/internal/config"
	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
	chatmodel "github.com/yeyunwen/ai-full-stack/internal/model/chat"
)

// Service wraps the text-completion collaborator. Every call site treats it
// as a black box returning either a full message or a fragment stream.
type Service struct {
	chatModel      model.ChatModel
	cfg            config.AIConfig
	answerChain    compose.Runnable[map[string]any, *schema.Message]
	intentChain    compose.Runnable[map[string]any, *schema.Message]
	refineChain    compose.Runnable[map[string]any, *schema.Message]
	productChain   compose.Runnable[map[string]any, *schema.Message]
	activityChain  compose.Runnable[map[string]any, *schema.Message]
	rationaleChain compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the AI service and compiles one chain per task.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	svc := &Service{chatModel: chatModel, cfg: cfg}

	answerTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(answerSystemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)
	if svc.answerChain, err = compileChain(ctx, chatModel, answerTemplate); err != nil {
		return nil, fmt.Errorf("failed to compile answer chain: %w", err)
	}

	tasks := []struct {
		target *compose.Runnable[map[string]any, *schema.Message]
		system string
		user   string
	}{
		{&svc.intentChain, intentSystemPrompt, intentUserPrompt},
		{&svc.refineChain, refineSystemPrompt, refineUserPrompt},
		{&svc.productChain, productParamsSystemPrompt, productParamsUserPrompt},
		{&svc.activityChain, activityParamsSystemPrompt, activityParamsUserPrompt},
		{&svc.rationaleChain, rationaleSystemPrompt, rationaleUserPrompt},
	}
	for _, task := range tasks {
		template := prompt.FromMessages(
			schema.FString,
			schema.SystemMessage(task.system),
			schema.UserMessage(task.user),
		)
		runnable, err := compileChain(ctx, chatModel, template)
		if err != nil {
			return nil, fmt.Errorf("failed to compile task chain: %w", err)
		}
		*task.target = runnable
	}

	return svc, nil
}

func compileChain(ctx context.Context, chatModel model.ChatModel, template prompt.ChatTemplate) (compose.Runnable[map[string]any, *schema.Message], error) {
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

// StreamingEnabled 指示是否开启流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// GenerateAnswer produces a complete general-answer reply with conversation
// history as context.
func (s *Service) GenerateAnswer(ctx context.Context, history []chatmodel.ConversationEntry, text string) (string, error) {
	input := map[string]any{
		"history": buildHistoryMessages(history, s.historyLimit()),
		"query":   text,
	}

	msg, err := s.answerChain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run answer chain: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "抱歉，我现在无法回答。", nil
	}
	return msg.Content, nil
}

// StreamAnswer streams general-answer fragments via the configured chain.
func (s *Service) StreamAnswer(ctx context.Context, history []chatmodel.ConversationEntry, text string) (*schema.StreamReader[*schema.Message], error) {
	input := map[string]any{
		"history": buildHistoryMessages(history, s.historyLimit()),
		"query":   text,
	}

	reader, err := s.answerChain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream answer chain output: %w", err)
	}
	return reader, nil
}

// ClassifyIntent classifies a user message into an intent plus keywords.
// A failure here is fatal to the turn; the caller decides how to surface it.
func (s *Service) ClassifyIntent(ctx context.Context, text string) (chatmodel.IntentResult, error) {
	msg, err := s.intentChain.Invoke(ctx, map[string]any{"query": text})
	if err != nil {
		return chatmodel.IntentResult{}, fmt.Errorf("intent classification failed: %w", err)
	}

	var parsed struct {
		Intent   string   `json:"intent"`
		Keywords []string `json:"keywords"`
	}
	if err := unmarshalJSONObject(msg, &parsed); err != nil {
		log.Printf("[ai] intent output unparseable, treating as general: %v", err)
		return chatmodel.IntentResult{Intent: chatmodel.IntentGeneral}, nil
	}

	return chatmodel.IntentResult{
		Intent:   chatmodel.ParseIntent(parsed.Intent),
		Keywords: parsed.Keywords,
	}, nil
}

// RefineQuery distills the message into a refined query. Errors are returned
// so the orchestrator can degrade to the raw keywords.
func (s *Service) RefineQuery(ctx context.Context, text string, intent chatmodel.Intent, keywords []string) (catalog.RefinedQuery, error) {
	input := map[string]any{
		"query":       text,
		"intent_type": intentTypeLabel(intent),
		"keywords":    strings.Join(keywords, "、"),
	}

	msg, err := s.refineChain.Invoke(ctx, input)
	if err != nil {
		return catalog.RefinedQuery{}, fmt.Errorf("query refinement failed: %w", err)
	}

	var parsed catalog.RefinedQuery
	if err := unmarshalJSONObject(msg, &parsed); err != nil {
		return catalog.RefinedQuery{}, fmt.Errorf("query refinement output unparseable: %w", err)
	}

	if len(parsed.Keywords) == 0 {
		parsed.Keywords = keywords
	}
	if parsed.UserIntent == "" {
		parsed.UserIntent = "查找相关" + intentTypeLabel(intent)
	}
	return parsed, nil
}

func (s *Service) historyLimit() int {
	if s.cfg.HistoryLimit > 0 {
		return s.cfg.HistoryLimit
	}
	return 5
}

// buildHistoryMessages converts paired history entries into model messages,
// newest-last, windowed to limit pairs.
func buildHistoryMessages(entries []chatmodel.ConversationEntry, limit int) []*schema.Message {
	if len(entries) == 0 {
		return nil
	}

	start := 0
	if len(entries) > limit {
		start = len(entries) - limit
	}

	history := make([]*schema.Message, 0, (len(entries)-start)*2)
	for _, entry := range entries[start:] {
		history = append(history, schema.UserMessage(entry.User))
		history = append(history, schema.AssistantMessage(entry.Assistant, nil))
	}
	return history
}

// unmarshalJSONObject extracts the first JSON object from model output and
// unmarshals it, tolerating prose around the object.
func unmarshalJSONObject(msg *schema.Message, target any) error {
	if msg == nil {
		return fmt.Errorf("empty model response")
	}

	trimmed := strings.TrimSpace(msg.Content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("missing json object in %q", truncate(trimmed, 80))
	}

	return json.Unmarshal([]byte(trimmed[start:end+1]), target)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func intentTypeLabel(intent chatmodel.Intent) string {
	switch intent {
	case chatmodel.IntentProduct:
		return "商品"
	case chatmodel.IntentActivity:
		return "活动"
	case chatmodel.IntentJourney:
		return "旅程"
	case chatmodel.IntentCoupon:
		return "优惠券"
	default:
		return "内容"
	}
}
