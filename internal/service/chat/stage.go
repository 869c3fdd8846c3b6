package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
	chatmodel "github.com/yeyunwen/ai-full-stack/internal/model/chat"
	"github.com/yeyunwen/ai-full-stack/internal/service/ai"
	"github.com/yeyunwen/ai-full-stack/internal/stream"
)

// Providers cap at five items by contract; cap again before narrating.
const maxStageItems = 5

// itemStage is one intent-specific stage: a status line, a kind, and a
// fetch closure binding the kind-specific parameter mapping.
type itemStage struct {
	kind   catalog.Kind
	status string
	fetch  func(ctx context.Context) catalog.Result
}

// stageFor binds the stage for a recommendation intent. The second return
// is false for general intent, which streams a plain answer instead.
func (s *Service) stageFor(intent chatmodel.Intent, userText string, query catalog.RefinedQuery) (itemStage, bool) {
	switch intent {
	case chatmodel.IntentProduct:
		return itemStage{
			kind:   catalog.KindProduct,
			status: "正在搜索相关商品...\n\n",
			fetch: func(ctx context.Context) catalog.Result {
				return s.finder.SearchProducts(ctx, s.assistant.ProductParams(ctx, userText, query))
			},
		}, true
	case chatmodel.IntentActivity:
		return itemStage{
			kind:   catalog.KindActivity,
			status: "正在搜索相关活动...\n\n",
			fetch: func(ctx context.Context) catalog.Result {
				return s.finder.SearchActivities(ctx, s.assistant.ActivityParams(ctx, userText, query))
			},
		}, true
	case chatmodel.IntentJourney:
		return itemStage{
			kind:   catalog.KindJourney,
			status: "正在搜索相关旅程...\n\n",
			fetch: func(ctx context.Context) catalog.Result {
				return s.finder.SearchJourneys(ctx, catalog.JourneyParams{Keywords: query.Keywords})
			},
		}, true
	case chatmodel.IntentCoupon:
		return itemStage{
			kind:   catalog.KindCoupon,
			status: "正在搜索相关优惠券...\n\n",
			fetch: func(ctx context.Context) catalog.Result {
				return s.finder.SearchCoupons(ctx, catalog.CouponParams{Keywords: query.Keywords})
			},
		}, true
	default:
		return itemStage{}, false
	}
}

// runItemStage executes one recommendation stage: status, fetch, response
// text, per-item rationale narration, then the single terminal event
// carrying the structured payload. The item set is fixed after the fetch.
func (s *Service) runItemStage(ctx context.Context, stage itemStage, query catalog.RefinedQuery, emit stream.Emitter) {
	s.emit(emit, stream.Event{Text: stage.status})

	result := stage.fetch(ctx)
	result.Items = capItems(result.Items)

	s.emit(emit, stream.Event{Text: responseText(stage.kind, query, result.IsExactMatch)})

	items := s.narrateItems(ctx, query, result.Items, emit)

	s.emit(emit, stream.Event{
		Done: true,
		Payload: &catalog.Payload{
			Kind:         stage.kind,
			Items:        items,
			IsExactMatch: result.IsExactMatch,
		},
	})
}

// narrateItems streams a short rationale per item, forwarding fragments
// verbatim, and returns the items annotated with the rationale that was
// narrated (or the templated default when generation failed).
func (s *Service) narrateItems(ctx context.Context, query catalog.RefinedQuery, items []catalog.Item, emit stream.Emitter) []catalog.Item {
	annotated := make([]catalog.Item, 0, len(items))
	for i, item := range items {
		s.emit(emit, stream.Event{Text: fmt.Sprintf("%d. **%s**：", i+1, catalog.Label(item))})

		reason := s.streamRationale(ctx, query, item, emit)
		if reason == "" {
			reason = ai.DefaultReason(item)
			s.emit(emit, stream.Event{Text: reason})
		}
		s.emit(emit, stream.Event{Text: "\n"})

		annotated = append(annotated, catalog.WithReason(item, reason))
	}
	return annotated
}

// streamRationale forwards rationale fragments for one item and returns the
// accumulated text. Generation failure is non-fatal and returns whatever
// was produced so far.
func (s *Service) streamRationale(ctx context.Context, query catalog.RefinedQuery, item catalog.Item, emit stream.Emitter) string {
	reader, err := s.assistant.StreamRationale(ctx, query, item)
	if err != nil {
		log.Printf("[chat] rationale generation failed for item=%s: %v", catalog.ItemID(item), err)
		return ""
	}
	defer reader.Close()

	var collected strings.Builder
	for {
		chunk, recvErr := reader.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			log.Printf("[chat] rationale stream interrupted for item=%s: %v", catalog.ItemID(item), recvErr)
			break
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		collected.WriteString(chunk.Content)
		s.emit(emit, stream.Event{Text: chunk.Content})
	}
	return strings.TrimSpace(collected.String())
}

// runGeneralStage streams a plain incremental answer with history context
// and no structured payload. Failures stay inside the stage: the terminal
// event is emitted in every path so the client's open message always
// closes.
func (s *Service) runGeneralStage(ctx context.Context, token, userText string, emit stream.Emitter) {
	entries := s.loadHistory(ctx, token)

	reader, err := s.assistant.StreamAnswer(ctx, entries, userText)
	if err != nil {
		log.Printf("[chat] answer streaming failed: %v", err)
		s.emit(emit, stream.Event{Text: apologyText, Done: true})
		return
	}
	defer reader.Close()

	for {
		chunk, recvErr := reader.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			log.Printf("[chat] answer stream interrupted: %v", recvErr)
			break
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		s.emit(emit, stream.Event{Text: chunk.Content})
	}

	s.emit(emit, stream.Event{Done: true})
}

func capItems(items []catalog.Item) []catalog.Item {
	if len(items) > maxStageItems {
		return items[:maxStageItems]
	}
	return items
}

func responseText(kind catalog.Kind, query catalog.RefinedQuery, exact bool) string {
	label := kindLabel(kind)
	keywords := strings.Join(query.Keywords, "、")

	if exact {
		if keywords == "" {
			return fmt.Sprintf("为您推荐以下%s：\n\n", label)
		}
		return fmt.Sprintf("根据您的需求“%s”，为您推荐以下%s：\n\n", keywords, label)
	}

	if keywords == "" {
		return fmt.Sprintf("以下是一些您可能感兴趣的%s：\n\n", label)
	}
	return fmt.Sprintf("很抱歉，没有找到与“%s”完全匹配的%s，以下是一些您可能感兴趣的%s：\n\n", keywords, label, label)
}

func kindLabel(kind catalog.Kind) string {
	switch kind {
	case catalog.KindProduct:
		return "商品"
	case catalog.KindActivity:
		return "活动"
	case catalog.KindJourney:
		return "旅程"
	case catalog.KindCoupon:
		return "优惠券"
	default:
		return "内容"
	}
}
