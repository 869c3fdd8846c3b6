package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

// StreamRationale streams a short recommendation rationale for one item.
// Fragments are meant to be forwarded verbatim to the client as they arrive.
func (s *Service) StreamRationale(ctx context.Context, query catalog.RefinedQuery, item catalog.Item) (*schema.StreamReader[*schema.Message], error) {
	input := map[string]any{
		"user_intent": query.UserIntent,
		"keywords":    strings.Join(query.Keywords, "、"),
		"preferences": joinOrNone(query.Preferences),
		"constraints": joinOrNone(query.Constraints),
		"item":        describeItem(item),
	}

	reader, err := s.rationaleChain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream rationale: %w", err)
	}
	return reader, nil
}

func describeItem(item catalog.Item) string {
	switch it := item.(type) {
	case catalog.Product:
		return fmt.Sprintf("商品：%s，价格%.0f元，销量%d", it.Name, it.Price, it.Sales)
	case catalog.Activity:
		desc := fmt.Sprintf("活动：%s，时间%s至%s", it.Title, it.StartTime, it.EndTime)
		if it.Location != "" {
			desc += "，地点" + it.Location
		}
		return desc
	case catalog.Journey:
		return fmt.Sprintf("旅程：%s，目的地%s。%s", it.Name, it.Location, it.Description)
	case catalog.Coupon:
		return fmt.Sprintf("优惠券：%s，满%.0f减%.0f，有效期%s至%s", it.Name, it.Threshold, it.Discount, it.StartTime, it.EndTime)
	default:
		return ""
	}
}

// DefaultReason returns a templated rationale used when generation fails.
func DefaultReason(item catalog.Item) string {
	switch it := item.(type) {
	case catalog.Product:
		return fmt.Sprintf("%s是热门畅销商品，已有%d人购买", it.Name, it.Sales)
	case catalog.Activity:
		return fmt.Sprintf("%s活动时间为%s至%s，正符合您的需求", it.Title, it.StartTime, it.EndTime)
	case catalog.Journey:
		return fmt.Sprintf("%s是%s的精选旅程，值得一去", it.Name, it.Location)
	case catalog.Coupon:
		return fmt.Sprintf("%s满%.0f立减%.0f，十分划算", it.Name, it.Threshold, it.Discount)
	default:
		return "这是我们精选推荐的内容"
	}
}
