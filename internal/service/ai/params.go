package ai

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

// ProductParams extracts product-search parameters (category, name, price
// bounds) from the refined query. Extraction failure is non-fatal: the
// keywords alone remain a valid search.
func (s *Service) ProductParams(ctx context.Context, text string, query catalog.RefinedQuery) catalog.ProductParams {
	fallback := catalog.ProductParams{Keywords: query.Keywords}

	input := map[string]any{
		"query":       text,
		"user_intent": query.UserIntent,
		"keywords":    strings.Join(query.Keywords, "、"),
		"preferences": joinOrNone(query.Preferences),
		"constraints": joinOrNone(query.Constraints),
	}

	msg, err := s.productChain.Invoke(ctx, input)
	if err != nil {
		log.Printf("[ai] product param extraction failed, using keywords: %v", err)
		return fallback
	}

	var parsed catalog.ProductParams
	if err := unmarshalJSONObject(msg, &parsed); err != nil {
		log.Printf("[ai] product param output unparseable, using keywords: %v", err)
		return fallback
	}

	if len(parsed.Keywords) == 0 {
		parsed.Keywords = query.Keywords
	}
	return parsed
}

// ActivityParams extracts activity-search parameters (title, date bounds).
func (s *Service) ActivityParams(ctx context.Context, text string, query catalog.RefinedQuery) catalog.ActivityParams {
	fallback := catalog.ActivityParams{Keywords: query.Keywords}

	input := map[string]any{
		"query":       text,
		"user_intent": query.UserIntent,
		"keywords":    strings.Join(query.Keywords, "、"),
		"preferences": joinOrNone(query.Preferences),
		"constraints": joinOrNone(query.Constraints),
		"now_date":    time.Now().Format("2006-01-02"),
	}

	msg, err := s.activityChain.Invoke(ctx, input)
	if err != nil {
		log.Printf("[ai] activity param extraction failed, using keywords: %v", err)
		return fallback
	}

	var parsed catalog.ActivityParams
	if err := unmarshalJSONObject(msg, &parsed); err != nil {
		log.Printf("[ai] activity param output unparseable, using keywords: %v", err)
		return fallback
	}

	if len(parsed.Keywords) == 0 {
		parsed.Keywords = query.Keywords
	}
	return parsed
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "无"
	}
	return strings.Join(values, "、")
}
