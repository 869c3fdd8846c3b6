package catalog

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which domain an item belongs to. The set is closed; code
// branching on Kind should switch over all four values.
type Kind string

const (
	KindProduct  Kind = "product"
	KindActivity Kind = "activity"
	KindJourney  Kind = "journey"
	KindCoupon   Kind = "coupon"
)

// Valid reports whether k is one of the known item kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindProduct, KindActivity, KindJourney, KindCoupon:
		return true
	}
	return false
}

// Item is the closed variant over the four domain item shapes. Each case
// carries its own fixed field set and reports its Kind.
type Item interface {
	ItemKind() Kind
}

// Product 商品条目。
type Product struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	Sales           int     `json:"sales"`
	Image           string  `json:"image,omitempty"`
	RecommendReason string  `json:"recommendReason,omitempty"`
}

// Activity 活动条目。
type Activity struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Location        string `json:"location,omitempty"`
	Cover           string `json:"cover,omitempty"`
	RecommendReason string `json:"recommendReason,omitempty"`
}

// Journey 旅程条目。
type Journey struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Location        string `json:"location"`
	Description     string `json:"description,omitempty"`
	Image           string `json:"image,omitempty"`
	RecommendReason string `json:"recommendReason,omitempty"`
}

// Coupon 优惠券条目。
type Coupon struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Discount        float64 `json:"discount"`
	Threshold       float64 `json:"threshold"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	RecommendReason string  `json:"recommendReason,omitempty"`
}

func (Product) ItemKind() Kind  { return KindProduct }
func (Activity) ItemKind() Kind { return KindActivity }
func (Journey) ItemKind() Kind  { return KindJourney }
func (Coupon) ItemKind() Kind   { return KindCoupon }

// Label returns a short display string used in rationale prompts and
// default recommendation reasons.
func Label(item Item) string {
	switch it := item.(type) {
	case Product:
		return it.Name
	case Activity:
		return it.Title
	case Journey:
		return it.Name
	case Coupon:
		return it.Name
	default:
		return ""
	}
}

// ItemID returns the identifier shared by every item case.
func ItemID(item Item) string {
	switch it := item.(type) {
	case Product:
		return it.ID
	case Activity:
		return it.ID
	case Journey:
		return it.ID
	case Coupon:
		return it.ID
	default:
		return ""
	}
}

// WithReason returns a copy of item with its recommendation reason set.
func WithReason(item Item, reason string) Item {
	switch it := item.(type) {
	case Product:
		it.RecommendReason = reason
		return it
	case Activity:
		it.RecommendReason = reason
		return it
	case Journey:
		it.RecommendReason = reason
		return it
	case Coupon:
		it.RecommendReason = reason
		return it
	default:
		return item
	}
}

// DecodeItems unmarshals raw item objects into the concrete case selected by
// kind. The item schema is fixed per kind, so decoding is exhaustive rather
// than shape-sniffed.
func DecodeItems(kind Kind, raws []json.RawMessage) ([]Item, error) {
	items := make([]Item, 0, len(raws))
	for _, raw := range raws {
		switch kind {
		case KindProduct:
			var it Product
			if err := json.Unmarshal(raw, &it); err != nil {
				return nil, fmt.Errorf("decode product item: %w", err)
			}
			items = append(items, it)
		case KindActivity:
			var it Activity
			if err := json.Unmarshal(raw, &it); err != nil {
				return nil, fmt.Errorf("decode activity item: %w", err)
			}
			items = append(items, it)
		case KindJourney:
			var it Journey
			if err := json.Unmarshal(raw, &it); err != nil {
				return nil, fmt.Errorf("decode journey item: %w", err)
			}
			items = append(items, it)
		case KindCoupon:
			var it Coupon
			if err := json.Unmarshal(raw, &it); err != nil {
				return nil, fmt.Errorf("decode coupon item: %w", err)
			}
			items = append(items, it)
		default:
			return nil, fmt.Errorf("unknown item kind %q", kind)
		}
	}
	return items, nil
}
