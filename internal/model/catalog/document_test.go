package catalog

import (
	"encoding/json"
	"testing"
)

func TestDocumentRoundTrip(t *testing.T) {
	doc := Document{
		Text: "为您推荐以下商品：",
		Items: []Item{
			Product{ID: "p1", Name: "智能手机", Price: 4999, Sales: 1200, RecommendReason: "热门畅销"},
		},
		Kind:         KindProduct,
		IsExactMatch: true,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if _, ok := probe["type"]; !ok {
		t.Error("document kind must travel under the type key")
	}

	var decoded Document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind != KindProduct || decoded.Text != doc.Text || !decoded.IsExactMatch {
		t.Errorf("header fields lost: %+v", decoded)
	}

	product, ok := decoded.Items[0].(Product)
	if !ok {
		t.Fatalf("item decoded to wrong type %T", decoded.Items[0])
	}
	if product != doc.Items[0].(Product) {
		t.Errorf("item fields lost: %+v", product)
	}
}

func TestPayloadRoundTripPerKind(t *testing.T) {
	payloads := []Payload{
		{Kind: KindActivity, Items: []Item{Activity{ID: "a1", Title: "新品发布会", StartTime: "2025-10-15", EndTime: "2025-10-15", Location: "上海"}}},
		{Kind: KindJourney, Items: []Item{Journey{ID: "j1", Name: "川西环线自驾", Location: "成都", Description: "雪山草原"}}},
		{Kind: KindCoupon, Items: []Item{Coupon{ID: "c1", Name: "满减神券", Discount: 100, Threshold: 1000, StartTime: "2025-01-01", EndTime: "2025-12-31"}}, IsExactMatch: true},
	}

	for _, payload := range payloads {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", payload.Kind, err)
		}

		var decoded Payload
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal %s payload: %v", payload.Kind, err)
		}
		if decoded.Kind != payload.Kind || len(decoded.Items) != 1 {
			t.Errorf("%s payload header lost: %+v", payload.Kind, decoded)
			continue
		}
		if decoded.Items[0] != payload.Items[0] {
			t.Errorf("%s item fields lost: %+v", payload.Kind, decoded.Items[0])
		}
	}
}

func TestDecodeItemsRejectsUnknownKind(t *testing.T) {
	if _, err := DecodeItems(Kind("gadget"), []json.RawMessage{[]byte(`{}`)}); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestWithReasonDoesNotMutateOriginal(t *testing.T) {
	original := Product{ID: "p1", Name: "智能手机"}
	annotated := WithReason(original, "口碑好")

	if original.RecommendReason != "" {
		t.Error("WithReason must copy, not mutate")
	}
	if annotated.(Product).RecommendReason != "口碑好" {
		t.Errorf("reason not applied: %+v", annotated)
	}
}
