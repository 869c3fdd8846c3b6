package chat

import (
	"testing"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

func TestParseIntentNormalizes(t *testing.T) {
	cases := map[string]Intent{
		"PRODUCT":   IntentProduct,
		"product":   IntentProduct,
		" Activity": IntentActivity,
		"JOURNEY":   IntentJourney,
		"coupon":    IntentCoupon,
		"GENERAL":   IntentGeneral,
		"":          IntentGeneral,
		"whatever":  IntentGeneral,
	}
	for raw, want := range cases {
		if got := ParseIntent(raw); got != want {
			t.Errorf("ParseIntent(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestIntentKindMapping(t *testing.T) {
	kind, ok := IntentProduct.Kind()
	if !ok || kind != catalog.KindProduct {
		t.Errorf("product intent should map to product kind, got %q/%v", kind, ok)
	}

	if _, ok := IntentGeneral.Kind(); ok {
		t.Error("general intent carries no item kind")
	}
}
