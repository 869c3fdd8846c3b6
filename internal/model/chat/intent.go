package chat

import (
	"strings"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentProduct  Intent = "PRODUCT"
	IntentActivity Intent = "ACTIVITY"
	IntentJourney  Intent = "JOURNEY"
	IntentCoupon   Intent = "COUPON"
	IntentGeneral  Intent = "GENERAL"
)

// ParseIntent normalizes a classifier label. Unknown labels resolve to
// IntentGeneral so a misbehaving classifier degrades to plain Q&A.
func ParseIntent(raw string) Intent {
	switch Intent(strings.ToUpper(strings.TrimSpace(raw))) {
	case IntentProduct:
		return IntentProduct
	case IntentActivity:
		return IntentActivity
	case IntentJourney:
		return IntentJourney
	case IntentCoupon:
		return IntentCoupon
	default:
		return IntentGeneral
	}
}

// Kind maps a recommendation intent onto its item kind. The second return
// is false for IntentGeneral, which carries no structured payload.
func (i Intent) Kind() (catalog.Kind, bool) {
	switch i {
	case IntentProduct:
		return catalog.KindProduct, true
	case IntentActivity:
		return catalog.KindActivity, true
	case IntentJourney:
		return catalog.KindJourney, true
	case IntentCoupon:
		return catalog.KindCoupon, true
	default:
		return "", false
	}
}

// IntentResult is the classification outcome for one user message.
type IntentResult struct {
	Intent   Intent   `json:"intent"`
	Keywords []string `json:"keywords"`
}
