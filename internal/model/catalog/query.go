package catalog

// RefinedQuery is the once-per-turn refinement of the raw user message.
// Derived before stage dispatch and immutable afterwards.
type RefinedQuery struct {
	Keywords    []string `json:"keywords"`
	UserIntent  string   `json:"userIntent"`
	Preferences []string `json:"preferences"`
	Constraints []string `json:"constraints"`
}

// ProductParams are the product-search parameters derived from a refined
// query, including price bounds when the user stated any.
type ProductParams struct {
	Keywords     []string `json:"keywords"`
	CategoryName string   `json:"categoryName,omitempty"`
	GoodsName    string   `json:"goodsName,omitempty"`
	MinPrice     *float64 `json:"minPrice,omitempty"`
	MaxPrice     *float64 `json:"maxPrice,omitempty"`
}

// ActivityParams carry an optional title and date bounds in YYYY-MM-DD form.
type ActivityParams struct {
	Keywords  []string `json:"keywords"`
	Title     string   `json:"title,omitempty"`
	StartTime string   `json:"startTime,omitempty"`
	EndTime   string   `json:"endTime,omitempty"`
}

// JourneyParams search journeys by keyword and optional destination.
type JourneyParams struct {
	Keywords []string `json:"keywords"`
	Location string   `json:"location,omitempty"`
}

// CouponParams search coupons by keyword and optional spend threshold cap.
type CouponParams struct {
	Keywords     []string `json:"keywords"`
	MaxThreshold *float64 `json:"maxThreshold,omitempty"`
}
