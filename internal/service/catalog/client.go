package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yeyunwen/ai-full-stack/internal/config"
	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

// Client fetches item lists from the external shop data providers. Each
// provider caps its result at five items by contract.
type Client interface {
	FetchProducts(ctx context.Context, params catalog.ProductParams) (catalog.Result, error)
	FetchActivities(ctx context.Context, params catalog.ActivityParams) (catalog.Result, error)
	FetchJourneys(ctx context.Context, params catalog.JourneyParams) (catalog.Result, error)
	FetchCoupons(ctx context.Context, params catalog.CouponParams) (catalog.Result, error)
}

// HTTPClient talks to the shop search API over REST.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a client for the configured shop API.
func NewHTTPClient(cfg config.ShopConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchProducts queries the goods search endpoint.
func (c *HTTPClient) FetchProducts(ctx context.Context, params catalog.ProductParams) (catalog.Result, error) {
	query := url.Values{}
	setKeywords(query, params.Keywords)
	setString(query, "categoryName", params.CategoryName)
	setString(query, "goodsName", params.GoodsName)
	setFloat(query, "minPrice", params.MinPrice)
	setFloat(query, "maxPrice", params.MaxPrice)

	var resp struct {
		Goods []catalog.Product `json:"goods"`
		Flag  bool              `json:"flag"`
	}
	if err := c.doGet(ctx, "/api/goods/search", query, &resp); err != nil {
		return catalog.Result{}, err
	}

	items := make([]catalog.Item, 0, len(resp.Goods))
	for _, it := range resp.Goods {
		items = append(items, it)
	}
	return catalog.Result{Items: items, IsExactMatch: resp.Flag}, nil
}

// FetchActivities queries the activity search endpoint.
func (c *HTTPClient) FetchActivities(ctx context.Context, params catalog.ActivityParams) (catalog.Result, error) {
	query := url.Values{}
	setKeywords(query, params.Keywords)
	setString(query, "title", params.Title)
	setString(query, "startTime", params.StartTime)
	setString(query, "endTime", params.EndTime)

	var resp struct {
		Activities []catalog.Activity `json:"activities"`
		Flag       bool               `json:"flag"`
	}
	if err := c.doGet(ctx, "/api/activity/search", query, &resp); err != nil {
		return catalog.Result{}, err
	}

	items := make([]catalog.Item, 0, len(resp.Activities))
	for _, it := range resp.Activities {
		items = append(items, it)
	}
	return catalog.Result{Items: items, IsExactMatch: resp.Flag}, nil
}

// FetchJourneys queries the journey search endpoint.
func (c *HTTPClient) FetchJourneys(ctx context.Context, params catalog.JourneyParams) (catalog.Result, error) {
	query := url.Values{}
	setKeywords(query, params.Keywords)
	setString(query, "location", params.Location)

	var resp struct {
		Journeys []catalog.Journey `json:"journeys"`
		Flag     bool              `json:"flag"`
	}
	if err := c.doGet(ctx, "/api/journey/search", query, &resp); err != nil {
		return catalog.Result{}, err
	}

	items := make([]catalog.Item, 0, len(resp.Journeys))
	for _, it := range resp.Journeys {
		items = append(items, it)
	}
	return catalog.Result{Items: items, IsExactMatch: resp.Flag}, nil
}

// FetchCoupons queries the coupon search endpoint.
func (c *HTTPClient) FetchCoupons(ctx context.Context, params catalog.CouponParams) (catalog.Result, error) {
	query := url.Values{}
	setKeywords(query, params.Keywords)
	setFloat(query, "maxThreshold", params.MaxThreshold)

	var resp struct {
		Coupons []catalog.Coupon `json:"coupons"`
		Flag    bool             `json:"flag"`
	}
	if err := c.doGet(ctx, "/api/coupon/search", query, &resp); err != nil {
		return catalog.Result{}, err
	}

	items := make([]catalog.Item, 0, len(resp.Coupons))
	for _, it := range resp.Coupons {
		items = append(items, it)
	}
	return catalog.Result{Items: items, IsExactMatch: resp.Flag}, nil
}

func (c *HTTPClient) doGet(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build shop request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("shop request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shop request returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode shop response: %w", err)
	}
	return nil
}

func setKeywords(query url.Values, keywords []string) {
	if len(keywords) > 0 {
		query.Set("keywords", strings.Join(keywords, ","))
	}
}

func setString(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}

func setFloat(query url.Values, key string, value *float64) {
	if value != nil {
		query.Set(key, strconv.FormatFloat(*value, 'f', -1, 64))
	}
}
