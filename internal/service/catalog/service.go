// Package catalog fronts the external item data providers. Provider failure
// is absorbed here: searches degrade to the local sample set and never
// surface an error to the pipeline.
package catalog

import (
	"context"
	"log"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

// Number of sample items served when a provider fails.
const fallbackLimit = 3

// Service resolves item searches through the shop client, falling back to
// samples marked as inexact matches.
type Service struct {
	client  Client
	samples *SampleStore
}

// NewService builds the search service. client may be nil when no shop API
// is configured; every search then serves samples.
func NewService(client Client, samples *SampleStore) *Service {
	return &Service{client: client, samples: samples}
}

// SearchProducts finds products for the extracted parameters.
func (s *Service) SearchProducts(ctx context.Context, params catalog.ProductParams) catalog.Result {
	if s.client != nil {
		res, err := s.client.FetchProducts(ctx, params)
		if err == nil {
			return res
		}
		log.Printf("[catalog] product fetch failed, serving samples: %v", err)
	}
	return s.fallback(catalog.KindProduct, params.Keywords)
}

// SearchActivities finds activities for the extracted parameters.
func (s *Service) SearchActivities(ctx context.Context, params catalog.ActivityParams) catalog.Result {
	if s.client != nil {
		res, err := s.client.FetchActivities(ctx, params)
		if err == nil {
			return res
		}
		log.Printf("[catalog] activity fetch failed, serving samples: %v", err)
	}
	return s.fallback(catalog.KindActivity, params.Keywords)
}

// SearchJourneys finds journeys for the extracted parameters.
func (s *Service) SearchJourneys(ctx context.Context, params catalog.JourneyParams) catalog.Result {
	if s.client != nil {
		res, err := s.client.FetchJourneys(ctx, params)
		if err == nil {
			return res
		}
		log.Printf("[catalog] journey fetch failed, serving samples: %v", err)
	}
	return s.fallback(catalog.KindJourney, params.Keywords)
}

// SearchCoupons finds coupons for the extracted parameters.
func (s *Service) SearchCoupons(ctx context.Context, params catalog.CouponParams) catalog.Result {
	if s.client != nil {
		res, err := s.client.FetchCoupons(ctx, params)
		if err == nil {
			return res
		}
		log.Printf("[catalog] coupon fetch failed, serving samples: %v", err)
	}
	return s.fallback(catalog.KindCoupon, params.Keywords)
}

func (s *Service) fallback(kind catalog.Kind, keywords []string) catalog.Result {
	return catalog.Result{
		Items:        s.samples.Filter(kind, keywords, fallbackLimit),
		IsExactMatch: false,
	}
}
