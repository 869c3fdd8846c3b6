package catalog

import (
	"strings"

	"github.com/yeyunwen/ai-full-stack/internal/model/catalog"
)

// SampleStore holds a small local item set per kind, used when a data
// provider is unreachable or returned garbage.
type SampleStore struct {
	items map[catalog.Kind][]catalog.Item
}

// NewSampleStore returns a store preloaded with the supplied items.
func NewSampleStore(items []catalog.Item) *SampleStore {
	byKind := make(map[catalog.Kind][]catalog.Item)
	for _, item := range items {
		byKind[item.ItemKind()] = append(byKind[item.ItemKind()], item)
	}
	return &SampleStore{items: byKind}
}

// Filter returns up to limit items of the given kind whose searchable text
// contains any keyword. Without keywords, or without any match, it falls
// back to the first items of the kind.
func (s *SampleStore) Filter(kind catalog.Kind, keywords []string, limit int) []catalog.Item {
	all := s.items[kind]

	matched := make([]catalog.Item, 0, limit)
	if len(keywords) > 0 {
		for _, item := range all {
			if matchesAny(searchText(item), keywords) {
				matched = append(matched, item)
			}
		}
	}
	if len(matched) == 0 {
		matched = all
	}

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return append([]catalog.Item(nil), matched...)
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func searchText(item catalog.Item) string {
	switch it := item.(type) {
	case catalog.Product:
		return it.Name
	case catalog.Activity:
		return it.Title + " " + it.Location
	case catalog.Journey:
		return it.Name + " " + it.Location + " " + it.Description
	case catalog.Coupon:
		return it.Name
	default:
		return ""
	}
}

// Seed returns the built-in sample items covering every kind.
func Seed() []catalog.Item {
	return []catalog.Item{
		catalog.Product{ID: "p1", Name: "智能手机", Price: 4999, Sales: 1200, Image: "https://img.example.com/goods/smartphone.jpg"},
		catalog.Product{ID: "p2", Name: "笔记本电脑", Price: 6999, Sales: 860, Image: "https://img.example.com/goods/laptop.jpg"},
		catalog.Product{ID: "p3", Name: "智能手表", Price: 1599, Sales: 2300, Image: "https://img.example.com/goods/smartwatch.jpg"},
		catalog.Product{ID: "p4", Name: "无线耳机", Price: 899, Sales: 5100, Image: "https://img.example.com/goods/headphones.jpg"},
		catalog.Product{ID: "p5", Name: "平板电脑", Price: 3699, Sales: 640, Image: "https://img.example.com/goods/tablet.jpg"},

		catalog.Activity{ID: "a1", Title: "双11全球购物节", StartTime: "2025-11-01", EndTime: "2025-11-12", Location: "线上", Cover: "https://img.example.com/activity/double11.jpg"},
		catalog.Activity{ID: "a2", Title: "新品发布会", StartTime: "2025-10-15", EndTime: "2025-10-15", Location: "上海", Cover: "https://img.example.com/activity/launch.jpg"},
		catalog.Activity{ID: "a3", Title: "夏季清凉特卖", StartTime: "2025-07-01", EndTime: "2025-08-15", Location: "线上", Cover: "https://img.example.com/activity/summer.jpg"},
		catalog.Activity{ID: "a4", Title: "会员专享日", StartTime: "2025-06-18", EndTime: "2025-06-20", Location: "全门店", Cover: "https://img.example.com/activity/member.jpg"},

		catalog.Journey{ID: "j1", Name: "江南水乡三日游", Location: "苏州", Description: "园林与古镇的经典线路", Image: "https://img.example.com/journey/suzhou.jpg"},
		catalog.Journey{ID: "j2", Name: "川西环线自驾", Location: "成都", Description: "雪山草原，适合摄影爱好者", Image: "https://img.example.com/journey/chuanxi.jpg"},
		catalog.Journey{ID: "j3", Name: "海岛度假五日游", Location: "三亚", Description: "阳光沙滩，亲子友好", Image: "https://img.example.com/journey/sanya.jpg"},

		catalog.Coupon{ID: "c1", Name: "满减神券", Discount: 100, Threshold: 1000, StartTime: "2025-01-01", EndTime: "2025-12-31"},
		catalog.Coupon{ID: "c2", Name: "新人专享券", Discount: 50, Threshold: 200, StartTime: "2025-01-01", EndTime: "2025-12-31"},
		catalog.Coupon{ID: "c3", Name: "数码品类券", Discount: 300, Threshold: 3000, StartTime: "2025-06-01", EndTime: "2025-12-31"},
	}
}
