package filter

import (
	"context"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
)

// RatedFilter 剔除用户已经正向评价过的商品（协同路径专用）。
// 正向的口径：评分 >= MinPositive，默认 3 分。
type RatedFilter struct {
	Catalog *catalog.Catalog

	// MinPositive <= 0 时使用默认值 3
	MinPositive float64
}

// DefaultMinPositive 是"正向评价"的默认评分阈值。
const DefaultMinPositive = 3

func NewRatedFilter(c *catalog.Catalog, minPositive float64) *RatedFilter {
	return &RatedFilter{Catalog: c, MinPositive: minPositive}
}

func (f *RatedFilter) Name() string { return "filter.rated" }

func (f *RatedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Catalog == nil || rctx == nil || rctx.UserID == 0 || item == nil {
		return false, nil
	}
	min := f.MinPositive
	if min <= 0 {
		min = DefaultMinPositive
	}
	for _, r := range f.Catalog.UserRatings(rctx.UserID) {
		if r.ProductID == item.ID && r.Score >= min {
			return true, nil
		}
	}
	return false, nil
}

// SeedFilter 剔除种子商品自身（内容路径专用）。
// 索引层已经丢弃了自身命中，这里是链路上的二次保险口径，
// 防止索引实现不满足约定时把种子推给用户。
type SeedFilter struct{}

func (f *SeedFilter) Name() string { return "filter.seed" }

func (f *SeedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if rctx == nil || item == nil {
		return false, nil
	}
	return rctx.ProductID != 0 && item.ID == rctx.ProductID, nil
}

// CategoryFilter 按类目精确匹配（大小写敏感），CategoryAll 哨兵表示放行全部。
type CategoryFilter struct {
	Catalog *catalog.Catalog
}

func NewCategoryFilter(c *catalog.Catalog) *CategoryFilter {
	return &CategoryFilter{Catalog: c}
}

func (f *CategoryFilter) Name() string { return "filter.category" }

func (f *CategoryFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Catalog == nil || rctx == nil || item == nil || !rctx.CategoryFilterActive() {
		return false, nil
	}
	p, ok := f.Catalog.Product(item.ID)
	if !ok {
		return true, nil
	}
	return p.Category != rctx.Category, nil
}

// ValidProductFilter 剔除无法在目录中成行的候选：
// 目录里查不到（索引里的陈旧 ID）或者商品名缺失的行都不对外返回。
type ValidProductFilter struct {
	Catalog *catalog.Catalog
}

func NewValidProductFilter(c *catalog.Catalog) *ValidProductFilter {
	return &ValidProductFilter{Catalog: c}
}

func (f *ValidProductFilter) Name() string { return "filter.valid" }

func (f *ValidProductFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Catalog == nil || item == nil {
		return true, nil
	}
	p, ok := f.Catalog.Product(item.ID)
	if !ok {
		return true, nil
	}
	return p.Name == "", nil
}
