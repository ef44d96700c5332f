package filter

import (
	"context"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// RuleFilter 用 CEL 规则表达式过滤候选：表达式返回 true 的候选保留。
// 规则由配置下发，例如 `product.price > 0` 排除无价格的占位商品。
type RuleFilter struct {
	Catalog *catalog.Catalog
	Rule    *dsl.Rule
}

// NewRuleFilter 编译表达式并构建过滤器。空表达式返回 nil（不挂载）。
func NewRuleFilter(c *catalog.Catalog, expr string) (*RuleFilter, error) {
	rule, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, nil
	}
	return &RuleFilter{Catalog: c, Rule: rule}, nil
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Catalog == nil || f.Rule == nil || item == nil {
		return false, nil
	}
	p, ok := f.Catalog.Product(item.ID)
	if !ok {
		// 目录缺行交给 ValidProductFilter 处理，规则只看能成行的候选
		return false, nil
	}
	keep, err := f.Rule.Eval(p, item.Score, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
