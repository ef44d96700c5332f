package rank

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// CatalogRatingNode 用商品的目录基础评分作为排序分（内容路径）。
// 近邻相似度保留在 knn_score label 里不参与排序，
// 评分缺失按 0 处理；平局保持近邻返回顺序（稳定排序）。
type CatalogRatingNode struct {
	Catalog *catalog.Catalog
}

func (n *CatalogRatingNode) Name() string        { return "rank.catalog_rating" }
func (n *CatalogRatingNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *CatalogRatingNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Catalog == nil || len(items) == 0 {
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		if p, ok := n.Catalog.Product(it.ID); ok && p.HasRating {
			it.Score = p.Rating
		} else {
			it.Score = 0
		}
		it.PutLabel("rank_model", utils.Label{Value: "catalog_rating", Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}
