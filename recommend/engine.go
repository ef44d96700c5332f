// Package recommend 是推荐查询层：把目录、内容相似索引、协同打分模型
// 组合成两条公开查询路径。
//
// 两条路径共用同一套 Pipeline 抽象（召回 → 过滤 → 排序 → 截断 → join）：
//
//	ByContent:       近邻召回 → 种子/有效性/规则过滤 → 目录评分排序 → TopN
//	ByCollaboration: 全目录候选 ∩ 模型词表 → 已评/类目/有效性/规则过滤 → 模型估分排序 → TopN
//
// 查询是目录与模型快照上的纯函数：不写任何状态，空结果不是错误。
package recommend

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/knn"
	"github.com/rushteam/shoprec/mf"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/rerank"
)

// DefaultTopN 是未指定条数时的默认返回条数。
const DefaultTopN = 5

// Engine 持有进程生命周期的只读依赖，可被多个会话并发调用。
type Engine struct {
	Catalog *catalog.Catalog
	Index   knn.NeighborIndex
	Scorer  mf.Scorer

	// MinPositive 是"用户已正向评价"的评分阈值，<= 0 时取默认值 3
	MinPositive float64

	// MaxConcurrent 是协同估分的并发度，透传给 rank.EstimateNode
	MaxConcurrent int

	// ExtraFilters 追加在内置过滤器之后（通常来自配置的规则表达式）
	ExtraFilters []filter.Filter

	// Cache 结果缓存，可为 nil。目录与模型在进程内不变，
	// 同参数查询结果确定，缓存纯属性能优化
	Cache    core.Store
	CacheTTL int
}

// ByContent 基于种子商品返回相似商品推荐。
//
// 种子不在目录中返回 NOT_FOUND 领域错误（调用方渲染空态，不是崩溃）；
// 结果按目录基础评分降序、平局保持近邻顺序，至多 topN 条。
func (e *Engine) ByContent(ctx context.Context, productID int64, topN int) ([]core.Recommendation, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if _, ok := e.Catalog.RowIndex(productID); !ok {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound,
			fmt.Sprintf("recommend: product %d not found in catalog", productID))
	}

	cacheKey := fmt.Sprintf("rec:content:%d:%d", productID, topN)
	if cached, ok := e.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	neighbors, err := e.Index.Neighbors(ctx, productID, topN)
	if err != nil {
		return nil, err
	}

	items := make([]*core.Item, 0, len(neighbors))
	for _, nb := range neighbors {
		it := core.NewItem(nb.ProductID)
		it.PutLabel("recall_source", utils.Label{Value: e.Index.Name(), Source: "recall"})
		it.PutLabel("knn_score", utils.Label{
			Value:  strconv.FormatFloat(nb.Score, 'f', 4, 64),
			Source: "recall",
		})
		items = append(items, it)
	}

	rctx := &core.RecommendContext{ProductID: productID, TopN: topN, Category: core.CategoryAll}
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&filter.Node{Filters: e.contentFilters()},
		&rank.CatalogRatingNode{Catalog: e.Catalog},
		&rerank.TopNNode{N: topN},
	}}
	items, err = p.Run(ctx, rctx, items)
	if err != nil {
		return nil, err
	}

	out := e.join(items)
	e.cacheSet(ctx, cacheKey, out)
	return out, nil
}

// ByCollaboration 基于用户评分历史返回个性化推荐。
//
// 候选 = 目录去重商品 ∩ 模型词表 − 用户正向历史；category 为
// core.CategoryAll 时不过滤类目。冷启动用户拿到的是模型基线估计，
// 不是错误；过滤后一个候选不剩也只是空结果。
func (e *Engine) ByCollaboration(ctx context.Context, userID int64, topN int, category string) ([]core.Recommendation, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if category == "" {
		category = core.CategoryAll
	}

	cacheKey := fmt.Sprintf("rec:collab:%d:%d:%s", userID, topN, category)
	if cached, ok := e.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	// 候选全集保持目录行序，估分平局时以此为准
	var items []*core.Item
	for _, id := range e.Catalog.CandidateIDs() {
		if !e.Scorer.KnownItem(id) {
			continue
		}
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "catalog", Source: "recall"})
		items = append(items, it)
	}

	rctx := &core.RecommendContext{UserID: userID, TopN: topN, Category: category}
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&filter.Node{Filters: e.collabFilters()},
		&rank.EstimateNode{Scorer: e.Scorer, MaxConcurrent: e.MaxConcurrent},
		&rerank.TopNNode{N: topN},
	}}
	items, err := p.Run(ctx, rctx, items)
	if err != nil {
		return nil, err
	}

	out := e.join(items)
	e.cacheSet(ctx, cacheKey, out)
	return out, nil
}

func (e *Engine) contentFilters() []filter.Filter {
	fs := []filter.Filter{
		&filter.SeedFilter{},
		filter.NewValidProductFilter(e.Catalog),
	}
	return append(fs, e.ExtraFilters...)
}

func (e *Engine) collabFilters() []filter.Filter {
	fs := []filter.Filter{
		filter.NewRatedFilter(e.Catalog, e.MinPositive),
		filter.NewValidProductFilter(e.Catalog),
		filter.NewCategoryFilter(e.Catalog),
	}
	return append(fs, e.ExtraFilters...)
}

// join 把候选关联回目录元信息，产出对外记录。
// 过不了目录关联的候选在过滤阶段已经剔除，这里只做兜底跳过。
func (e *Engine) join(items []*core.Item) []core.Recommendation {
	out := make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		p, ok := e.Catalog.Product(it.ID)
		if !ok {
			continue
		}
		out = append(out, core.Recommendation{
			ProductID:      p.ID,
			Name:           p.Name,
			Category:       p.Category,
			Price:          p.Price,
			EstimatedScore: it.Score,
			Image:          p.ImageOrPlaceholder(),
			Link:           p.Link,
			Description:    p.Description,
		})
	}
	return out
}

func (e *Engine) cacheGet(ctx context.Context, key string) ([]core.Recommendation, bool) {
	if e.Cache == nil {
		return nil, false
	}
	data, err := e.Cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var out []core.Recommendation
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (e *Engine) cacheSet(ctx context.Context, key string, recs []core.Recommendation) {
	if e.Cache == nil {
		return
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return
	}
	ttl := e.CacheTTL
	if ttl <= 0 {
		ttl = 300
	}
	// 缓存写失败不影响请求结果
	_ = e.Cache.Set(ctx, key, data, ttl)
}
