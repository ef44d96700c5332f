package rank

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/mf"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// EstimateNode 用协同打分模型对候选逐个估分并降序排序。
//
// - 每个候选一次 Predict 调用，O(候选数) 次模型调用由这里批量发起
// - 分数四舍五入到两位小数后再排序，平局保持输入顺序（稳定排序）
// - 写入 labels：rank_model
type EstimateNode struct {
	Scorer mf.Scorer

	// MaxConcurrent 估分并发度，<= 0 表示串行。
	// 模型是内存查表，串行已经够快；并发开关留给未来换 RPC 模型时用。
	MaxConcurrent int
}

func (n *EstimateNode) Name() string        { return "rank.estimate" }
func (n *EstimateNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *EstimateNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Scorer == nil || len(items) == 0 {
		return items, nil
	}

	userID := int64(0)
	if rctx != nil {
		userID = rctx.UserID
	}

	if n.MaxConcurrent > 1 {
		eg, _ := errgroup.WithContext(ctx)
		eg.SetLimit(n.MaxConcurrent)
		for _, it := range items {
			it := it
			eg.Go(func() error {
				n.score(userID, it)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, it := range items {
			n.score(userID, it)
		}
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

func (n *EstimateNode) score(userID int64, it *core.Item) {
	if it == nil {
		return
	}
	it.Score = Round2(n.Scorer.Predict(userID, it.ID))
	it.PutLabel("rank_model", utils.Label{Value: n.Scorer.Name(), Source: "rank"})
}

// Round2 四舍五入到两位小数，对外展示与排序共用同一份分数。
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
