// Package knn 封装商品内容特征上的最近邻查询。
//
// 索引由离线产出的特征矩阵构建，在线只做查询：给定种子商品返回
// 最近的 K 个其他商品。统一约定按 K+1 查询再丢弃自身命中，
// 与"种子是自己的最近邻"这一性质对齐。
package knn

import (
	"context"
	"fmt"

	"github.com/rushteam/shoprec/core"
)

// Neighbor 是一次近邻查询的单条结果：商品 ID 与相似度分数（越大越相似）。
// 结果尚未关联目录元信息，由查询层负责 join。
type Neighbor struct {
	ProductID int64
	Score     float64
}

// NeighborIndex 是内容相似索引的领域接口。
//
// 约定：
//   - 种子不在索引中返回 NOT_FOUND 领域错误，调用方渲染空结果而不是崩溃
//   - k < 1 返回 INVALID_INPUT
//   - 返回结果不包含种子自身，按相似度降序，至多 k 条
type NeighborIndex interface {
	Name() string
	Neighbors(ctx context.Context, productID int64, k int) ([]Neighbor, error)
}

func errSeedNotFound(productID int64) error {
	return core.NewDomainError(core.ModuleKNN, core.ErrorCodeNotFound,
		fmt.Sprintf("knn: product %d not in index", productID))
}

func errBadK(k int) error {
	return core.NewDomainError(core.ModuleKNN, core.ErrorCodeInvalidInput,
		fmt.Sprintf("knn: neighbor count must be >= 1, got %d", k))
}
