package knn

import (
	"context"
	"fmt"
	"strconv"

	vector "github.com/liliang-cn/sqvect/v2/pkg/core"
	"github.com/liliang-cn/sqvect/v2/pkg/sqvect"

	"github.com/rushteam/shoprec/core"
)

// SqvectIndex 是 sqvect（SQLite 向量库）后端的近邻索引。
// 索引文件落盘，进程重启不用重建；目录大到内存放不下全量特征时用它。
// 种子向量仍从特征矩阵取，sqvect 只负责近邻检索。
type SqvectIndex struct {
	db     *sqvect.DB
	matrix *FeatureMatrix
}

// OpenSqvectIndex 打开（或创建）索引文件并灌入特征矩阵。
// Upsert 幂等，重复打开同一文件不会产生重复行。
func OpenSqvectIndex(ctx context.Context, path string, m *FeatureMatrix) (*SqvectIndex, error) {
	db, err := sqvect.Open(sqvect.Config{
		Path:         path,
		Dimensions:   m.Dim,
		SimilarityFn: vector.CosineSimilarity,
		IndexType:    vector.IndexTypeFlat,
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleKNN, core.ErrorCodeLoadFailed,
			fmt.Sprintf("knn: open sqvect index: %v", err))
	}

	embs := make([]*vector.Embedding, 0, m.Len())
	for i, id := range m.IDs {
		embs = append(embs, &vector.Embedding{
			ID:     strconv.FormatInt(id, 10),
			Vector: m.Vectors[i],
		})
	}
	if err := db.Vector().UpsertBatch(ctx, embs); err != nil {
		db.Close()
		return nil, core.NewDomainError(core.ModuleKNN, core.ErrorCodeLoadFailed,
			fmt.Sprintf("knn: build sqvect index: %v", err))
	}
	return &SqvectIndex{db: db, matrix: m}, nil
}

func (idx *SqvectIndex) Name() string { return "knn.sqvect" }

func (idx *SqvectIndex) Neighbors(ctx context.Context, productID int64, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, errBadK(k)
	}
	seed, ok := idx.matrix.Vector(productID)
	if !ok {
		return nil, errSeedNotFound(productID)
	}

	// 连自身一起取 k+1 个，再丢弃自身命中
	res, err := idx.db.Vector().Search(ctx, seed, vector.SearchOptions{TopK: k + 1})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleKNN, core.ErrorCodeInternalError,
			fmt.Sprintf("knn: sqvect search: %v", err))
	}

	out := make([]Neighbor, 0, k)
	for _, r := range res {
		id, err := strconv.ParseInt(r.ID, 10, 64)
		if err != nil || id == productID {
			continue
		}
		if len(out) == k {
			break
		}
		out = append(out, Neighbor{ProductID: id, Score: r.Score})
	}
	return out, nil
}

// Close 关闭底层索引文件。
func (idx *SqvectIndex) Close() error { return idx.db.Close() }
