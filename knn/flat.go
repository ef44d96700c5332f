package knn

import (
	"context"
	"math"
	"sort"
)

// FlatIndex 是内存中的暴力余弦索引：对全量行线性扫描。
// 目录量级在万行以内时延迟完全可接受，且结果是精确最近邻，
// 适合做默认实现与测试基准。
type FlatIndex struct {
	matrix *FeatureMatrix
	norms  []float64
}

// NewFlatIndex 基于特征矩阵构建索引，行向量的模长只算一次。
func NewFlatIndex(m *FeatureMatrix) *FlatIndex {
	norms := make([]float64, m.Len())
	for i, vec := range m.Vectors {
		var n float64
		for _, v := range vec {
			n += float64(v) * float64(v)
		}
		norms[i] = math.Sqrt(n)
	}
	return &FlatIndex{matrix: m, norms: norms}
}

func (idx *FlatIndex) Name() string { return "knn.flat" }

func (idx *FlatIndex) Neighbors(_ context.Context, productID int64, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, errBadK(k)
	}
	seedRow, ok := idx.matrix.Row(productID)
	if !ok {
		return nil, errSeedNotFound(productID)
	}

	seed := idx.matrix.Vectors[seedRow]
	seedNorm := idx.norms[seedRow]

	type scored struct {
		row   int
		score float64
	}
	// 连自身一起取 k+1 个，再丢弃自身命中
	scores := make([]scored, 0, idx.matrix.Len())
	for row := range idx.matrix.Vectors {
		scores = append(scores, scored{row: row, score: idx.cosine(seed, seedNorm, row)})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	limit := k + 1
	if limit > len(scores) {
		limit = len(scores)
	}
	out := make([]Neighbor, 0, k)
	for _, s := range scores[:limit] {
		if s.row == seedRow {
			continue
		}
		if len(out) == k {
			break
		}
		out = append(out, Neighbor{ProductID: idx.matrix.IDs[s.row], Score: s.score})
	}
	return out, nil
}

func (idx *FlatIndex) cosine(seed []float32, seedNorm float64, row int) float64 {
	other := idx.matrix.Vectors[row]
	otherNorm := idx.norms[row]
	if seedNorm == 0 || otherNorm == 0 {
		return 0
	}
	var dot float64
	for i := range seed {
		dot += float64(seed[i]) * float64(other[i])
	}
	return dot / (seedNorm * otherNorm)
}
