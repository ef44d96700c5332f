package knn

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/shoprec/core"
)

// FeatureMatrix 是离线管线导出的商品特征矩阵工件。
// 行序与商品目录行序一致；在线侧只消费它的查询能力，不关心特征如何产出
// （TF-IDF、词向量或别的什么）。
type FeatureMatrix struct {
	Dim     int
	IDs     []int64
	Vectors [][]float32

	row map[int64]int
}

type featureArtifact struct {
	Dim     int             `json:"dim"`
	Vectors []FeatureVector `json:"vectors"`
}

type FeatureVector struct {
	ProductID int64     `json:"product_id"`
	Vector    []float32 `json:"vector"`
}

// LoadFeatureMatrix 从 JSON 工件加载特征矩阵。
// 文件缺失、维度不一致都是 LOAD_FAILED：模型工件坏了就不该开始服务。
func LoadFeatureMatrix(path string) (*FeatureMatrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleKNN, core.ErrorCodeLoadFailed,
			fmt.Sprintf("knn: read feature matrix: %v", err))
	}
	var raw featureArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.NewDomainError(core.ModuleKNN, core.ErrorCodeLoadFailed,
			fmt.Sprintf("knn: decode feature matrix: %v", err))
	}
	return NewFeatureMatrix(raw.Dim, raw.Vectors)
}

// NewFeatureMatrix 从已解码的工件内容构建矩阵并做一致性校验。
func NewFeatureMatrix(dim int, vectors []FeatureVector) (*FeatureMatrix, error) {
	if dim <= 0 || len(vectors) == 0 {
		return nil, core.NewDomainError(core.ModuleKNN, core.ErrorCodeLoadFailed,
			"knn: feature matrix is empty")
	}
	m := &FeatureMatrix{
		Dim:     dim,
		IDs:     make([]int64, 0, len(vectors)),
		Vectors: make([][]float32, 0, len(vectors)),
		row:     make(map[int64]int, len(vectors)),
	}
	for i, v := range vectors {
		if len(v.Vector) != dim {
			return nil, core.NewDomainError(core.ModuleKNN, core.ErrorCodeLoadFailed,
				fmt.Sprintf("knn: row %d has dim %d, want %d", i, len(v.Vector), dim))
		}
		if _, ok := m.row[v.ProductID]; ok {
			continue // 重复行保留首次出现
		}
		m.row[v.ProductID] = len(m.IDs)
		m.IDs = append(m.IDs, v.ProductID)
		m.Vectors = append(m.Vectors, v.Vector)
	}
	return m, nil
}

// Row 返回商品在矩阵中的行号。
func (m *FeatureMatrix) Row(productID int64) (int, bool) {
	i, ok := m.row[productID]
	return i, ok
}

// Vector 返回商品的特征向量。
func (m *FeatureMatrix) Vector(productID int64) ([]float32, bool) {
	i, ok := m.row[productID]
	if !ok {
		return nil, false
	}
	return m.Vectors[i], true
}

// Len 返回矩阵行数。
func (m *FeatureMatrix) Len() int { return len(m.IDs) }
