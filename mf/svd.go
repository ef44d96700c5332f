// Package mf 封装离线训练好的隐因子评分模型（带偏置的矩阵分解）。
//
// 预测公式：est = 全局均值 + 用户偏置 + 物品偏置 + 用户隐向量 · 物品隐向量，
// 最终裁剪到评分量表范围。训练集之外的用户没有偏置和隐向量，
// 自然退化为基线估计，冷启动不是错误。
package mf

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rushteam/shoprec/core"
)

// Scorer 是协同打分的领域接口：给定 (用户, 商品) 返回预估评分。
// 纯函数，查询层负责对候选集逐个调用。
type Scorer interface {
	Name() string

	// Predict 返回预估评分，已裁剪到评分量表范围
	Predict(userID, productID int64) float64

	// KnownItem 返回商品是否在训练词表中。
	// 不在词表中的商品由查询层在候选阶段剔除，而不是在这里报错。
	KnownItem(productID int64) bool
}

// SVDModel 是序列化工件加载出来的模型快照，加载后只读。
type SVDModel struct {
	Mean        float64
	UserBias    map[int64]float64
	ItemBias    map[int64]float64
	UserFactors map[int64][]float64
	ItemFactors map[int64][]float64
	Low, High   float64
}

type svdArtifact struct {
	GlobalMean  float64              `json:"global_mean"`
	UserBias    map[string]float64   `json:"user_bias"`
	ItemBias    map[string]float64   `json:"item_bias"`
	UserFactors map[string][]float64 `json:"user_factors"`
	ItemFactors map[string][]float64 `json:"item_factors"`
	RatingScale [2]float64           `json:"rating_scale"`
}

// LoadSVDModel 从 JSON 工件加载模型。文件缺失或内容不完整是 LOAD_FAILED。
func LoadSVDModel(path string) (*SVDModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleMF, core.ErrorCodeLoadFailed,
			fmt.Sprintf("mf: read model: %v", err))
	}
	var raw svdArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.NewDomainError(core.ModuleMF, core.ErrorCodeLoadFailed,
			fmt.Sprintf("mf: decode model: %v", err))
	}
	if len(raw.ItemBias) == 0 && len(raw.ItemFactors) == 0 {
		return nil, core.NewDomainError(core.ModuleMF, core.ErrorCodeLoadFailed,
			"mf: model has no item vocabulary")
	}

	m := &SVDModel{
		Mean: raw.GlobalMean,
		Low:  raw.RatingScale[0],
		High: raw.RatingScale[1],
	}
	if m.Low == 0 && m.High == 0 {
		m.Low, m.High = 1, 5
	}
	if m.UserBias, err = int64Keys(raw.UserBias); err != nil {
		return nil, loadErr("user_bias", err)
	}
	if m.ItemBias, err = int64Keys(raw.ItemBias); err != nil {
		return nil, loadErr("item_bias", err)
	}
	if m.UserFactors, err = int64Keys(raw.UserFactors); err != nil {
		return nil, loadErr("user_factors", err)
	}
	if m.ItemFactors, err = int64Keys(raw.ItemFactors); err != nil {
		return nil, loadErr("item_factors", err)
	}
	return m, nil
}

func (m *SVDModel) Name() string { return "mf.svd" }

// Predict 计算预估评分。未知用户退化为基线（冷启动策略），
// 未知商品退化为 均值+用户偏置；结果统一裁剪到量表范围。
func (m *SVDModel) Predict(userID, productID int64) float64 {
	est := m.Mean + m.UserBias[userID] + m.ItemBias[productID]
	if pu, ok := m.UserFactors[userID]; ok {
		if qi, ok := m.ItemFactors[productID]; ok {
			est += dot(pu, qi)
		}
	}
	return m.clip(est)
}

// KnownItem 返回商品是否出现在训练词表中。
func (m *SVDModel) KnownItem(productID int64) bool {
	if _, ok := m.ItemBias[productID]; ok {
		return true
	}
	_, ok := m.ItemFactors[productID]
	return ok
}

// KnownUser 返回用户是否出现在训练词表中（观测用，冷启动判定不依赖它）。
func (m *SVDModel) KnownUser(userID int64) bool {
	if _, ok := m.UserBias[userID]; ok {
		return true
	}
	_, ok := m.UserFactors[userID]
	return ok
}

func (m *SVDModel) clip(est float64) float64 {
	if est < m.Low {
		return m.Low
	}
	if est > m.High {
		return m.High
	}
	return est
}

func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func int64Keys[V any](in map[string]V) (map[int64]V, error) {
	if in == nil {
		return map[int64]V{}, nil
	}
	out := make(map[int64]V, len(in))
	for k, v := range in {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[id] = v
	}
	return out, nil
}

func loadErr(section string, err error) error {
	return core.NewDomainError(core.ModuleMF, core.ErrorCodeLoadFailed,
		fmt.Sprintf("mf: decode %s: %v", section, err))
}
