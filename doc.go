// Package shoprec 是一个商品推荐查询层。
//
// 设计要点：
// - 快照驱动: 商品目录、特征矩阵、SVD 因子均为进程启动时加载的只读工件
// - 双通路: 以商品为锚点的近邻推荐（content）与以用户为锚点的协同推荐（collab）
// - Pipeline-first: 候选集经 Filter → Rank → ReRank 节点串联后产出结果
package shoprec

import "github.com/rushteam/shoprec/pipeline"

// 轻量 facade：便于直接 import "shoprec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
