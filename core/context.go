package core

// CategoryAll 是类目过滤的哨兵值：不做类目限制。
const CategoryAll = "All"

// RecommendContext 承载一次推荐查询的种子与参数，贯穿整个 Pipeline 透传。
// content 路径的种子是 ProductID，collaborative 路径的种子是 UserID。
type RecommendContext struct {
	UserID    int64
	ProductID int64

	// TopN 本次查询期望返回的最大条数
	TopN int

	// Category 类目过滤，CategoryAll 表示全类目
	Category string

	// Params 请求级上下文参数（规则过滤表达式可引用）
	Params map[string]any
}

// CategoryFilterActive 返回是否需要做类目限制。
func (rctx *RecommendContext) CategoryFilterActive() bool {
	return rctx.Category != "" && rctx.Category != CategoryAll
}
