// Package dsl 提供基于 CEL (Common Expression Language) 的结果规则解释器。
//
// 规则表达式作用在一条候选记录上，返回布尔值，语法示例：
//   - `product.price > 0`                         商品必须有价格
//   - `product.category != "Khác"`                排除某个类目
//   - `score >= 3.0 && product.rating >= 2.0`     估分与基础评分双阈值
//
// 表达式由配置下发，编译一次后可并发复用。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getEnv 获取全局 CEL 环境（线程安全，可复用）。
func getEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("product", cel.DynType),
			cel.Variable("score", cel.DoubleType),
			cel.Variable("user_id", cel.IntType),
			cel.Variable("params", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条编译好的结果规则。
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译规则表达式。空表达式返回 nil Rule（恒为 true）。
func Compile(expr string) (*Rule, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// String 返回规则原始表达式。
func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	return r.expr
}

// Eval 对一条候选求值。nil Rule 恒为 true。
// 表达式必须返回布尔值，否则报错。
func (r *Rule) Eval(p core.Product, score float64, rctx *core.RecommendContext) (bool, error) {
	if r == nil {
		return true, nil
	}

	var params map[string]any
	var userID int64
	if rctx != nil {
		params = rctx.Params
		userID = rctx.UserID
	}
	if params == nil {
		params = map[string]any{}
	}

	out, _, err := r.prg.Eval(map[string]any{
		"product": map[string]any{
			"id":       p.ID,
			"name":     p.Name,
			"category": p.Category,
			"price":    p.Price,
			"rating":   p.Rating,
		},
		"score":   score,
		"user_id": userID,
		"params":  params,
	})
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", r.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q must return boolean, got %T", r.expr, out.Value())
	}
	return b, nil
}
