package dsl

import (
	"testing"

	"github.com/rushteam/shoprec/core"
)

func TestCompileAndEval(t *testing.T) {
	p := core.Product{
		ID:       101,
		Name:     "Ceramic Mug",
		Category: "Kitchen",
		Price:    9.99,
		Rating:   4.5,
	}

	tests := []struct {
		name  string
		expr  string
		score float64
		want  bool
	}{
		{name: "price threshold true", expr: `product.price > 5.0`, want: true},
		{name: "price threshold false", expr: `product.price > 10.0`, want: false},
		{name: "category match", expr: `product.category == "Kitchen"`, want: true},
		{name: "score variable", expr: `score >= 3.0`, score: 4.2, want: true},
		{name: "combined condition", expr: `product.rating >= 4.0 && score < 3.0`, score: 2.5, want: true},
		{name: "user id variable", expr: `user_id == 7`, want: true},
	}
	rctx := &core.RecommendContext{UserID: 7}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tt.expr, err)
			}
			got, err := rule.Eval(p, tt.score, rctx)
			if err != nil {
				t.Fatalf("Eval() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompileEmpty(t *testing.T) {
	rule, err := Compile("")
	if err != nil {
		t.Fatalf("Compile(empty) error = %v", err)
	}
	if rule != nil {
		t.Error("Compile(empty) should return nil rule")
	}
	// nil Rule 恒为 true
	ok, err := rule.Eval(core.Product{}, 0, nil)
	if err != nil || !ok {
		t.Errorf("nil rule Eval() = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile(`product.price >`); err == nil {
		t.Error("Compile(incomplete expr) expected error")
	}
}

func TestEvalNonBoolean(t *testing.T) {
	rule, err := Compile(`product.price + 1.0`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := rule.Eval(core.Product{Price: 1}, 0, nil); err == nil {
		t.Error("Eval(non-boolean expr) expected error")
	}
}

func TestEvalParams(t *testing.T) {
	rule, err := Compile(`params.min_price < product.price`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	rctx := &core.RecommendContext{Params: map[string]any{"min_price": 5.0}}
	ok, err := rule.Eval(core.Product{Price: 9.99}, 0, rctx)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if !ok {
		t.Error("Eval(params expr) = false, want true")
	}
}
