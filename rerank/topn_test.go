package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func TestTopNNode(t *testing.T) {
	mkItems := func(n int) []*core.Item {
		items := make([]*core.Item, n)
		for i := range items {
			items[i] = core.NewItem(int64(i + 1))
		}
		return items
	}

	tests := []struct {
		name  string
		n     int
		items int
		want  int
	}{
		{name: "truncates to n", n: 3, items: 10, want: 3},
		{name: "fewer items than n", n: 5, items: 2, want: 2},
		{name: "exactly n", n: 4, items: 4, want: 4},
		{name: "n zero is no-op", n: 0, items: 6, want: 6},
		{name: "empty input", n: 3, items: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			out, err := node.Process(context.Background(), nil, mkItems(tt.items))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if len(out) != tt.want {
				t.Errorf("Process() len = %d, want %d", len(out), tt.want)
			}
			// 截断保留的是排序靠前的项
			if tt.want > 0 && out[0].ID != 1 {
				t.Errorf("Process() first = %d, want 1", out[0].ID)
			}
		})
	}
}
