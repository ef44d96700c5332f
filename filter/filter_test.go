package filter

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
)

func testCatalog() *catalog.Catalog {
	products := []core.Product{
		{ID: 101, Name: "Ceramic Mug", Category: "Kitchen", Price: 9.99, Rating: 4.5, HasRating: true},
		{ID: 102, Name: "Steel Kettle", Category: "Kitchen", Price: 24.50, Rating: 3.8, HasRating: true},
		{ID: 103, Name: "Desk Lamp", Category: "Office", Price: 15.00},
		{ID: 104, Name: "", Category: "Office", Price: 5.00},
	}
	ratings := []core.Rating{
		{UserID: 7, UserName: "alice", ProductID: 101, Score: 5},
		{UserID: 7, UserName: "alice", ProductID: 102, Score: 2},
	}
	return catalog.New(products, ratings)
}

func TestRatedFilter(t *testing.T) {
	f := NewRatedFilter(testCatalog(), 0)
	ctx := context.Background()

	tests := []struct {
		name string
		rctx *core.RecommendContext
		item *core.Item
		want bool
	}{
		{
			name: "positively rated product is dropped",
			rctx: &core.RecommendContext{UserID: 7},
			item: core.NewItem(101),
			want: true,
		},
		{
			name: "low rating below threshold is kept",
			rctx: &core.RecommendContext{UserID: 7},
			item: core.NewItem(102),
			want: false,
		},
		{
			name: "unrated product is kept",
			rctx: &core.RecommendContext{UserID: 7},
			item: core.NewItem(103),
			want: false,
		},
		{
			name: "unknown user keeps everything",
			rctx: &core.RecommendContext{UserID: 999},
			item: core.NewItem(101),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(ctx, tt.rctx, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeedFilter(t *testing.T) {
	f := &SeedFilter{}
	rctx := &core.RecommendContext{ProductID: 101}

	if got, _ := f.ShouldFilter(context.Background(), rctx, core.NewItem(101)); !got {
		t.Error("ShouldFilter(seed) = false, want true")
	}
	if got, _ := f.ShouldFilter(context.Background(), rctx, core.NewItem(102)); got {
		t.Error("ShouldFilter(other) = true, want false")
	}
}

func TestCategoryFilter(t *testing.T) {
	f := NewCategoryFilter(testCatalog())
	ctx := context.Background()

	tests := []struct {
		name     string
		category string
		item     *core.Item
		want     bool
	}{
		{name: "matching category kept", category: "Kitchen", item: core.NewItem(101), want: false},
		{name: "other category dropped", category: "Kitchen", item: core.NewItem(103), want: true},
		{name: "sentinel passes everything", category: core.CategoryAll, item: core.NewItem(103), want: false},
		{name: "empty category passes everything", category: "", item: core.NewItem(103), want: false},
		{name: "case sensitive match", category: "kitchen", item: core.NewItem(101), want: true},
		{name: "missing from catalog dropped", category: "Kitchen", item: core.NewItem(999), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := &core.RecommendContext{Category: tt.category}
			got, err := f.ShouldFilter(ctx, rctx, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidProductFilter(t *testing.T) {
	f := NewValidProductFilter(testCatalog())
	ctx := context.Background()

	if got, _ := f.ShouldFilter(ctx, nil, core.NewItem(101)); got {
		t.Error("ShouldFilter(valid product) = true, want false")
	}
	if got, _ := f.ShouldFilter(ctx, nil, core.NewItem(999)); !got {
		t.Error("ShouldFilter(missing product) = false, want true")
	}
	if got, _ := f.ShouldFilter(ctx, nil, core.NewItem(104)); !got {
		t.Error("ShouldFilter(nameless product) = false, want true")
	}
}

func TestRuleFilter(t *testing.T) {
	c := testCatalog()

	f, err := NewRuleFilter(c, `product.price > 10.0`)
	if err != nil {
		t.Fatalf("NewRuleFilter() error = %v", err)
	}

	if got, _ := f.ShouldFilter(context.Background(), nil, core.NewItem(102)); got {
		t.Error("rule true: item dropped, want kept")
	}
	if got, _ := f.ShouldFilter(context.Background(), nil, core.NewItem(101)); !got {
		t.Error("rule false: item kept, want dropped")
	}
	// 目录缺行交给 ValidProductFilter，规则放行
	if got, _ := f.ShouldFilter(context.Background(), nil, core.NewItem(999)); got {
		t.Error("missing catalog row should pass through rule filter")
	}
}

func TestNewRuleFilterEmptyExpr(t *testing.T) {
	f, err := NewRuleFilter(testCatalog(), "")
	if err != nil {
		t.Fatalf("NewRuleFilter() error = %v", err)
	}
	if f != nil {
		t.Error("NewRuleFilter(empty) should return nil filter")
	}
}

func TestNewRuleFilterBadExpr(t *testing.T) {
	if _, err := NewRuleFilter(testCatalog(), `product.price >`); err == nil {
		t.Error("NewRuleFilter(bad expr) expected compile error")
	}
}

func TestFilterNode(t *testing.T) {
	c := testCatalog()
	node := &Node{Filters: []Filter{
		&SeedFilter{},
		NewValidProductFilter(c),
	}}

	items := []*core.Item{
		core.NewItem(101), // 种子，被剔除
		core.NewItem(102),
		core.NewItem(104), // 商品名缺失，被剔除
		core.NewItem(103),
	}
	rctx := &core.RecommendContext{ProductID: 101}

	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 || out[0].ID != 102 || out[1].ID != 103 {
		ids := make([]int64, 0, len(out))
		for _, it := range out {
			ids = append(ids, it.ID)
		}
		t.Errorf("Process() kept %v, want [102 103]", ids)
	}
	// 被剔除的候选带上了过滤原因标签
	if items[0].Label("filtered") != "true" {
		t.Error("dropped item missing filtered label")
	}
}
