package recommend

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/knn"
	"github.com/rushteam/shoprec/store"
)

// fakeIndex 按固定表返回近邻。
type fakeIndex struct {
	neighbors map[int64][]knn.Neighbor
	calls     int
}

func (f *fakeIndex) Name() string { return "fake.index" }

func (f *fakeIndex) Neighbors(_ context.Context, productID int64, k int) ([]knn.Neighbor, error) {
	f.calls++
	nbs, ok := f.neighbors[productID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleKNN, core.ErrorCodeNotFound, "knn: not in index")
	}
	if len(nbs) > k {
		nbs = nbs[:k]
	}
	return nbs, nil
}

// fakeScorer 对固定词表内的商品返回固定估分。
type fakeScorer struct {
	scores map[int64]float64
}

func (s *fakeScorer) Name() string { return "fake.scorer" }

func (s *fakeScorer) Predict(_, productID int64) float64 {
	return s.scores[productID]
}

func (s *fakeScorer) KnownItem(productID int64) bool {
	_, ok := s.scores[productID]
	return ok
}

func testCatalog() *catalog.Catalog {
	products := []core.Product{
		{ID: 1, Name: "Ceramic Mug", Category: "Kitchen", Price: 9.99, Rating: 4.5, HasRating: true},
		{ID: 2, Name: "Steel Kettle", Category: "Kitchen", Price: 24.5, Rating: 3.8, HasRating: true},
		{ID: 3, Name: "Desk Lamp", Category: "Office", Price: 15, Rating: 4.9, HasRating: true},
		{ID: 4, Name: "Notebook", Category: "Office", Price: 3, Rating: 2.1, HasRating: true},
		{ID: 5, Name: "", Category: "Office", Price: 5, Rating: 5, HasRating: true},
	}
	ratings := []core.Rating{
		{UserID: 7, UserName: "alice", ProductID: 1, Score: 5},
		{UserID: 7, UserName: "alice", ProductID: 4, Score: 2},
	}
	return catalog.New(products, ratings)
}

func contentEngine() (*Engine, *fakeIndex) {
	idx := &fakeIndex{neighbors: map[int64][]knn.Neighbor{
		1: {
			{ProductID: 2, Score: 0.9},
			{ProductID: 3, Score: 0.8},
			{ProductID: 5, Score: 0.7},
			{ProductID: 4, Score: 0.6},
		},
	}}
	return &Engine{
		Catalog: testCatalog(),
		Index:   idx,
		Scorer:  &fakeScorer{scores: map[int64]float64{}},
	}, idx
}

func TestByContent(t *testing.T) {
	e, _ := contentEngine()

	got, err := e.ByContent(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("ByContent() error = %v", err)
	}

	// 索引取前 3 个近邻 [2 3 5]，5 号商品名缺失被剔除；
	// 剩下按目录基础评分降序：3 (4.9) > 2 (3.8)
	wantOrder := []int64{3, 2}
	if len(got) != len(wantOrder) {
		t.Fatalf("ByContent() len = %d, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ProductID != id {
			t.Errorf("ByContent()[%d] = %d, want %d", i, got[i].ProductID, id)
		}
	}
	if got[0].EstimatedScore != 4.9 {
		t.Errorf("EstimatedScore = %v, want base rating 4.9", got[0].EstimatedScore)
	}
	// 元信息 join 自目录
	if got[0].Name != "Desk Lamp" || got[0].Category != "Office" {
		t.Errorf("joined metadata = %+v", got[0])
	}
	// 图片缺失填占位图
	if got[0].Image == "" {
		t.Error("Image should fall back to placeholder")
	}
}

func TestByContentUnknownSeed(t *testing.T) {
	e, _ := contentEngine()

	_, err := e.ByContent(context.Background(), 999, 3)
	if !core.IsNotFound(err) {
		t.Errorf("ByContent(unknown seed) error = %v, want NOT_FOUND", err)
	}
}

func TestByContentDefaultTopN(t *testing.T) {
	e, idx := contentEngine()
	idx.neighbors[1] = nil

	// topN <= 0 走默认值，不报错
	got, err := e.ByContent(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("ByContent() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ByContent() with no neighbors = %v, want empty", got)
	}
}

func TestByContentCache(t *testing.T) {
	e, idx := contentEngine()
	kv := store.NewMemoryStore()
	defer kv.Close()
	e.Cache = kv

	for i := 0; i < 3; i++ {
		if _, err := e.ByContent(context.Background(), 1, 3); err != nil {
			t.Fatalf("ByContent() error = %v", err)
		}
	}
	if idx.calls != 1 {
		t.Errorf("index queried %d times, want 1 (cache hit)", idx.calls)
	}
}

func collabEngine() *Engine {
	return &Engine{
		Catalog: testCatalog(),
		Scorer: &fakeScorer{scores: map[int64]float64{
			1: 4.2,
			2: 3.9,
			3: 4.7,
			4: 2.5,
			// 5 不在词表中
		}},
	}
}

func TestByCollaboration(t *testing.T) {
	e := collabEngine()

	got, err := e.ByCollaboration(context.Background(), 7, 5, "")
	if err != nil {
		t.Fatalf("ByCollaboration() error = %v", err)
	}

	// 1 号被用户正向评价过（5 分）被剔除；4 号评分只有 2 分保留；
	// 5 号不在词表中不参与；剩下按估分降序：3 (4.7) > 2 (3.9) > 4 (2.5)
	wantOrder := []int64{3, 2, 4}
	if len(got) != len(wantOrder) {
		t.Fatalf("ByCollaboration() len = %d, want %d: %+v", len(got), len(wantOrder), got)
	}
	for i, id := range wantOrder {
		if got[i].ProductID != id {
			t.Errorf("ByCollaboration()[%d] = %d, want %d", i, got[i].ProductID, id)
		}
	}
	if got[0].EstimatedScore != 4.7 {
		t.Errorf("EstimatedScore = %v, want 4.7", got[0].EstimatedScore)
	}
}

func TestByCollaborationCategory(t *testing.T) {
	e := collabEngine()

	tests := []struct {
		name     string
		category string
		want     []int64
	}{
		{name: "category restricts candidates", category: "Kitchen", want: []int64{2}},
		{name: "sentinel means all categories", category: core.CategoryAll, want: []int64{3, 2, 4}},
		{name: "empty category means all", category: "", want: []int64{3, 2, 4}},
		{name: "unknown category yields empty result", category: "Toys", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ByCollaboration(context.Background(), 7, 5, tt.category)
			if err != nil {
				t.Fatalf("ByCollaboration() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ByCollaboration() len = %d, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ProductID != id {
					t.Errorf("ByCollaboration()[%d] = %d, want %d", i, got[i].ProductID, id)
				}
			}
		})
	}
}

func TestByCollaborationColdStart(t *testing.T) {
	e := collabEngine()

	// 没有任何评分历史的用户：不报错，正常返回词表内候选
	got, err := e.ByCollaboration(context.Background(), 999, 5, "")
	if err != nil {
		t.Fatalf("ByCollaboration(cold start) error = %v", err)
	}
	if len(got) != 4 {
		t.Errorf("ByCollaboration(cold start) len = %d, want 4", len(got))
	}
}

func TestByCollaborationTopN(t *testing.T) {
	e := collabEngine()

	got, err := e.ByCollaboration(context.Background(), 999, 2, "")
	if err != nil {
		t.Fatalf("ByCollaboration() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ByCollaboration(topN=2) len = %d, want 2", len(got))
	}
}

func TestEngineExtraFilters(t *testing.T) {
	e := collabEngine()
	rf, err := filter.NewRuleFilter(e.Catalog, `product.price > 10.0`)
	if err != nil {
		t.Fatalf("NewRuleFilter() error = %v", err)
	}
	e.ExtraFilters = []filter.Filter{rf}

	got, err := e.ByCollaboration(context.Background(), 999, 5, "")
	if err != nil {
		t.Fatalf("ByCollaboration() error = %v", err)
	}
	// 价格 <= 10 的候选（1 号 9.99、4 号 3）被规则剔除
	wantOrder := []int64{3, 2}
	if len(got) != len(wantOrder) {
		t.Fatalf("ByCollaboration() len = %d, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ProductID != id {
			t.Errorf("ByCollaboration()[%d] = %d, want %d", i, got[i].ProductID, id)
		}
	}
}
