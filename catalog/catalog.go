// Package catalog 加载并索引两张只读表：商品目录与用户评分历史。
// 进程启动时加载一次，加载失败视为致命错误；加载成功后全程只读，
// 多会话并发读取无需加锁。
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rushteam/shoprec/core"
)

// 商品表必需列。image / link / description_clean 允许缺失。
var productColumns = []string{"product_id", "product_name", "sub_category", "price", "rating"}

// 评分表必需列。
var ratingColumns = []string{"user_id", "user", "product_id", "rating"}

// Catalog 是进程生命周期的目录快照。
// products 保持源文件行序，该行序同时是内容特征矩阵的行序，
// 候选集遍历与排序平局时都以它为准。
type Catalog struct {
	products   []core.Product
	ratings    []core.Rating
	rowByID    map[int64]int
	byCategory map[string][]int64
	byUser     map[int64][]core.Rating
	categories []string
}

// Load 从两个 CSV 文件加载目录。任何一个文件缺失或格式不符都返回
// LOAD_FAILED 领域错误，调用方应当视为致命、拒绝开始服务。
func Load(productsPath, ratingsPath string) (*Catalog, error) {
	products, err := loadProducts(productsPath)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeLoadFailed,
			fmt.Sprintf("catalog: load products: %v", err))
	}
	ratings, err := loadRatings(ratingsPath)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeLoadFailed,
			fmt.Sprintf("catalog: load ratings: %v", err))
	}
	return build(products, ratings), nil
}

// New 从内存中的商品与评分切片构建目录，供测试与离线工具使用。
// 行序语义与 Load 一致：products 的切片顺序即目录行序。
func New(products []core.Product, ratings []core.Rating) *Catalog {
	return build(products, ratings)
}

func build(products []core.Product, ratings []core.Rating) *Catalog {
	c := &Catalog{
		products:   products,
		ratings:    ratings,
		rowByID:    make(map[int64]int, len(products)),
		byCategory: make(map[string][]int64),
		byUser:     make(map[int64][]core.Rating),
	}
	for i, p := range products {
		// 重复 product_id 保留首次出现的行（与候选去重口径一致）
		if _, ok := c.rowByID[p.ID]; !ok {
			c.rowByID[p.ID] = i
			if p.Category != "" {
				c.byCategory[p.Category] = append(c.byCategory[p.Category], p.ID)
			}
		}
	}
	for _, r := range ratings {
		c.byUser[r.UserID] = append(c.byUser[r.UserID], r)
	}
	for cat := range c.byCategory {
		c.categories = append(c.categories, cat)
	}
	sort.Strings(c.categories)
	return c
}

// Len 返回商品表行数（含重复行）。
func (c *Catalog) Len() int { return len(c.products) }

// Products 返回全部商品行，调用方不得修改。
func (c *Catalog) Products() []core.Product { return c.products }

// Ratings 返回全部评分事件，调用方不得修改。
func (c *Catalog) Ratings() []core.Rating { return c.ratings }

// Product 按 ID 查找商品。
func (c *Catalog) Product(id int64) (core.Product, bool) {
	i, ok := c.rowByID[id]
	if !ok {
		return core.Product{}, false
	}
	return c.products[i], true
}

// RowIndex 返回商品在目录中的行号。行号与特征矩阵行对应，
// 内容索引用它做种子定位与越界校验。
func (c *Catalog) RowIndex(id int64) (int, bool) {
	i, ok := c.rowByID[id]
	return i, ok
}

// ProductAt 按行号取商品，越界返回 false。
func (c *Catalog) ProductAt(row int) (core.Product, bool) {
	if row < 0 || row >= len(c.products) {
		return core.Product{}, false
	}
	return c.products[row], true
}

// CandidateIDs 返回去重后的全部商品 ID，保持目录行序。
// collaborative 路径以它为候选全集。
func (c *Catalog) CandidateIDs() []int64 {
	out := make([]int64, 0, len(c.rowByID))
	seen := make(map[int64]struct{}, len(c.rowByID))
	for _, p := range c.products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p.ID)
	}
	return out
}

// Categories 返回去重排序后的类目列表（展示层填充下拉框用）。
func (c *Catalog) Categories() []string { return c.categories }

// ByCategory 返回指定类目下的商品 ID（目录行序）。
func (c *Catalog) ByCategory(category string) []int64 { return c.byCategory[category] }

// UserRatings 返回某用户的全部评分事件。
func (c *Catalog) UserRatings(userID int64) []core.Rating { return c.byUser[userID] }

// PositiveHistory 返回某用户评分 >= minScore 的商品集合。
// collaborative 路径用它剔除用户已经正向评价过的商品。
func (c *Catalog) PositiveHistory(userID int64, minScore float64) map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, r := range c.byUser[userID] {
		if r.Score >= minScore {
			out[r.ProductID] = struct{}{}
		}
	}
	return out
}

// ProductIDByName 把商品名解析为 product_id。
// 同名商品可能对应多个 ID，取目录中出现次数最多的那个（次数相同取行序靠前的）。
func (c *Catalog) ProductIDByName(name string) (int64, bool) {
	counts := make(map[int64]int)
	order := make([]int64, 0, 4)
	for _, p := range c.products {
		if p.Name != name {
			continue
		}
		if _, ok := counts[p.ID]; !ok {
			order = append(order, p.ID)
		}
		counts[p.ID]++
	}
	if len(order) == 0 {
		return 0, false
	}
	best := order[0]
	for _, id := range order[1:] {
		if counts[id] > counts[best] {
			best = id
		}
	}
	return best, true
}

func loadProducts(path string) ([]core.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, productColumns)
	if err != nil {
		return nil, err
	}

	var out []core.Product
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		id, err := parseID(field(rec, cols["product_id"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: product_id: %w", line, err)
		}
		price, err := parseOptionalFloat(field(rec, cols["price"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: price: %w", line, err)
		}
		rating, hasRating, err := parseNullableFloat(field(rec, cols["rating"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: rating: %w", line, err)
		}

		out = append(out, core.Product{
			ID:          id,
			Name:        strings.TrimSpace(field(rec, cols["product_name"])),
			Category:    strings.TrimSpace(field(rec, cols["sub_category"])),
			Price:       price,
			Rating:      rating,
			HasRating:   hasRating,
			Image:       strings.TrimSpace(field(rec, cols["image"])),
			Link:        strings.TrimSpace(field(rec, cols["link"])),
			Description: field(rec, cols["description_clean"]),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no product rows in %s", path)
	}
	return out, nil
}

func loadRatings(path string) ([]core.Rating, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, ratingColumns)
	if err != nil {
		return nil, err
	}

	var out []core.Rating
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		uid, err := parseID(field(rec, cols["user_id"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: user_id: %w", line, err)
		}
		pid, err := parseID(field(rec, cols["product_id"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: product_id: %w", line, err)
		}
		score, err := parseOptionalFloat(field(rec, cols["rating"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: rating: %w", line, err)
		}

		out = append(out, core.Rating{
			UserID:    uid,
			UserName:  strings.TrimSpace(field(rec, cols["user"])),
			ProductID: pid,
			Score:     score,
		})
	}
	return out, nil
}

// 商品表可选列，缺失时下标记为 -1。
var productOptionalColumns = []string{"image", "link", "description_clean"}

// columnIndex 把表头解析为"列名 -> 下标"。pandas 导出的 CSV 常带一个无名
// 索引列，按名取列天然跳过它。必需列缺失即报错。
func columnIndex(header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	cols := make(map[string]int)
	for _, name := range required {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[name] = i
	}
	for _, name := range productOptionalColumns {
		if i, ok := idx[name]; ok {
			cols[name] = i
		} else {
			cols[name] = -1
		}
	}
	return cols, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty id")
	}
	// 部分导出工具会把整数 id 写成 "123.0"
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// parseOptionalFloat 解析数值，空串按 0 处理。
func parseOptionalFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseNullableFloat 解析可缺失数值，空串返回 (0, false, nil)。
func parseNullableFloat(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
