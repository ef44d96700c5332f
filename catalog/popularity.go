package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/rushteam/shoprec/core"
)

// 默认的有序集合 key。
const (
	DefaultPopularProductsKey = "popular:products"
	DefaultActiveUsersKey     = "active:users"
)

// Popularity 把目录派生的热度统计预热进 KeyValueStore 有序集合，
// 供展示层填充候选下拉框（最热商品 / 最活跃用户）。
// 统计是目录快照的纯函数，预热一次即可；Redis 后端下还可以跨进程共享。
type Popularity struct {
	KV core.KeyValueStore

	// ProductsKey / UsersKey 为空时使用默认 key
	ProductsKey string
	UsersKey    string
}

func (p *Popularity) productsKey() string {
	if p.ProductsKey != "" {
		return p.ProductsKey
	}
	return DefaultPopularProductsKey
}

func (p *Popularity) usersKey() string {
	if p.UsersKey != "" {
		return p.UsersKey
	}
	return DefaultActiveUsersKey
}

// Warm 统计每个商品被评次数、每个用户的评分次数并写入有序集合。
// 展示名带 '*' 的是脱敏账号，不进入活跃用户统计。
func (p *Popularity) Warm(ctx context.Context, c *Catalog) error {
	if p.KV == nil {
		return core.ErrStoreNotSupported
	}

	productCounts := make(map[int64]int)
	userCounts := make(map[int64]int)
	for _, r := range c.Ratings() {
		productCounts[r.ProductID]++
		if r.UserName == "" || strings.Contains(r.UserName, "*") {
			continue
		}
		userCounts[r.UserID]++
	}

	for id, n := range productCounts {
		if err := p.KV.ZAdd(ctx, p.productsKey(), float64(n), strconv.FormatInt(id, 10)); err != nil {
			return err
		}
	}
	for id, n := range userCounts {
		if err := p.KV.ZAdd(ctx, p.usersKey(), float64(n), strconv.FormatInt(id, 10)); err != nil {
			return err
		}
	}
	return nil
}

// TopProducts 返回被评次数最多的前 n 个商品 ID（降序）。
func (p *Popularity) TopProducts(ctx context.Context, n int) ([]int64, error) {
	return p.top(ctx, p.productsKey(), n)
}

// TopUsers 返回评分次数最多的前 n 个用户 ID（降序，不含脱敏账号）。
func (p *Popularity) TopUsers(ctx context.Context, n int) ([]int64, error) {
	return p.top(ctx, p.usersKey(), n)
}

func (p *Popularity) top(ctx context.Context, key string, n int) ([]int64, error) {
	if p.KV == nil {
		return nil, core.ErrStoreNotSupported
	}
	if n <= 0 {
		n = 100
	}
	members, err := p.KV.ZRange(ctx, key, 0, int64(n-1))
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
