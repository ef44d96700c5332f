package main

import (
	"context"
	"fmt"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/knn"
	"github.com/rushteam/shoprec/mf"
	"github.com/rushteam/shoprec/recommend"
	"github.com/rushteam/shoprec/store"
)

// app 是一次进程启动装配出来的全部只读依赖。
// 任何一步加载失败都直接返回错误：没有部分可用模式。
type app struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	engine  *recommend.Engine
	pop     *catalog.Popularity

	closers []func() error
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &app{cfg: cfg}

	a.catalog, err = catalog.Load(cfg.Data.Products, cfg.Data.Ratings)
	if err != nil {
		return nil, err
	}

	matrix, err := knn.LoadFeatureMatrix(cfg.Model.Features)
	if err != nil {
		return nil, err
	}

	var index knn.NeighborIndex
	switch cfg.Model.IndexBackend {
	case config.IndexBackendSqvect:
		sq, err := knn.OpenSqvectIndex(ctx, cfg.Model.IndexPath, matrix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sq.Close)
		index = sq
	default:
		index = knn.NewFlatIndex(matrix)
	}

	scorer, err := mf.LoadSVDModel(cfg.Model.SVD)
	if err != nil {
		return nil, err
	}

	var kv core.KeyValueStore
	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		kv = rs
	} else {
		kv = store.NewMemoryStore()
	}
	a.closers = append(a.closers, kv.Close)

	var extra []filter.Filter
	for _, expr := range cfg.Recommend.Rules {
		rf, err := filter.NewRuleFilter(a.catalog, expr)
		if err != nil {
			return nil, fmt.Errorf("compile rule: %w", err)
		}
		if rf != nil {
			extra = append(extra, rf)
		}
	}

	a.engine = &recommend.Engine{
		Catalog:       a.catalog,
		Index:         index,
		Scorer:        scorer,
		MinPositive:   cfg.Recommend.MinPositiveRating,
		MaxConcurrent: cfg.Recommend.MaxConcurrent,
		ExtraFilters:  extra,
		Cache:         kv,
		CacheTTL:      cfg.Recommend.CacheTTL,
	}

	a.pop = &catalog.Popularity{KV: kv}
	if err := a.pop.Warm(ctx, a.catalog); err != nil {
		return nil, fmt.Errorf("warm popularity: %w", err)
	}

	return a, nil
}

func (a *app) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
