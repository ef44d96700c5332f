// Package config 提供服务配置的加载与校验（YAML）。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是服务的全量配置。
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Model     ModelConfig     `yaml:"model"`
	Recommend RecommendConfig `yaml:"recommend"`
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
}

// DataConfig 指向两张只读表。
type DataConfig struct {
	Products string `yaml:"products"`
	Ratings  string `yaml:"ratings"`
}

// ModelConfig 指向离线训练产出的模型工件。
type ModelConfig struct {
	// Features 是商品特征矩阵工件（JSON）
	Features string `yaml:"features"`

	// SVD 是隐因子评分模型工件（JSON）
	SVD string `yaml:"svd"`

	// IndexBackend 内容索引后端：flat（内存，默认）或 sqvect（SQLite 落盘）
	IndexBackend string `yaml:"index_backend"`

	// IndexPath 是 sqvect 后端的索引文件路径
	IndexPath string `yaml:"index_path"`
}

// RecommendConfig 是查询层参数。
type RecommendConfig struct {
	// DefaultTopN 未指定条数时的默认返回条数
	DefaultTopN int `yaml:"default_top_n"`

	// MinPositiveRating "用户已正向评价"的评分阈值，默认 3
	MinPositiveRating float64 `yaml:"min_positive_rating"`

	// MaxConcurrent 协同估分并发度，0 表示串行
	MaxConcurrent int `yaml:"max_concurrent"`

	// Rules 是 CEL 结果规则，表达式返回 true 的候选保留
	Rules []string `yaml:"rules"`

	// CacheTTL 结果缓存秒数，0 表示用默认值
	CacheTTL int `yaml:"cache_ttl"`
}

// ServerConfig 是 HTTP 服务配置。
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig 非空时热度统计与结果缓存走 Redis，否则用内存。
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

const (
	IndexBackendFlat   = "flat"
	IndexBackendSqvect = "sqvect"
)

// Load 读取并校验配置文件。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Model.IndexBackend == "" {
		c.Model.IndexBackend = IndexBackendFlat
	}
	if c.Recommend.DefaultTopN <= 0 {
		c.Recommend.DefaultTopN = 5
	}
	if c.Recommend.MinPositiveRating <= 0 {
		c.Recommend.MinPositiveRating = 3
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

func (c *Config) validate() error {
	if c.Data.Products == "" || c.Data.Ratings == "" {
		return fmt.Errorf("config: data.products and data.ratings are required")
	}
	if c.Model.Features == "" || c.Model.SVD == "" {
		return fmt.Errorf("config: model.features and model.svd are required")
	}
	switch c.Model.IndexBackend {
	case IndexBackendFlat:
	case IndexBackendSqvect:
		if c.Model.IndexPath == "" {
			return fmt.Errorf("config: model.index_path is required for sqvect backend")
		}
	default:
		return fmt.Errorf("config: unknown index backend %q", c.Model.IndexBackend)
	}
	return nil
}
