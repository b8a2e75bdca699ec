package dataset

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"district-dash/internal/population"

	"github.com/redis/go-redis/v9"
)

// 加载模式
const (
	ModeDemo  = "demo"
	ModeCache = "cache"
	ModeTable = "table"
)

// TableSource：table 模式下的人口表来源（CSV / Postgres / SQLite）
type TableSource func(ctx context.Context) (*population.Table, error)

// Options：加载参数；各模式只读取自身需要的字段
type Options struct {
	Mode        string
	GeoJSONPath string
	IDField     string
	DemoMonth   population.Month
	Seed        int64
	CachePath   string
	RedisKey    string
	Redis       *redis.Client
	Table       TableSource
}

// Load：按模式加载数据集；三种模式产出相同形状的 Dataset
// 约束：cache 模式下 RedisKey 非空时优先 Redis，否则读 CachePath
func Load(ctx context.Context, o Options) (*Dataset, error) {
	switch o.Mode {
	case "", ModeDemo:
		seed := o.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return LoadDemo(o.GeoJSONPath, o.IDField, o.DemoMonth, rand.New(rand.NewSource(seed)))
	case ModeCache:
		if o.RedisKey != "" {
			return LoadCacheRedis(ctx, o.Redis, o.RedisKey)
		}
		return LoadCacheFile(o.CachePath)
	case ModeTable:
		if o.Table == nil {
			return nil, fmt.Errorf("table mode without population source")
		}
		tbl, err := o.Table(ctx)
		if err != nil {
			return nil, err
		}
		return LoadTable(o.GeoJSONPath, o.IDField, tbl)
	}
	return nil, fmt.Errorf("unknown data mode %q", o.Mode)
}
