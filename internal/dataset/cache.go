package dataset

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"district-dash/internal/boundary"
	"district-dash/internal/logger"
	"district-dash/internal/population"

	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
)

// cacheVersion：缓存信封格式版本，变更字段时递增
const cacheVersion = 1

var ErrCacheVersion = errors.New("unsupported cache version")

// 文档注释：预构建缓存格式
// 文件格式：zstd( gob(envelope) )；几何以 orb 类型直接编码，加载时无需重新解析 GeoJSON。
type envelope struct {
	Version int
	IDField string
	Regions []cachedRegion
	Rows    []population.Row
	BuiltAt time.Time
}

type cachedRegion struct {
	ID       string
	Geometry orb.Geometry
}

func init() {
	gob.Register(orb.Point{})
	gob.Register(orb.MultiPoint{})
	gob.Register(orb.LineString{})
	gob.Register(orb.MultiLineString{})
	gob.Register(orb.Ring{})
	gob.Register(orb.Polygon{})
	gob.Register(orb.MultiPolygon{})
	gob.Register(orb.Collection{})
	gob.Register(orb.Bound{})
}

// Encode：把数据集写为缓存格式
func Encode(w io.Writer, ds *Dataset) error {
	env := envelope{
		Version: cacheVersion,
		IDField: ds.Regions.IDField(),
		Rows:    ds.Table.Rows(),
		BuiltAt: ds.BuiltAt,
	}
	for _, r := range ds.Regions.Regions() {
		env.Regions = append(env.Regions, cachedRegion{ID: r.ID, Geometry: r.Geometry})
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(zw).Encode(&env); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// Decode：读取缓存格式；版本不符返回 ErrCacheVersion
func Decode(r io.Reader) (*Dataset, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var env envelope
	if err := gob.NewDecoder(zr).Decode(&env); err != nil {
		return nil, err
	}
	if env.Version != cacheVersion {
		return nil, fmt.Errorf("%w: %d", ErrCacheVersion, env.Version)
	}
	regions := make([]boundary.Region, 0, len(env.Regions))
	for _, r := range env.Regions {
		regions = append(regions, boundary.Region{ID: r.ID, Geometry: r.Geometry})
	}
	c, err := boundary.New(env.IDField, regions)
	if err != nil {
		return nil, err
	}
	return &Dataset{Regions: c, Table: population.NewTable(env.Rows), BuiltAt: env.BuiltAt}, nil
}

// LoadCacheFile：从缓存文件加载（生产模式）
func LoadCacheFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sourceErr(path, err)
	}
	defer f.Close()
	ds, err := Decode(f)
	if err != nil {
		return nil, sourceErr(path, err)
	}
	logger.L().Debug("cache_load_ok", "path", path, "regions", ds.Regions.Len(), "rows", ds.Table.Len())
	return ds, nil
}

// WriteCacheFile：先写临时文件再改名，避免读到半截文件
func WriteCacheFile(path string, ds *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Encode(f, ds); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadCacheRedis：从 Redis 键读取缓存格式（多实例共享同一份预构建数据）
// 约束：键不存在视为数据源缺失
func LoadCacheRedis(ctx context.Context, rc *redis.Client, key string) (*Dataset, error) {
	src := "redis:" + key
	if rc == nil {
		return nil, sourceErr(src, errors.New("redis not configured"))
	}
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		return nil, sourceErr(src, err)
	}
	ds, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, sourceErr(src, err)
	}
	logger.L().Debug("cache_redis_ok", "key", key, "bytes", len(b))
	return ds, nil
}

// PublishRedis：把缓存格式写入 Redis 键（不过期）
func PublishRedis(ctx context.Context, rc *redis.Client, key string, ds *Dataset) error {
	var buf bytes.Buffer
	if err := Encode(&buf, ds); err != nil {
		return err
	}
	return rc.Set(ctx, key, buf.Bytes(), 0).Err()
}
